package handlers

import (
	"net/http"

	"github.com/MegaGrindStone/portfolio-chat/internal/models"
)

// HandleAPIHealth reports that the API is up. This is the endpoint the chat widget resolves as HEALTH.
func (m Main) HandleAPIHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.Health{
		Status:  "ok",
		Message: "Portfolio API is running",
	})
}

// HandleHealth is the load balancer probe.
func (m Main) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	now := m.now().UTC()
	writeJSON(w, http.StatusOK, models.Health{
		Status:    "healthy",
		Timestamp: &now,
	})
}

// HandleHealthz adds deployment details to the probe: the environment name and whether an LLM provider
// is configured.
func (m Main) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	now := m.now().UTC()
	configured := m.llm != nil
	writeJSON(w, http.StatusOK, models.Health{
		Status:        "healthy",
		Timestamp:     &now,
		Environment:   m.environment,
		LLMConfigured: &configured,
	})
}

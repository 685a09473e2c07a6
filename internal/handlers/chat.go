package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MegaGrindStone/portfolio-chat/internal/models"
)

// ApologyReply is returned as the reply text when the LLM provider fails, so the visitor always gets an
// answer from the chat endpoint once the request itself is valid.
const ApologyReply = "I'm sorry, I encountered an error while processing your request. Please try again later."

const maxChatBodyBytes = 64 << 10

// HandleChat answers the last user message of a chat request on behalf of the portfolio owner.
//
// The handler expects a JSON body {"messages": [{"role", "content"}...]}. It returns 400 when the list is
// empty or holds no user message, and 500 when no LLM provider is configured. Provider failures are not
// surfaced as errors: the reply becomes ApologyReply and the failure is only logged.
func (m Main) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		m.logger.Error("Failed to decode chat request", slog.String(errLoggerKey, err.Error()))
		writeError(w, http.StatusUnprocessableEntity, "Invalid request body")
		return
	}

	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "No messages provided")
		return
	}

	last, ok := models.LastUserMessage(req.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "No user message found")
		return
	}

	if m.llm == nil {
		m.logger.Error("Chat requested but no LLM provider is configured")
		writeError(w, http.StatusInternalServerError, "Failed to initialize the chatbot. Please try again later.")
		return
	}

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response: m.reply(r, last.Content),
		Sources: []models.Source{
			{Type: "knowledge_base", Timestamp: m.now().UTC()},
		},
	})
}

func (m Main) reply(r *http.Request, question string) string {
	ctx := r.Context()

	if m.cache != nil {
		cached, ok, err := m.cache.Get(ctx, question)
		if err != nil {
			m.logger.Warn("Failed to read reply cache", slog.String(errLoggerKey, err.Error()))
		}
		if ok {
			m.logger.Debug("Reply cache hit", slog.String("question", question))
			return cached
		}
	}

	var sb strings.Builder
	for chunk, err := range m.llm.Chat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: question}}) {
		if err != nil {
			m.logger.Error("Error from llm provider",
				slog.String("requestID", RequestID(r)),
				slog.String(errLoggerKey, err.Error()))
			return ApologyReply
		}
		sb.WriteString(chunk)
	}

	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		m.logger.Error("Empty reply from llm provider", slog.String("requestID", RequestID(r)))
		return ApologyReply
	}

	if m.cache != nil {
		if err := m.cache.Put(ctx, question, reply); err != nil {
			m.logger.Warn("Failed to store reply", slog.String(errLoggerKey, err.Error()))
		}
	}
	return reply
}

package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/MegaGrindStone/portfolio-chat/internal/profile"
)

type project struct {
	profile.Project
	DescriptionHTML template.HTML
}

type homePageData struct {
	Profile   profile.Profile
	AboutHTML template.HTML
	Projects  []project
	Year      int

	APIOverrides map[string]string
}

// HandleHome renders the portfolio page. Only the root path is served; anything else is a 404.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	about, err := m.renderMarkdown(m.profile.About)
	if err != nil {
		m.logger.Error("Failed to render about section", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	projects := make([]project, len(m.profile.Projects))
	for i, p := range m.profile.Projects {
		desc, err := m.renderMarkdown(p.Description)
		if err != nil {
			m.logger.Error("Failed to render project description",
				slog.String("project", p.Name),
				slog.String(errLoggerKey, err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		projects[i] = project{Project: p, DescriptionHTML: desc}
	}

	data := homePageData{
		Profile:   m.profile,
		AboutHTML: about,
		Projects:  projects,
		Year:      m.now().Year(),
	}
	if m.apiBaseURL != "" {
		data.APIOverrides = map[string]string{"BASE_URL": m.apiBaseURL}
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		m.logger.Error("Failed to execute home template", slog.String(errLoggerKey, err.Error()))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

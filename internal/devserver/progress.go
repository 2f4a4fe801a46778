package devserver

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/abhisek/tutorchat/internal/bank"
	"github.com/abhisek/tutorchat/internal/markup"
	"github.com/abhisek/tutorchat/internal/quiz"
)

func (s *Server) progress(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": u.Progress, "level": u.Level})
}

func (s *Server) updateProgress(w http.ResponseWriter, r *http.Request) {
	u := s.requireUser(w, r)
	if u == nil {
		return
	}

	var req struct {
		Score int `json:"score"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Scores outside [0, MaxProgress] are clamped.
	progress := quiz.ApplyPoints(req.Score, 0)
	level := strings.ToLower(quiz.Level(progress))
	if err := s.users.SetProgress(r.Context(), u.ID, progress, level); err != nil {
		s.logger.Printf("update-progress: user=%s: %v", u.ID, err)
		writeError(w, http.StatusInternalServerError, "Failed to update progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress": progress})
}

type resourceItem struct {
	Response   string `json:"response"`
	IsResource bool   `json:"is_resource"`
	IsHTML     bool   `json:"is_html"`
}

// listResources returns anchors for one topic, or for every topic when
// none is given. Unknown topics yield an empty list.
func (s *Server) listResources(w http.ResponseWriter, r *http.Request) {
	var selected []bank.Resource
	if id := r.URL.Query().Get("topic"); id != "" {
		if tr, err := s.resources.For(id); err == nil {
			selected = tr.Resources
		}
	} else {
		for _, id := range slices.Sorted(maps.Keys(s.resources)) {
			selected = append(selected, s.resources[id].Resources...)
		}
	}

	items := make([]resourceItem, 0, len(selected))
	for _, res := range selected {
		items = append(items, resourceItem{
			Response:   fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, markup.Escape(res.URL), markup.Escape(res.Title)),
			IsResource: true,
			IsHTML:     true,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"resources": items})
}

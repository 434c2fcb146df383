package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"slackpeek/internal/emoji"
)

type EmojiHandler struct {
	cache            *emoji.Cache
	defaultWorkspace string
}

type ResolveResponse struct {
	Name      string `json:"name"`
	Found     bool   `json:"found"`
	Rendering string `json:"rendering,omitempty"`
	Value     string `json:"value,omitempty"`
}

func NewEmojiHandler(cache *emoji.Cache, defaultWorkspace string) *EmojiHandler {
	return &EmojiHandler{cache: cache, defaultWorkspace: defaultWorkspace}
}

// HandleResolve resolves one emoji name. A miss is a normal response
// with found=false, telling the client to render the raw name as text.
func (h *EmojiHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "Missing name parameter", http.StatusBadRequest)
		return
	}

	workspaceID := r.URL.Query().Get("workspace")
	if workspaceID == "" {
		workspaceID = h.defaultWorkspace
	}

	response := ResolveResponse{Name: name}
	if resolved, ok := h.cache.Resolve(name, workspaceID); ok {
		response.Found = true
		response.Value = resolved.Value
		switch resolved.Rendering {
		case emoji.RenderImageURL:
			response.Rendering = "image_url"
		default:
			response.Rendering = "unicode"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding resolve response", "error", err)
	}
}

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"slackpeek/internal/reactions"
	"slackpeek/internal/services"
)

type SearchHandler struct {
	service *services.SearchService
	state   *reactions.StateStore
}

type SearchRequest struct {
	Query string `json:"query"`
	Count int    `json:"count,omitempty"`
}

type SearchResponse struct {
	Query    string                 `json:"query"`
	Total    int                    `json:"total"`
	Messages []reactions.Message    `json:"messages"`
	State    reactions.LoadingState `json:"state"`
}

func NewSearchHandler(service *services.SearchService, state *reactions.StateStore) *SearchHandler {
	return &SearchHandler{service: service, state: state}
}

// HandleSearch runs a message search and returns the matches
// immediately; reaction data streams into the list afterwards and is
// visible through HandleMessages and HandleState.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding search request", "error", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	if req.Query == "" {
		http.Error(w, "Query cannot be empty", http.StatusBadRequest)
		return
	}

	list, err := h.service.Search(r.Context(), req.Query, req.Count)
	if err != nil {
		slog.Error("Error processing search", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	snapshot := list.Snapshot()
	response := SearchResponse{
		Query:    req.Query,
		Total:    len(snapshot),
		Messages: snapshot,
		State:    h.state.Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Error encoding search response", "error", err)
	}
}

// HandleMessages returns the current search's messages with whatever
// reaction data has been applied so far.
func (h *SearchHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	list := h.service.Current()
	if list == nil {
		http.Error(w, "No search has been run", http.StatusNotFound)
		return
	}

	snapshot := list.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(struct {
		Total    int                 `json:"total"`
		Messages []reactions.Message `json:"messages"`
	}{Total: len(snapshot), Messages: snapshot}); err != nil {
		slog.Error("Error encoding messages response", "error", err)
	}
}

// HandleState reports the reaction loader's progress counters.
func (h *SearchHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.state.Snapshot()); err != nil {
		slog.Error("Error encoding state response", "error", err)
	}
}

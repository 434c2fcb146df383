package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"slackpeek/internal/metrics"
	"slackpeek/internal/reactions"
)

// Searcher runs a remote message search. Matches come back with
// reactions unfetched.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]reactions.Message, error)
}

// SearchService ties a search to the progressive reaction loader: it
// runs the remote search, publishes a fresh message list, and kicks
// the loader so reaction data streams in behind the initial results.
type SearchService struct {
	searcher Searcher
	loader   *reactions.Loader

	mu      sync.Mutex
	current *reactions.List
}

func NewSearchService(searcher Searcher, loader *reactions.Loader) *SearchService {
	return &SearchService{
		searcher: searcher,
		loader:   loader,
	}
}

// Search runs a message search and starts loading reactions in the
// background. The returned list is live: entries gain reaction data as
// batches complete. Each search gets its own list, so a slow loader
// invocation from an earlier search can never write into this one.
func (s *SearchService) Search(ctx context.Context, query string, count int) (*reactions.List, error) {
	messages, err := s.searcher.Search(ctx, query, count)
	if err != nil {
		metrics.SearchesProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search failed: %w", err)
	}
	metrics.SearchesProcessed.WithLabelValues("success").Inc()

	list := reactions.NewList(messages)

	s.mu.Lock()
	s.current = list
	s.mu.Unlock()

	slog.Info("Search completed",
		slog.String("query", query),
		slog.Int("matches", list.Len()))

	// The loader outlives the request that triggered it.
	s.loader.Load(context.WithoutCancel(ctx), list)

	return list, nil
}

// Current returns the most recent search's list, or nil before the
// first search.
func (s *SearchService) Current() *reactions.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

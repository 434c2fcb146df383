package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"slackpeek/internal/reactions"
)

type mockSearcher struct {
	messages []reactions.Message
	err      error
	queries  []string
}

func (m *mockSearcher) Search(ctx context.Context, query string, count int) ([]reactions.Message, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	return m.messages, nil
}

type staticSource struct{}

func (staticSource) Reactions(ctx context.Context, channelID, timestamp string) ([]reactions.Reaction, error) {
	return []reactions.Reaction{{Name: "+1", Count: 1}}, nil
}

func TestSearchService_KicksLoader(t *testing.T) {
	searcher := &mockSearcher{
		messages: []reactions.Message{
			{ChannelID: "C01", Timestamp: "1700000000.000100", Text: "hello"},
			{ChannelID: "C01", Timestamp: "1700000000.000200", Text: "world"},
		},
	}

	state := reactions.NewStateStore()
	states := state.Subscribe()
	loader := reactions.NewLoader(staticSource{}, state, 50)
	service := NewSearchService(searcher, loader)

	list, err := service.Search(context.Background(), "hello", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", list.Len())
	}
	if service.Current() != list {
		t.Error("Current should return the list just built")
	}

	// Reactions stream in behind the initial result.
	deadline := time.After(5 * time.Second)
	for {
		var st reactions.LoadingState
		select {
		case st = <-states:
		case <-deadline:
			t.Fatal("timed out waiting for loader")
		}
		if !st.IsLoading {
			if st.LoadedCount != 2 {
				t.Errorf("expected 2 loaded, got %d", st.LoadedCount)
			}
			break
		}
	}

	for i, m := range list.Snapshot() {
		if m.Reactions == nil {
			t.Errorf("message %d has no reactions after load", i)
		}
	}
}

func TestSearchService_SearchErrorPropagates(t *testing.T) {
	searcher := &mockSearcher{err: errors.New("slack is down")}
	state := reactions.NewStateStore()
	loader := reactions.NewLoader(staticSource{}, state, 50)
	service := NewSearchService(searcher, loader)

	if _, err := service.Search(context.Background(), "hello", 20); err == nil {
		t.Fatal("expected an error")
	}
	if service.Current() != nil {
		t.Error("failed search must not replace the current list")
	}
}

func TestSearchService_NewSearchReplacesCurrent(t *testing.T) {
	searcher := &mockSearcher{
		messages: []reactions.Message{
			{ChannelID: "C01", Timestamp: "1700000000.000100", Text: "hello"},
		},
	}
	state := reactions.NewStateStore()
	loader := reactions.NewLoader(staticSource{}, state, 50)
	service := NewSearchService(searcher, loader)

	first, err := service.Search(context.Background(), "one", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := service.Search(context.Background(), "two", 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("each search must build a fresh list")
	}
	if service.Current() != second {
		t.Error("Current should track the latest search")
	}
}

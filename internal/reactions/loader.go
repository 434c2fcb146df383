// Package reactions progressively loads emoji reactions for a set of
// search results. Reactions are fetched out of band, batch by batch,
// and merged into the live message list while the UI already shows the
// reaction-less results.
package reactions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"slackpeek/internal/metrics"

	"github.com/google/uuid"
)

// Source is the remote collaborator that fetches reactions for one
// message. It owns auth, rate limiting and transient-error retry; the
// loader only distinguishes success from failure.
type Source interface {
	Reactions(ctx context.Context, channelID, timestamp string) ([]Reaction, error)
}

// Loader fetches missing reaction data for a message list in the
// background. Batches run one after another; requests inside a batch
// fan out concurrently, which caps peak concurrency at one batch
// width and keeps the Slack API from rate-limiting the whole run.
type Loader struct {
	source    Source
	state     *StateStore
	batchSize int
}

// DefaultBatchSize was tuned against the Slack API: large enough to
// fill a screen of results per round trip, small enough to stay under
// rate limits.
const DefaultBatchSize = 50

func NewLoader(source Source, state *StateStore, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Loader{
		source:    source,
		state:     state,
		batchSize: batchSize,
	}
}

// Load starts fetching reactions for every entry in list that has none
// yet and returns immediately. Progress is visible only through the
// state store and the list's observers; no way to wait for completion
// is exposed. Do not call this for data whose reactions are
// needed immediately and synchronously (a realtime refresh of reaction
// counts must fetch them inline instead).
//
// Calling Load on a fully loaded list is a no-op, so re-invoking it
// after completion costs nothing.
func (l *Loader) Load(ctx context.Context, list *List) {
	snapshot := list.Snapshot()

	var pending []Request
	for i, m := range snapshot {
		if m.Reactions == nil {
			pending = append(pending, Request{
				ChannelID: m.ChannelID,
				Timestamp: m.Timestamp,
				Index:     i,
			})
		}
	}

	if len(pending) == 0 {
		slog.Debug("All messages already have reactions, nothing to load",
			slog.Int("messages", len(snapshot)))
		return
	}

	l.state.Reset(len(snapshot)-len(pending), len(snapshot))

	invocationID := uuid.New().String()
	slog.Info("Starting reaction load",
		slog.String("invocation_id", invocationID),
		slog.Int("pending", len(pending)),
		slog.Int("total", len(snapshot)),
		slog.Int("batch_size", l.batchSize))

	metrics.ReactionLoadsInFlight.Inc()
	go l.run(ctx, invocationID, list, pending)
}

func (l *Loader) run(ctx context.Context, invocationID string, list *List, pending []Request) {
	start := time.Now()
	defer metrics.ReactionLoadsInFlight.Dec()
	defer l.state.Finish()
	defer func() {
		// The background task must never crash the host.
		if r := recover(); r != nil {
			slog.Error("Reaction load panicked",
				slog.String("invocation_id", invocationID),
				slog.Any("panic", r))
		}
	}()

	var totalLoaded, totalErrored int

	for batchStart := 0; batchStart < len(pending); batchStart += l.batchSize {
		batchEnd := batchStart + l.batchSize
		if batchEnd > len(pending) {
			batchEnd = len(pending)
		}
		batch := pending[batchStart:batchEnd]

		began := time.Now()
		results := l.fetchBatch(ctx, batch)

		var successes, failures int
		updated := make([]int, 0, len(batch))
		for _, res := range results {
			if res.err != nil {
				failures++
				metrics.ReactionFetches.WithLabelValues("error").Inc()
				slog.Debug("Reaction fetch failed",
					slog.String("invocation_id", invocationID),
					slog.Int("index", res.index),
					slog.String("error", res.err.Error()))
				continue
			}
			list.ApplyReactions(res.index, res.reactions)
			updated = append(updated, res.index)
			successes++
			metrics.ReactionFetches.WithLabelValues("success").Inc()
		}

		l.state.ApplyBatch(successes, failures)
		if len(updated) > 0 {
			list.NotifyApplied(updated)
		}

		totalLoaded += successes
		totalErrored += failures
		metrics.ReactionBatches.Inc()
		metrics.ReactionBatchDuration.Observe(time.Since(began).Seconds())

		slog.Debug("Completed reaction batch",
			slog.String("invocation_id", invocationID),
			slog.Int("successes", successes),
			slog.Int("failures", failures),
			slog.Duration("duration", time.Since(began)))
	}

	slog.Info("Completed reaction load",
		slog.String("invocation_id", invocationID),
		slog.Int("loaded", totalLoaded),
		slog.Int("errored", totalErrored),
		slog.Duration("duration", time.Since(start)))
}

type fetchResult struct {
	index     int
	reactions []Reaction
	err       error
}

// fetchBatch fans the batch out concurrently and waits for every
// request to settle. One request's failure never blocks or fails its
// siblings.
func (l *Loader) fetchBatch(ctx context.Context, batch []Request) []fetchResult {
	results := make([]fetchResult, len(batch))

	var wg sync.WaitGroup
	for i, req := range batch {
		wg.Add(1)
		go func(slot int, req Request) {
			defer wg.Done()
			defer func() {
				// A panicking transport counts as a failed item.
				if r := recover(); r != nil {
					results[slot] = fetchResult{
						index: req.Index,
						err:   fmt.Errorf("reaction fetch panicked: %v", r),
					}
				}
			}()

			fetched, err := l.source.Reactions(ctx, req.ChannelID, req.Timestamp)
			if err != nil {
				results[slot] = fetchResult{index: req.Index, err: err}
				return
			}
			if fetched == nil {
				// Distinguish "fetched, none" from "not fetched".
				fetched = []Reaction{}
			}
			results[slot] = fetchResult{index: req.Index, reactions: fetched}
		}(i, req)
	}
	wg.Wait()

	return results
}

// Package slack adapts the slack-go client to the interfaces the rest
// of the service consumes: message search, per-message reaction
// fetches and custom emoji listing.
package slack

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"slackpeek/internal/metrics"
	"slackpeek/internal/reactions"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

// Client wraps one workspace's Slack API token. It owns client-side
// pacing so a fanned-out reaction batch does not trip Slack's rate
// limits; callers treat every method as a black box that resolves or
// fails per item.
type Client struct {
	api         *slack.Client
	limiter     *rate.Limiter
	workspaceID string
}

// NewClient creates a Slack API client for one workspace. The limiter
// allows a full default batch to burst while keeping the sustained
// rate inside Slack's Tier 3 window.
func NewClient(token, workspaceID string) *Client {
	api := slack.New(token)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if authTest, err := api.AuthTestContext(ctx); err != nil {
		slog.Warn("Slack auth test failed", "error", err)
	} else {
		slog.Info("Slack client authenticated",
			slog.String("workspace_id", workspaceID),
			slog.String("team", authTest.Team),
			slog.String("user_id", authTest.UserID))
	}

	return &Client{
		api:         api,
		limiter:     rate.NewLimiter(rate.Limit(20), 50),
		workspaceID: workspaceID,
	}
}

// Search runs a Slack message search and returns the matches with
// reactions unfetched (nil), ready for the progressive loader.
func (c *Client) Search(ctx context.Context, query string, count int) ([]reactions.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	params := slack.NewSearchParameters()
	if count > 0 {
		params.Count = count
	}

	result, err := c.api.SearchMessagesContext(ctx, query, params)
	metrics.SlackAPICallDuration.WithLabelValues("search.messages").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SlackAPICalls.WithLabelValues("search.messages", "error").Inc()
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	metrics.SlackAPICalls.WithLabelValues("search.messages", "success").Inc()

	messages := make([]reactions.Message, 0, len(result.Matches))
	for _, match := range result.Matches {
		messages = append(messages, reactions.Message{
			ChannelID: match.Channel.ID,
			Timestamp: match.Timestamp,
			UserID:    match.User,
			Username:  match.Username,
			Text:      match.Text,
			Permalink: match.Permalink,
		})
	}

	slog.Debug("Slack search completed",
		slog.String("query", query),
		slog.Int("matches", len(messages)),
		slog.Duration("duration", time.Since(start)))

	return messages, nil
}

// Reactions fetches the reaction set for one message. A message with
// no reactions returns an empty slice, not an error.
func (c *Client) Reactions(ctx context.Context, channelID, timestamp string) ([]reactions.Reaction, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	ref := slack.NewRefToMessage(channelID, timestamp)
	fetched, err := c.api.GetReactionsContext(ctx, ref, slack.GetReactionsParameters{Full: true})
	metrics.SlackAPICallDuration.WithLabelValues("reactions.get").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SlackAPICalls.WithLabelValues("reactions.get", "error").Inc()
		return nil, fmt.Errorf("failed to get reactions for %s/%s: %w", channelID, timestamp, err)
	}
	metrics.SlackAPICalls.WithLabelValues("reactions.get", "success").Inc()

	out := make([]reactions.Reaction, 0, len(fetched))
	for _, r := range fetched {
		out = append(out, reactions.Reaction{
			Name:  r.Name,
			Count: r.Count,
			Users: r.Users,
		})
	}
	return out, nil
}

// CustomEmoji lists the workspace's uploaded emoji with aliases
// resolved to concrete image URLs. The workspaceID is informational;
// one Client holds one workspace's token.
func (c *Client) CustomEmoji(ctx context.Context, workspaceID string) (map[string]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := c.api.GetEmojiContext(ctx)
	metrics.SlackAPICallDuration.WithLabelValues("emoji.list").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SlackAPICalls.WithLabelValues("emoji.list", "error").Inc()
		return nil, fmt.Errorf("failed to list custom emoji: %w", err)
	}
	metrics.SlackAPICalls.WithLabelValues("emoji.list", "success").Inc()

	return resolveAliases(raw), nil
}

const aliasPrefix = "alias:"

// resolveAliases maps alias entries to the image URL of their target.
// Aliases of standard emoji have no URL and are dropped; the cache's
// standard table covers those names anyway. Chains are followed with a
// small depth cap to survive cyclic data.
func resolveAliases(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for name, value := range raw {
		target := value
		for depth := 0; strings.HasPrefix(target, aliasPrefix); depth++ {
			if depth >= 8 {
				target = ""
				break
			}
			target = raw[strings.TrimPrefix(target, aliasPrefix)]
		}
		if target != "" {
			out[name] = target
		}
	}
	return out
}

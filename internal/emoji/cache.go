package emoji

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"slackpeek/internal/metrics"

	"github.com/puzpuzpuz/xsync"
)

// CustomSource fetches the custom emoji uploaded to a workspace. The
// returned map is name -> image URL with aliases already resolved.
type CustomSource interface {
	CustomEmoji(ctx context.Context, workspaceID string) (map[string]string, error)
}

// Store persists fetched custom emoji so the cache can warm-start
// without hitting the Slack API. Implementations may be absent (nil).
type Store interface {
	SaveCustomEmoji(ctx context.Context, workspaceID string, custom map[string]string, fetchedAt time.Time) error
	LoadCustomEmoji(ctx context.Context, workspaceID string) (map[string]string, time.Time, error)
	ListWorkspaces(ctx context.Context) ([]string, error)
}

// Variant rewrites an emoji name into an alternate naming convention.
// A variant returning the input unchanged (or "") is skipped.
type Variant func(name string) string

// workspaceEmoji is an immutable snapshot of one workspace's custom
// emoji. Refreshes replace the whole value, never mutate the map, so
// concurrent readers never observe a half-updated table.
type workspaceEmoji struct {
	custom  map[string]string
	fetched time.Time
}

// Cache resolves emoji names against layered sources: the current
// workspace's custom emoji, the built-in standard table, and other
// known workspaces' custom emoji, in that order.
type Cache struct {
	source        CustomSource
	store         Store // may be nil
	refreshWindow time.Duration
	variants      []Variant

	standard   map[string]string
	workspaces *xsync.MapOf[string, *workspaceEmoji]
	refreshing *xsync.MapOf[string, struct{}]
}

var skinTonePattern = regexp.MustCompile(`::skin-tone-\d:?$`)

// NewCache creates an emoji cache. store may be nil when no
// persistence is wanted.
func NewCache(source CustomSource, store Store, refreshWindow time.Duration) (*Cache, error) {
	standard, err := standardTable()
	if err != nil {
		return nil, err
	}

	return &Cache{
		source:        source,
		store:         store,
		refreshWindow: refreshWindow,
		variants:      DefaultVariants(),
		standard:      standard,
		workspaces:    xsync.NewMapOf[*workspaceEmoji](),
		refreshing:    xsync.NewMapOf[struct{}](),
	}, nil
}

// SetVariants replaces the naming-variant table. Call before serving
// lookups; the slice is not copied.
func (c *Cache) SetVariants(variants []Variant) {
	c.variants = variants
}

// DefaultVariants returns the known naming-convention rewrites applied
// when an exact lookup misses. The list grew out of real mismatches
// between Slack's canonical names and what clients send.
func DefaultVariants() []Variant {
	return []Variant{
		stripSuffix("_face"),
		stripSuffix("-face"),
		swapPrefix("female-", "woman-"),
		swapPrefix("woman-", "female-"),
		swapPrefix("male-", "man-"),
		swapPrefix("man-", "male-"),
	}
}

func stripSuffix(suffix string) Variant {
	return func(name string) string {
		return strings.TrimSuffix(name, suffix)
	}
}

func swapPrefix(from, to string) Variant {
	return func(name string) string {
		if strings.HasPrefix(name, from) {
			return to + strings.TrimPrefix(name, from)
		}
		return name
	}
}

// Resolve looks up an emoji name for a workspace. The bool result is
// false when nothing matched; that is a normal outcome, not an error,
// and the caller should render the raw name as text.
//
// Resolve never blocks on the network: a missing or stale workspace
// table triggers a background refresh and the lookup proceeds against
// whatever is currently cached.
func (c *Cache) Resolve(name, workspaceID string) (Emoji, bool) {
	clean := strings.Trim(name, ":")

	// Skin-tone variants collapse to the base emoji.
	clean = skinTonePattern.ReplaceAllString(clean, "")

	if clean == "" {
		metrics.EmojiResolutions.WithLabelValues("none", "miss").Inc()
		return Emoji{}, false
	}

	c.ensureFresh(workspaceID)

	if e, tier, ok := c.lookupExact(clean, workspaceID); ok {
		metrics.EmojiResolutions.WithLabelValues(tier, "hit").Inc()
		return e, true
	}

	// Hyphen/underscore conventions differ between clients.
	if swapped := swapHyphenUnderscore(clean); swapped != clean {
		if e, _, ok := c.lookupExact(swapped, workspaceID); ok {
			metrics.EmojiResolutions.WithLabelValues("variant", "hit").Inc()
			return e, true
		}
	}

	for _, variant := range c.variants {
		candidate := variant(clean)
		if candidate == "" || candidate == clean {
			continue
		}
		if e, _, ok := c.lookupExact(candidate, workspaceID); ok {
			metrics.EmojiResolutions.WithLabelValues("variant", "hit").Inc()
			return e, true
		}
	}

	// Last resort: substring match, custom emoji only. The standard
	// table is excluded so a short name never matches an unrelated
	// long one.
	if e, ok := c.lookupPartial(clean, workspaceID); ok {
		metrics.EmojiResolutions.WithLabelValues("partial", "hit").Inc()
		return e, true
	}

	metrics.EmojiResolutions.WithLabelValues("none", "miss").Inc()
	return Emoji{}, false
}

// lookupExact applies the tiered exact-match search: current workspace
// custom, then the standard table, then every other workspace's custom.
func (c *Cache) lookupExact(name, workspaceID string) (Emoji, string, bool) {
	if ws, ok := c.workspaces.Load(workspaceID); ok {
		if url, ok := ws.custom[name]; ok {
			return ImageURL(url), "custom", true
		}
	}

	if unicode, ok := c.standard[name]; ok {
		return Unicode(unicode), "standard", true
	}

	var found Emoji
	var hit bool
	c.workspaces.Range(func(id string, ws *workspaceEmoji) bool {
		if id == workspaceID {
			return true
		}
		if url, ok := ws.custom[name]; ok {
			found = ImageURL(url)
			hit = true
			return false
		}
		return true
	})
	if hit {
		return found, "fallback_workspace", true
	}

	return Emoji{}, "", false
}

// lookupPartial searches custom emoji names for a substring match,
// current workspace first.
func (c *Cache) lookupPartial(name, workspaceID string) (Emoji, bool) {
	if ws, ok := c.workspaces.Load(workspaceID); ok {
		if url, ok := containsMatch(ws.custom, name); ok {
			return ImageURL(url), true
		}
	}

	var found Emoji
	var hit bool
	c.workspaces.Range(func(id string, ws *workspaceEmoji) bool {
		if id == workspaceID {
			return true
		}
		if url, ok := containsMatch(ws.custom, name); ok {
			found = ImageURL(url)
			hit = true
			return false
		}
		return true
	})
	return found, hit
}

func containsMatch(custom map[string]string, name string) (string, bool) {
	for key, url := range custom {
		if strings.Contains(key, name) {
			return url, true
		}
	}
	return "", false
}

func swapHyphenUnderscore(name string) string {
	if strings.Contains(name, "-") {
		return strings.ReplaceAll(name, "-", "_")
	}
	return strings.ReplaceAll(name, "_", "-")
}

// ensureFresh kicks off a background refresh when the workspace has no
// cached custom emoji yet or the snapshot is older than the freshness
// window. Lookups are never blocked on the fetch.
func (c *Cache) ensureFresh(workspaceID string) {
	ws, ok := c.workspaces.Load(workspaceID)
	if ok && time.Since(ws.fetched) <= c.refreshWindow {
		return
	}

	if _, inFlight := c.refreshing.LoadOrStore(workspaceID, struct{}{}); inFlight {
		return
	}

	go func() {
		defer c.refreshing.Delete(workspaceID)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := c.refresh(ctx, workspaceID); err != nil {
			slog.Error("Background custom emoji refresh failed",
				slog.String("workspace_id", workspaceID),
				slog.String("error", err.Error()))
		}
	}()
}

// Refresh synchronously fetches and installs the custom emoji table
// for a workspace. Used at startup for the home workspace; background
// refreshes go through the same path.
func (c *Cache) Refresh(ctx context.Context, workspaceID string) error {
	return c.refresh(ctx, workspaceID)
}

func (c *Cache) refresh(ctx context.Context, workspaceID string) error {
	start := time.Now()

	custom, err := c.source.CustomEmoji(ctx, workspaceID)
	if err != nil {
		metrics.EmojiRefreshes.WithLabelValues("error").Inc()
		return err
	}

	c.workspaces.Store(workspaceID, &workspaceEmoji{
		custom:  custom,
		fetched: time.Now(),
	})

	metrics.EmojiRefreshes.WithLabelValues("success").Inc()
	metrics.CustomEmojiCached.WithLabelValues(workspaceID).Set(float64(len(custom)))

	slog.Info("Refreshed custom emoji",
		slog.String("workspace_id", workspaceID),
		slog.Int("count", len(custom)),
		slog.Duration("duration", time.Since(start)))

	if c.store != nil {
		if err := c.store.SaveCustomEmoji(ctx, workspaceID, custom, time.Now()); err != nil {
			slog.Warn("Failed to persist custom emoji",
				slog.String("workspace_id", workspaceID),
				slog.String("error", err.Error()))
		}
	}

	return nil
}

// Warm loads persisted custom emoji tables into the cache. Snapshots
// keep their original fetch time, so anything past the freshness
// window still triggers a refresh on first lookup.
func (c *Cache) Warm(ctx context.Context) error {
	if c.store == nil {
		return nil
	}

	workspaceIDs, err := c.store.ListWorkspaces(ctx)
	if err != nil {
		return err
	}

	for _, id := range workspaceIDs {
		custom, fetchedAt, err := c.store.LoadCustomEmoji(ctx, id)
		if err != nil {
			slog.Warn("Failed to load persisted custom emoji",
				slog.String("workspace_id", id),
				slog.String("error", err.Error()))
			continue
		}
		c.workspaces.Store(id, &workspaceEmoji{custom: custom, fetched: fetchedAt})
		metrics.CustomEmojiCached.WithLabelValues(id).Set(float64(len(custom)))
	}

	slog.Info("Warmed emoji cache", slog.Int("workspaces", len(workspaceIDs)))
	return nil
}

// CustomCount reports how many custom emoji are cached for a
// workspace. Zero when the workspace is unknown.
func (c *Cache) CustomCount(workspaceID string) int {
	if ws, ok := c.workspaces.Load(workspaceID); ok {
		return len(ws.custom)
	}
	return 0
}

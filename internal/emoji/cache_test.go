package emoji

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu     sync.Mutex
	calls  int
	custom map[string]map[string]string
}

func (s *stubSource) CustomEmoji(ctx context.Context, workspaceID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.custom[workspaceID], nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type storeEntry struct {
	custom    map[string]string
	fetchedAt time.Time
}

type stubStore struct {
	entries map[string]storeEntry
	saved   map[string]map[string]string
}

func (s *stubStore) SaveCustomEmoji(ctx context.Context, workspaceID string, custom map[string]string, fetchedAt time.Time) error {
	if s.saved == nil {
		s.saved = make(map[string]map[string]string)
	}
	s.saved[workspaceID] = custom
	return nil
}

func (s *stubStore) LoadCustomEmoji(ctx context.Context, workspaceID string) (map[string]string, time.Time, error) {
	e := s.entries[workspaceID]
	return e.custom, e.fetchedAt, nil
}

func (s *stubStore) ListWorkspaces(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids, nil
}

func newWarmedCache(t *testing.T, entries map[string]storeEntry) (*Cache, *stubSource) {
	t.Helper()

	source := &stubSource{custom: map[string]map[string]string{}}
	for id, e := range entries {
		source.custom[id] = e.custom
	}

	cache, err := NewCache(source, &stubStore{entries: entries}, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, cache.Warm(context.Background()))

	return cache, source
}

func TestResolve_StandardTable(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
	})

	got, ok := cache.Resolve("tea", "W1")
	require.True(t, ok)
	assert.Equal(t, Unicode("🍵"), got)
}

func TestResolve_CustomBeatsStandard(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {
			custom:    map[string]string{"memo": "https://emoji.example.com/memo.png"},
			fetchedAt: time.Now(),
		},
	})

	got, ok := cache.Resolve("memo", "W1")
	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/memo.png"), got)
}

func TestResolve_ColonDelimitersStripped(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
	})

	got, ok := cache.Resolve(":tea:", "W1")
	require.True(t, ok)
	assert.Equal(t, Unicode("🍵"), got)
}

func TestResolve_SkinToneCollapsesToBase(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
	})

	base, ok := cache.Resolve("thumbsup", "W1")
	require.True(t, ok)

	for _, name := range []string{
		"thumbsup::skin-tone-2",
		"thumbsup::skin-tone-6:",
		":thumbsup::skin-tone-3:",
	} {
		got, ok := cache.Resolve(name, "W1")
		require.True(t, ok, "name %q", name)
		assert.Equal(t, base, got, "name %q", name)
	}
}

func TestResolve_CrossWorkspaceFallback(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
		"W2": {
			custom:    map[string]string{"partyblob": "https://emoji.example.com/partyblob.gif"},
			fetchedAt: time.Now(),
		},
	})

	got, ok := cache.Resolve("partyblob", "W1")
	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/partyblob.gif"), got)
}

func TestResolve_CurrentWorkspaceBeatsOthers(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {
			custom:    map[string]string{"shipit": "https://emoji.example.com/w1/shipit.png"},
			fetchedAt: time.Now(),
		},
		"W2": {
			custom:    map[string]string{"shipit": "https://emoji.example.com/w2/shipit.png"},
			fetchedAt: time.Now(),
		},
	})

	got, ok := cache.Resolve("shipit", "W1")
	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/w1/shipit.png"), got)
}

func TestResolve_HyphenUnderscoreSwap(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {
			custom:    map[string]string{"blob_wave": "https://emoji.example.com/blob_wave.gif"},
			fetchedAt: time.Now(),
		},
	})

	got, ok := cache.Resolve("blob-wave", "W1")
	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/blob_wave.gif"), got)

	// And the other direction against the standard table.
	got, ok = cache.Resolve("thinking-face", "W1")
	require.True(t, ok)
	assert.Equal(t, Unicode("🤔"), got)
}

func TestResolve_VariantTable(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
	})

	// "grinning_face" is not in the table but "grinning" is; the
	// suffix-strip variant should find it.
	got, ok := cache.Resolve("grinning_face", "W1")
	require.True(t, ok)
	assert.Equal(t, Unicode("😀"), got)

	// Gendered prefix swap.
	got, ok = cache.Resolve("woman-technologist", "W1")
	require.True(t, ok)
	assert.Equal(t, Unicode("👩‍💻"), got)
}

func TestResolve_PartialMatchCustomOnly(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {
			custom:    map[string]string{"dumpster-fire-spin": "https://emoji.example.com/dfs.gif"},
			fetchedAt: time.Now(),
		},
	})

	// Substring hit against a custom name.
	got, ok := cache.Resolve("dumpster", "W1")
	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/dfs.gif"), got)

	// "check" is a substring of the standard "white_check_mark" but
	// partial matching never touches the standard table.
	_, ok = cache.Resolve("check", "W1")
	assert.False(t, ok)
}

func TestResolve_MissIsNotAnError(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
	})

	_, ok := cache.Resolve("nonexistent-xyz", "W1")
	assert.False(t, ok)
}

func TestResolve_Stable(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {
			custom:    map[string]string{"memo": "https://emoji.example.com/memo.png"},
			fetchedAt: time.Now(),
		},
	})

	first, ok := cache.Resolve("memo", "W1")
	require.True(t, ok)
	second, ok := cache.Resolve("memo", "W1")
	require.True(t, ok)
	assert.Equal(t, first, second)
}

func TestResolve_StaleAnswersImmediately(t *testing.T) {
	// Persisted snapshot is well past the freshness window.
	cache, source := newWarmedCache(t, map[string]storeEntry{
		"W1": {
			custom:    map[string]string{"legacy": "https://emoji.example.com/legacy.png"},
			fetchedAt: time.Now().Add(-48 * time.Hour),
		},
	})

	start := time.Now()
	got, ok := cache.Resolve("legacy", "W1")
	elapsed := time.Since(start)

	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/legacy.png"), got)
	assert.Less(t, elapsed, time.Second, "stale lookup must not block on refresh")

	// The lookup should have kicked a background refresh.
	assert.Eventually(t, func() bool {
		return source.callCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRefresh_SwapsTableWholesale(t *testing.T) {
	source := &stubSource{custom: map[string]map[string]string{
		"W1": {"newbie": "https://emoji.example.com/newbie.png"},
	}}
	cache, err := NewCache(source, nil, 24*time.Hour)
	require.NoError(t, err)

	require.NoError(t, cache.Refresh(context.Background(), "W1"))

	got, ok := cache.Resolve("newbie", "W1")
	require.True(t, ok)
	assert.Equal(t, ImageURL("https://emoji.example.com/newbie.png"), got)
	assert.Equal(t, 1, cache.CustomCount("W1"))
}

func TestSetVariants(t *testing.T) {
	cache, _ := newWarmedCache(t, map[string]storeEntry{
		"W1": {custom: map[string]string{}, fetchedAt: time.Now()},
	})

	cache.SetVariants([]Variant{
		func(name string) string { return name + "_face" },
	})

	// "thinking" only resolves through the custom variant now.
	got, ok := cache.Resolve("thinking", "W1")
	require.True(t, ok)
	assert.Equal(t, Unicode("🤔"), got)
}

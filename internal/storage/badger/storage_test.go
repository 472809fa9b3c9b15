package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/common"
	"github.com/ternarybob/scribo/internal/interfaces"
	"github.com/ternarybob/scribo/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{
		Path: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestArticleStorageCRUD(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	articles := manager.Articles()

	now := time.Now().UTC()
	article := &models.Article{
		ID:                "art_test-1",
		Title:             "New Screening Guidelines Announced",
		Content:           "Full article body goes here.",
		Summary:           "Guidelines updated.",
		Tags:              []string{"screening", "guidelines"},
		Category:          models.CategoryMedical,
		SourceFragmentKey: 42,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	id, err := articles.CreateArticle(ctx, article)
	require.NoError(t, err)
	assert.Equal(t, "art_test-1", id)

	loaded, err := articles.GetArticle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, article.Title, loaded.Title)
	assert.Equal(t, article.Category, loaded.Category)
	assert.Equal(t, int64(42), loaded.SourceFragmentKey)

	count, err := articles.CountArticles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, articles.DeleteArticle(ctx, id))

	_, err = articles.GetArticle(ctx, id)
	assert.ErrorIs(t, err, models.ErrArticleNotFound)
}

func TestArticleStorageListFiltersAndOrders(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	articles := manager.Articles()

	base := time.Now().UTC()
	for i, cat := range []models.Category{models.CategoryMedical, models.CategoryHealth, models.CategoryMedical} {
		article := &models.Article{
			ID:        "art_list-" + string(rune('a'+i)),
			Title:     "Article",
			Content:   "Body",
			Summary:   "Summary",
			Category:  cat,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		_, err := articles.CreateArticle(ctx, article)
		require.NoError(t, err)
	}

	all, err := articles.ListArticles(ctx, &interfaces.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first
	assert.Equal(t, "art_list-c", all[0].ID)

	medical, err := articles.ListArticles(ctx, &interfaces.ListOptions{Category: "medical"})
	require.NoError(t, err)
	assert.Len(t, medical, 2)

	limited, err := articles.ListArticles(ctx, &interfaces.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "art_list-b", limited[0].ID)
}

func TestConsumedStorageRejectsDuplicateKey(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	consumed := manager.Consumed()

	require.NoError(t, consumed.AddConsumedKey(ctx, 7, "art_one"))

	err := consumed.AddConsumedKey(ctx, 7, "art_two")
	assert.ErrorIs(t, err, models.ErrAlreadyConsumed)

	keys, err := consumed.ListConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, keys)

	count, err := consumed.CountConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConsumedStorageClearIsIdempotent(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	consumed := manager.Consumed()

	require.NoError(t, consumed.AddConsumedKey(ctx, 1, "art_a"))
	require.NoError(t, consumed.AddConsumedKey(ctx, 2, "art_b"))

	removed, err := consumed.ClearConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// Second clear finds nothing to remove
	removed, err = consumed.ClearConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	count, err := consumed.CountConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Keys are reusable after a clear
	require.NoError(t, consumed.AddConsumedKey(ctx, 1, "art_c"))
}

func TestStatsStorageCounters(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	stats := manager.Stats()

	initial, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, initial.TotalGenerated)
	assert.Equal(t, 0, initial.CycleCount)
	assert.Nil(t, initial.LastGeneratedAt)

	at := time.Now().UTC()
	require.NoError(t, stats.IncrementGenerated(ctx, at))
	require.NoError(t, stats.IncrementGenerated(ctx, at.Add(time.Minute)))
	require.NoError(t, stats.IncrementCycle(ctx))

	current, err := stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, current.TotalGenerated)
	assert.Equal(t, 1, current.CycleCount)
	require.NotNil(t, current.LastGeneratedAt)

	require.NoError(t, stats.DecrementGenerated(ctx))
	require.NoError(t, stats.DecrementGenerated(ctx))
	// Floors at zero
	require.NoError(t, stats.DecrementGenerated(ctx))

	current, err = stats.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, current.TotalGenerated)
}

func TestFragmentStorageRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()
	fragments := manager.fragments

	require.NoError(t, fragments.SaveFragment(ctx, &models.Fragment{
		Key:  10,
		Text: "Fragment body",
		Meta: models.FragmentMeta{Source: "test", Topic: "testing"},
	}))

	keys, err := fragments.ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, keys)

	fragment, err := fragments.GetByKey(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Fragment body", fragment.Text)
	assert.Equal(t, "test", fragment.Meta.Source)

	_, err = fragments.GetByKey(ctx, 999)
	assert.ErrorIs(t, err, models.ErrFragmentNotFound)
}

func TestLoadFragmentsFromDir(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	seedDir := t.TempDir()
	tomlSeed := `
[[fragments]]
key = 1
text = "First fragment with enough content to matter."
source = "unit-test"
topic = "testing"

[[fragments]]
key = 2
text = "Second fragment with enough content to matter."
`
	yamlSeed := `fragments:
  - key: 3
    text: "Third fragment, loaded from YAML."
    topic: "testing"
  - key: 4
    text: ""
`
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "seed.toml"), []byte(tomlSeed), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "seed.yaml"), []byte(yamlSeed), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "ignored.txt"), []byte("not a seed"), 0644))

	loaded, err := manager.LoadFragmentSeeds(ctx, seedDir)
	require.NoError(t, err)
	// Blank-text seeds are skipped
	assert.Equal(t, 3, loaded)

	count, err := manager.Fragments().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestLoadFragmentsSkipsSeedsWithoutKeys(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	seedDir := t.TempDir()
	seed := `
[[fragments]]
text = "Keyless seed that would otherwise land on key zero."

[[fragments]]
text = "Another keyless seed that would overwrite the first."

[[fragments]]
key = 5
text = "Properly keyed seed that should load."
`
	require.NoError(t, os.WriteFile(filepath.Join(seedDir, "seed.toml"), []byte(seed), 0644))

	loaded, err := manager.LoadFragmentSeeds(ctx, seedDir)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	keys, err := manager.Fragments().ListKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, keys)

	_, err = manager.Fragments().GetByKey(ctx, 0)
	assert.ErrorIs(t, err, models.ErrFragmentNotFound)
}

func TestLoadFragmentsFromMissingDirIsNotAnError(t *testing.T) {
	manager := newTestManager(t)

	loaded, err := manager.LoadFragmentSeeds(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
}

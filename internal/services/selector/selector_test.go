package selector

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribo/internal/models"
)

type fakeFragmentStore struct {
	fragments map[int64]*models.Fragment
	listErr   error
}

func (f *fakeFragmentStore) ListKeys(ctx context.Context) ([]int64, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]int64, 0, len(f.fragments))
	for k := range f.fragments {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

func (f *fakeFragmentStore) GetByKey(ctx context.Context, key int64) (*models.Fragment, error) {
	fragment, ok := f.fragments[key]
	if !ok {
		return nil, fmt.Errorf("%w: key %d", models.ErrFragmentNotFound, key)
	}
	return fragment, nil
}

func (f *fakeFragmentStore) Count(ctx context.Context) (int, error) {
	return len(f.fragments), nil
}

type fakeConsumedSet struct {
	mu   sync.Mutex
	keys map[int64]string
}

func newFakeConsumedSet() *fakeConsumedSet {
	return &fakeConsumedSet{keys: make(map[int64]string)}
}

func (f *fakeConsumedSet) AddConsumedKey(ctx context.Context, key int64, articleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.keys[key]; ok {
		return fmt.Errorf("%w: key %d", models.ErrAlreadyConsumed, key)
	}
	f.keys[key] = articleID
	return nil
}

func (f *fakeConsumedSet) ListConsumedKeys(ctx context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]int64, 0, len(f.keys))
	for k := range f.keys {
		keys = append(keys, k)
	}
	return keys, nil
}

func (f *fakeConsumedSet) ClearConsumedKeys(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := len(f.keys)
	f.keys = make(map[int64]string)
	return removed, nil
}

func (f *fakeConsumedSet) CountConsumedKeys(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys), nil
}

type fakeStats struct {
	mu        sync.Mutex
	generated int
	cycles    int
}

func (f *fakeStats) GetStats(ctx context.Context) (*models.GenerationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.GenerationStats{TotalGenerated: f.generated, CycleCount: f.cycles}, nil
}

func (f *fakeStats) IncrementGenerated(ctx context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generated++
	return nil
}

func (f *fakeStats) DecrementGenerated(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.generated > 0 {
		f.generated--
	}
	return nil
}

func (f *fakeStats) IncrementCycle(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycles++
	return nil
}

func (f *fakeStats) cycleCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycles
}

func fragmentPool(texts map[int64]string) *fakeFragmentStore {
	fragments := make(map[int64]*models.Fragment, len(texts))
	for key, text := range texts {
		fragments[key] = &models.Fragment{Key: key, Text: text}
	}
	return &fakeFragmentStore{fragments: fragments}
}

const longText = "This fragment easily clears the default minimum content threshold for selection."

func TestSelectReturnsUnconsumedFragment(t *testing.T) {
	fragments := fragmentPool(map[int64]string{1: longText, 2: longText})
	consumed := newFakeConsumedSet()
	stats := &fakeStats{}
	svc := NewService(fragments, consumed, stats, 50, 5, arbor.NewLogger())

	require.NoError(t, consumed.AddConsumedKey(context.Background(), 1, "art_x"))

	fragment, cycleReset, err := svc.Select(context.Background())
	require.NoError(t, err)
	assert.False(t, cycleReset)
	assert.Equal(t, int64(2), fragment.Key)
}

func TestSelectEmptyPool(t *testing.T) {
	svc := NewService(fragmentPool(nil), newFakeConsumedSet(), &fakeStats{}, 50, 5, arbor.NewLogger())

	_, cycleReset, err := svc.Select(context.Background())
	assert.ErrorIs(t, err, models.ErrNoContentAvailable)
	assert.False(t, cycleReset)
}

func TestSelectResetsExhaustedCycle(t *testing.T) {
	fragments := fragmentPool(map[int64]string{1: longText, 2: longText})
	consumed := newFakeConsumedSet()
	stats := &fakeStats{}
	svc := NewService(fragments, consumed, stats, 50, 5, arbor.NewLogger())

	ctx := context.Background()
	require.NoError(t, consumed.AddConsumedKey(ctx, 1, "art_a"))
	require.NoError(t, consumed.AddConsumedKey(ctx, 2, "art_b"))

	fragment, cycleReset, err := svc.Select(ctx)
	require.NoError(t, err)
	assert.True(t, cycleReset)
	assert.NotNil(t, fragment)
	assert.Equal(t, 1, stats.cycles)

	count, err := consumed.CountConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSelectSkipsLowQualityFragments(t *testing.T) {
	fragments := fragmentPool(map[int64]string{1: "too short", 2: longText})
	svc := NewService(fragments, newFakeConsumedSet(), &fakeStats{}, 50, 5, arbor.NewLogger())

	// Keys list sorted: index 0 is the short fragment, index 1 the long one
	picks := []int{0, 1}
	svc.pick = func(n int) int {
		idx := picks[0]
		if len(picks) > 1 {
			picks = picks[1:]
		}
		if idx >= n {
			return n - 1
		}
		return idx
	}

	fragment, _, err := svc.Select(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), fragment.Key)
}

func TestSelectExhaustsRetriesOnLowQualityPool(t *testing.T) {
	fragments := fragmentPool(map[int64]string{1: "short", 2: "also short"})
	svc := NewService(fragments, newFakeConsumedSet(), &fakeStats{}, 50, 3, arbor.NewLogger())

	_, _, err := svc.Select(context.Background())
	assert.ErrorIs(t, err, models.ErrLowQualityPool)
}

// gatedConsumedSet holds every ListConsumedKeys caller at a barrier until two
// callers have listed, so both observe the same exhausted set before either
// clears it.
type gatedConsumedSet struct {
	*fakeConsumedSet
	gate  chan struct{}
	lists atomic.Int32
}

func (g *gatedConsumedSet) ListConsumedKeys(ctx context.Context) ([]int64, error) {
	keys, err := g.fakeConsumedSet.ListConsumedKeys(ctx)
	if g.lists.Add(1) == 2 {
		close(g.gate)
	}
	<-g.gate
	return keys, err
}

func TestSelectConcurrentExhaustionResetsCycleOnce(t *testing.T) {
	fragments := fragmentPool(map[int64]string{1: longText, 2: longText})
	consumed := &gatedConsumedSet{fakeConsumedSet: newFakeConsumedSet(), gate: make(chan struct{})}
	stats := &fakeStats{}
	svc := NewService(fragments, consumed, stats, 50, 5, arbor.NewLogger())

	ctx := context.Background()
	require.NoError(t, consumed.AddConsumedKey(ctx, 1, "art_a"))
	require.NoError(t, consumed.AddConsumedKey(ctx, 2, "art_b"))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fragment, _, err := svc.Select(ctx)
			assert.NoError(t, err)
			assert.NotNil(t, fragment)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, stats.cycleCount())
}

func TestResetCycleOnEmptySetSkipsIncrement(t *testing.T) {
	consumed := newFakeConsumedSet()
	stats := &fakeStats{}
	svc := NewService(fragmentPool(map[int64]string{1: longText}), consumed, stats, 50, 5, arbor.NewLogger())

	require.NoError(t, svc.ResetCycle(context.Background()))
	assert.Equal(t, 0, stats.cycles)
}

func TestResetCycleClearsConsumedSet(t *testing.T) {
	consumed := newFakeConsumedSet()
	stats := &fakeStats{}
	svc := NewService(fragmentPool(map[int64]string{1: longText}), consumed, stats, 50, 5, arbor.NewLogger())

	ctx := context.Background()
	require.NoError(t, consumed.AddConsumedKey(ctx, 1, "art_a"))
	require.NoError(t, svc.ResetCycle(ctx))

	count, err := consumed.CountConsumedKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 1, stats.cycles)
}

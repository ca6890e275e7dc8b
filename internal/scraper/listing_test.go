package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIterator(f *fakePage) *ListingIterator {
	cfg := testConfig()
	return NewListingIterator(f, NewNavigator(f, cfg, zap.NewNop()), cfg, zap.NewNop())
}

func TestClickRowRetriesUntilSuccess(t *testing.T) {
	f := newFakePage()
	attempts := 0
	f.onClick = func(Element) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errBoom
		}
		return detailURL(1), nil
	}

	err := newTestIterator(f).ClickRow(context.Background(), Element{Selector: ".listRow"})

	require.NoError(t, err)
	assert.Len(t, f.clicks, 3)
}

func TestClickRowGivesUpAfterThreeAttempts(t *testing.T) {
	f := newFakePage()
	f.onClick = func(Element) (string, error) { return "", errBoom }

	err := newTestIterator(f).ClickRow(context.Background(), Element{Selector: ".listRow", Index: 4})

	assert.ErrorIs(t, err, errBoom)
	assert.Len(t, f.clicks, 3)
}

func TestForEachCapsRows(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		maxJobs int
		want    int
	}{
		{"fewer rows than cap", 3, 20, 3},
		{"hard cap", 25, 20, 20},
		{"configured cap", 25, 5, 5},
		{"no rows", 0, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			f := newJobSite(cfg, tt.rows)
			ctx := context.Background()
			require.NoError(t, f.Navigate(ctx, cfg.SearchURL(), cfg.Timeouts.Navigation))

			var visited []int
			total, attempted, err := newTestIterator(f).ForEach(ctx, tt.maxJobs,
				func(_ context.Context, i int, row Element) error {
					assert.Equal(t, i, row.Index)
					visited = append(visited, i)
					return nil
				},
				func(context.Context, int, error) { t.Fatal("unexpected failure") },
			)

			require.NoError(t, err)
			assert.Equal(t, tt.rows, total)
			assert.Equal(t, tt.want, attempted)
			assert.Len(t, visited, tt.want)
			for i, v := range visited {
				assert.Equal(t, i, v)
			}
		})
	}
}

func TestForEachReturnsToSearchAfterEveryRow(t *testing.T) {
	cfg := testConfig()
	f := newJobSite(cfg, 3)
	ctx := context.Background()
	require.NoError(t, f.Navigate(ctx, cfg.SearchURL(), cfg.Timeouts.Navigation))
	it := newTestIterator(f)

	var failed []int
	_, _, err := it.ForEach(ctx, 20,
		func(ctx context.Context, i int, row Element) error {
			if err := it.ClickRow(ctx, row); err != nil {
				return err
			}
			if i == 1 {
				return errBoom
			}
			return nil
		},
		func(_ context.Context, i int, err error) {
			assert.ErrorIs(t, err, errBoom)
			failed = append(failed, i)
		},
	)

	require.NoError(t, err)
	assert.Equal(t, []int{1}, failed)
	// One initial load plus one reload per row.
	assert.Equal(t, 4, f.navigationsTo(cfg.SearchURL()))
}

func TestForEachRecountsAfterFailedReload(t *testing.T) {
	cfg := testConfig()
	f := newJobSite(cfg, 2)
	ctx := context.Background()
	require.NoError(t, f.Navigate(ctx, cfg.SearchURL(), cfg.Timeouts.Navigation))
	it := newTestIterator(f)

	failNext := false
	f.onNavigate = func(url string) error {
		if url == cfg.SearchURL() && failNext {
			failNext = false
			return errBoom
		}
		return nil
	}

	var failures []error
	_, attempted, err := it.ForEach(ctx, 20,
		func(ctx context.Context, i int, row Element) error {
			require.NoError(t, it.ClickRow(ctx, row))
			// The reload after this row fails and the board shrinks.
			failNext = true
			f.setCount(cfg.SearchURL(), cfg.Selectors.Listing, 1)
			return nil
		},
		func(_ context.Context, i int, err error) {
			assert.Equal(t, 1, i)
			failures = append(failures, err)
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 2, attempted)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], ErrRowUnavailable)
}

func TestForEachLeavesInterruptedRowUnrecorded(t *testing.T) {
	cfg := testConfig()
	f := newJobSite(cfg, 5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, f.Navigate(ctx, cfg.SearchURL(), cfg.Timeouts.Navigation))

	var visited []int
	_, attempted, err := newTestIterator(f).ForEach(ctx, 20,
		func(_ context.Context, i int, _ Element) error {
			visited = append(visited, i)
			if i == 1 {
				cancel()
				return context.Canceled
			}
			return nil
		},
		func(context.Context, int, error) { t.Fatal("interrupted row must not be recorded as failed") },
	)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{0, 1}, visited)
	assert.Equal(t, 1, attempted)
}

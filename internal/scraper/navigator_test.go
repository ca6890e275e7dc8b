package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettleReturnsOnIdle(t *testing.T) {
	cfg := testConfig()
	f := newFakePage()
	nav := NewNavigator(f, cfg, zap.NewNop())

	assert.Equal(t, Settled, nav.Settle(context.Background(), time.Second))
}

func TestSettleGivesUpQuietly(t *testing.T) {
	cfg := testConfig()
	f := newFakePage()
	f.neverIdle()
	nav := NewNavigator(f, cfg, zap.NewNop())

	start := time.Now()
	state := nav.Settle(context.Background(), 30*time.Millisecond)

	assert.Equal(t, QuietTimedOut, state)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNavigateAndSettleReportsNavigationError(t *testing.T) {
	cfg := testConfig()
	f := newFakePage()
	f.onNavigate = func(string) error { return errBoom }
	nav := NewNavigator(f, cfg, zap.NewNop())

	_, err := nav.NavigateAndSettle(context.Background(), cfg.LoginURL(), cfg.Timeouts.Settle)
	assert.ErrorIs(t, err, errBoom)
}

func TestNavigateAndSettleIgnoresQuietTimeout(t *testing.T) {
	cfg := testConfig()
	f := newFakePage()
	f.neverIdle()
	nav := NewNavigator(f, cfg, zap.NewNop())

	state, err := nav.NavigateAndSettle(context.Background(), cfg.LoginURL(), 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, QuietTimedOut, state)
}

func TestReturnToSearch(t *testing.T) {
	cfg := testConfig()
	f := newFakePage()
	nav := NewNavigator(f, cfg, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, f.Navigate(ctx, detailURL(1), time.Second))
	onSearch, err := nav.OnSearchPage(ctx)
	require.NoError(t, err)
	assert.False(t, onSearch)

	require.NoError(t, nav.ReturnToSearch(ctx))
	onSearch, err = nav.OnSearchPage(ctx)
	require.NoError(t, err)
	assert.True(t, onSearch)
}

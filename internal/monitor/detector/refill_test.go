package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
)

type refillCommit struct {
	productID string
	delta     int
}

func newRefillFixture(t *testing.T) (*RefillDetector, *fakeTimeline, *[]refillCommit) {
	t.Helper()
	tl := newFakeTimeline()
	var commits []refillCommit
	d := NewRefillDetector(tl, tl, func(productID string, delta int) {
		commits = append(commits, refillCommit{productID, delta})
	})
	t.Cleanup(d.Close)
	return d, tl, &commits
}

func onlineProduct(id string, current, previous int) domain.ProductState {
	return domain.ProductState{
		ID:                id,
		Name:              "Product 1",
		ItemsLeft:         current,
		PreviousItemsLeft: previous,
		IsOnline:          true,
	}
}

func TestRefillCommitsAfterQuietWindow(t *testing.T) {
	d, tl, commits := newRefillFixture(t)

	d.Observe(onlineProduct("product1", 10, 5))
	require.True(t, d.Pending("product1"))

	tl.Advance(RefillWindow)

	require.Len(t, *commits, 1)
	assert.Equal(t, refillCommit{"product1", 5}, (*commits)[0])
	assert.False(t, d.Pending("product1"))
}

func TestRefillAccumulatesAndResetsWindow(t *testing.T) {
	d, tl, commits := newRefillFixture(t)

	d.Observe(onlineProduct("product1", 10, 5))
	tl.Advance(30 * time.Second)
	d.Observe(onlineProduct("product1", 12, 10))

	// The original window expiry must not fire a partial commit.
	tl.Advance(30 * time.Second)
	assert.Empty(t, *commits)

	tl.Advance(30 * time.Second)
	require.Len(t, *commits, 1)
	assert.Equal(t, refillCommit{"product1", 7}, (*commits)[0])
}

func TestRefillReboundDiscardsPending(t *testing.T) {
	d, tl, commits := newRefillFixture(t)

	d.Observe(onlineProduct("product1", 10, 5))
	d.Observe(onlineProduct("product1", 5, 10))
	assert.False(t, d.Pending("product1"))

	tl.Advance(RefillWindow)
	assert.Empty(t, *commits)
}

func TestRefillPartialDecreaseKeepsPending(t *testing.T) {
	d, tl, commits := newRefillFixture(t)

	d.Observe(onlineProduct("product1", 10, 5))
	d.Observe(onlineProduct("product1", 8, 10))
	assert.True(t, d.Pending("product1"))

	tl.Advance(RefillWindow)
	require.Len(t, *commits, 1)
	assert.Equal(t, refillCommit{"product1", 5}, (*commits)[0])
}

func TestRefillIgnoresOfflineIncrease(t *testing.T) {
	d, tl, commits := newRefillFixture(t)

	p := onlineProduct("product1", 10, 5)
	p.IsOnline = false
	d.Observe(p)
	assert.False(t, d.Pending("product1"))

	tl.Advance(RefillWindow)
	assert.Empty(t, *commits)
}

func TestRefillEscapedTimerCannotCommitLaterEpisode(t *testing.T) {
	tl := newLeakyTimeline()
	var commits []refillCommit
	d := NewRefillDetector(tl, tl, func(productID string, delta int) {
		commits = append(commits, refillCommit{productID, delta})
	})
	t.Cleanup(d.Close)

	d.Observe(onlineProduct("product1", 10, 5))

	tl.Advance(30 * time.Second)
	// Rebound discards the episode, but its timer escaped Stop and will
	// still fire at the original deadline.
	d.Observe(onlineProduct("product1", 5, 10))
	d.Observe(onlineProduct("product1", 9, 5))

	// The escaped timer fires here. It must not commit the new episode.
	tl.Advance(30 * time.Second)
	assert.Empty(t, commits)
	assert.True(t, d.Pending("product1"))

	// The new episode still commits on its own schedule.
	tl.Advance(30 * time.Second)
	require.Len(t, commits, 1)
	assert.Equal(t, refillCommit{"product1", 4}, commits[0])
}

func TestRefillForgetCancelsPending(t *testing.T) {
	d, tl, commits := newRefillFixture(t)

	d.Observe(onlineProduct("product1", 10, 5))
	d.Forget("product1")
	assert.False(t, d.Pending("product1"))

	tl.Advance(RefillWindow)
	assert.Empty(t, *commits)
}

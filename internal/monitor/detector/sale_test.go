package detector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleCommit struct {
	productName string
	quantity    int
	itemWeight  float64
}

func newSaleFixture(t *testing.T) (*SaleDetector, *fakeTimeline, *[]saleCommit) {
	t.Helper()
	tl := newFakeTimeline()
	var commits []saleCommit
	d := NewSaleDetector(tl, tl, func(productName string, quantity int, itemWeight float64) {
		commits = append(commits, saleCommit{productName, quantity, itemWeight})
	})
	t.Cleanup(d.Close)
	return d, tl, &commits
}

func TestSaleCommitsAfterQuietWindow(t *testing.T) {
	d, tl, commits := newSaleFixture(t)

	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 7, 7.8)
	require.True(t, d.Pending("Coke"))

	tl.Advance(SaleWindow)

	require.Len(t, *commits, 1)
	assert.Equal(t, saleCommit{"Coke", 3, 7.8}, (*commits)[0])
	assert.False(t, d.Pending("Coke"))
}

func TestSaleLatestDecreaseReplacesPending(t *testing.T) {
	d, tl, commits := newSaleFixture(t)

	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 7, 7.8)
	d.Observe("Coke", 5, 7.8)

	tl.Advance(SaleWindow)

	// Only the latest episode commits: 7 -> 5, not 10 -> 7.
	require.Len(t, *commits, 1)
	assert.Equal(t, saleCommit{"Coke", 2, 7.8}, (*commits)[0])
}

func TestSalePutBackDiscardsPending(t *testing.T) {
	d, tl, commits := newSaleFixture(t)

	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 7, 7.8)
	d.Observe("Coke", 10, 7.8)
	assert.False(t, d.Pending("Coke"))

	tl.Advance(SaleWindow)
	assert.Empty(t, *commits)
}

func TestSaleFirstObservationOnlyTracks(t *testing.T) {
	d, tl, commits := newSaleFixture(t)

	d.Observe("Coke", 10, 7.8)
	assert.False(t, d.Pending("Coke"))

	tl.Advance(SaleWindow)
	assert.Empty(t, *commits)
}

func TestSaleIncreaseBelowBaselineKeepsPending(t *testing.T) {
	d, tl, commits := newSaleFixture(t)

	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 6, 7.8)
	d.Observe("Coke", 8, 7.8)
	assert.True(t, d.Pending("Coke"))

	tl.Advance(SaleWindow)
	require.Len(t, *commits, 1)
	assert.Equal(t, saleCommit{"Coke", 4, 7.8}, (*commits)[0])
}

func TestSaleEscapedTimerCannotCommitLaterEpisode(t *testing.T) {
	tl := newLeakyTimeline()
	var commits []saleCommit
	d := NewSaleDetector(tl, tl, func(productName string, quantity int, itemWeight float64) {
		commits = append(commits, saleCommit{productName, quantity, itemWeight})
	})
	t.Cleanup(d.Close)

	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 7, 7.8)

	tl.Advance(time.Minute)
	// Put-back discards the episode, but its timer escaped Stop and will
	// still fire at the original deadline.
	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 8, 7.8)

	// The escaped timer fires here. It must not commit the new episode.
	tl.Advance(time.Minute)
	assert.Empty(t, commits)
	assert.True(t, d.Pending("Coke"))

	// The new episode still commits on its own schedule.
	tl.Advance(time.Minute)
	require.Len(t, commits, 1)
	assert.Equal(t, saleCommit{"Coke", 2, 7.8}, commits[0])
}

func TestSaleForgetDropsTracking(t *testing.T) {
	d, tl, commits := newSaleFixture(t)

	d.Observe("Coke", 10, 7.8)
	d.Observe("Coke", 7, 7.8)
	d.Forget("Coke")
	assert.False(t, d.Pending("Coke"))

	tl.Advance(SaleWindow)
	assert.Empty(t, *commits)

	// After Forget the next observation is a fresh first sighting.
	d.Observe("Coke", 5, 7.8)
	assert.False(t, d.Pending("Coke"))
}

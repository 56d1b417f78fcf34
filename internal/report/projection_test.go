package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
)

var reportNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func saleAt(name string, qty int, at time.Time) domain.SaleRecord {
	doc := domain.SaleDocAt(name, qty, 7.8, at)
	return domain.SaleFromDoc("sale-id", doc)
}

func TestParsePeriod(t *testing.T) {
	for _, raw := range []string{"daily", "weekly", "monthly"} {
		p, err := ParsePeriod(raw)
		require.NoError(t, err)
		assert.Equal(t, Period(raw), p)
	}

	_, err := ParsePeriod("yearly")
	assert.Error(t, err)
}

func TestDailyExcludesYesterday(t *testing.T) {
	sales := []domain.SaleRecord{
		saleAt("Coke", 3, reportNow.Add(-24*time.Hour)),
	}

	table := BuildTable(sales, PeriodDaily, reportNow)

	assert.Empty(t, table.Rows)
	assert.Empty(t, table.Products)
	assert.Empty(t, table.Totals)
}

func TestDailyStartsAtMidnight(t *testing.T) {
	sales := []domain.SaleRecord{
		saleAt("Coke", 2, reportNow.Add(-14*time.Hour)), // 01:00 today
		saleAt("Coke", 1, reportNow.Add(-16*time.Hour)), // 23:00 yesterday
	}

	table := BuildTable(sales, PeriodDaily, reportNow)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []int{2}, table.Totals)
}

func TestWeeklyWindowIsSevenDays(t *testing.T) {
	sales := []domain.SaleRecord{
		saleAt("Coke", 1, reportNow.Add(-6*24*time.Hour)),
		saleAt("Coke", 1, reportNow.Add(-8*24*time.Hour)),
	}

	table := BuildTable(sales, PeriodWeekly, reportNow)

	require.Len(t, table.Rows, 1)
	assert.Equal(t, []int{1}, table.Totals)
}

func TestBatchesShareARowAcrossProducts(t *testing.T) {
	at := reportNow.Add(-time.Hour)
	sales := []domain.SaleRecord{
		saleAt("Coke", 2, at),
		saleAt("Chips", 1, at),
		saleAt("Coke", 3, reportNow.Add(-30*time.Minute)),
	}

	table := BuildTable(sales, PeriodDaily, reportNow)

	require.Equal(t, []string{"Chips", "Coke"}, table.Products)
	require.Len(t, table.Rows, 2)

	// Rows keep first-seen timestamp order.
	assert.Equal(t, []int{1, 2}, table.Rows[0].Quantities)
	assert.Equal(t, []int{0, 3}, table.Rows[1].Quantities)
	assert.Equal(t, []int{1, 5}, table.Totals)
}

func TestFutureSalesExcluded(t *testing.T) {
	sales := []domain.SaleRecord{
		saleAt("Coke", 2, reportNow.Add(time.Hour)),
	}

	table := BuildTable(sales, PeriodDaily, reportNow)
	assert.Empty(t, table.Rows)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "sales-data-log-weekly-2025-03-10.xlsx", Filename(PeriodWeekly, reportNow))
}

func TestBuildXLSXRoundTrip(t *testing.T) {
	at := reportNow.Add(-time.Hour)
	table := BuildTable([]domain.SaleRecord{
		saleAt("Coke", 2, at),
		saleAt("Chips", 1, at),
	}, PeriodDaily, reportNow)

	data, err := BuildXLSX(table)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

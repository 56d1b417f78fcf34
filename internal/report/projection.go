package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shelfwatch/shelfwatch/internal/monitor/domain"
)

// Period selects the report range.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// ParsePeriod validates a period selector.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return Period(raw), nil
	}
	return "", fmt.Errorf("invalid report period %q", raw)
}

// Start returns the inclusive lower bound of the period relative to now.
func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour)
	case PeriodMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	}
	return now
}

// Row is one (date, time) sale batch with per-product quantities aligned to
// Table.Products.
type Row struct {
	Date       string
	Time       string
	Quantities []int
}

// Table is the date-bucketed sales projection: one column per product name
// plus a total per column over the whole period.
type Table struct {
	Period   Period
	Products []string
	Rows     []Row
	Totals   []int
}

// BuildTable projects confirmed sales into the period's report table. Sales
// outside [period start, now] are excluded; a period with no sales yields zero
// data rows and an all-zero totals line.
func BuildTable(sales []domain.SaleRecord, period Period, now time.Time) Table {
	start := period.Start(now)

	var filtered []domain.SaleRecord
	for _, sale := range sales {
		if sale.Timestamp.Before(start) || sale.Timestamp.After(now) {
			continue
		}
		filtered = append(filtered, sale)
	}

	nameSet := make(map[string]struct{})
	for _, sale := range filtered {
		nameSet[sale.ProductName] = struct{}{}
	}
	products := make([]string, 0, len(nameSet))
	for name := range nameSet {
		products = append(products, name)
	}
	sort.Strings(products)

	colIndex := make(map[string]int, len(products))
	for i, name := range products {
		colIndex[name] = i
	}

	type bucket struct {
		date, time string
		first      time.Time
		quantities []int
	}
	buckets := make(map[string]*bucket)
	var order []string
	for _, sale := range filtered {
		key := sale.Date + "_" + sale.Time
		b, ok := buckets[key]
		if !ok {
			b = &bucket{
				date:       sale.Date,
				time:       sale.Time,
				first:      sale.Timestamp,
				quantities: make([]int, len(products)),
			}
			buckets[key] = b
			order = append(order, key)
		}
		b.quantities[colIndex[sale.ProductName]] += sale.Quantity
		if sale.Timestamp.Before(b.first) {
			b.first = sale.Timestamp
		}
	}

	sort.Slice(order, func(i, j int) bool {
		return buckets[order[i]].first.Before(buckets[order[j]].first)
	})

	table := Table{
		Period:   period,
		Products: products,
		Totals:   make([]int, len(products)),
	}
	for _, key := range order {
		b := buckets[key]
		table.Rows = append(table.Rows, Row{Date: b.date, Time: b.time, Quantities: b.quantities})
		for i, q := range b.quantities {
			table.Totals[i] += q
		}
	}
	return table
}

// Filename embeds the period and the current date.
func Filename(period Period, now time.Time) string {
	return fmt.Sprintf("sales-data-log-%s-%s.xlsx", period, now.Format("2006-01-02"))
}

package domain

import (
	"time"

	"github.com/shelfwatch/shelfwatch/internal/store"
)

// Alert is a persisted stock alert as surfaced to the dashboard.
type Alert struct {
	ID          string    `json:"id"`
	ProductName string    `json:"product_name"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Read        bool      `json:"read"`
}

// SaleRecord is a confirmed sale as surfaced to the dashboard and reports.
type SaleRecord struct {
	ID          string    `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	ItemWeight  float64   `json:"item_weight"`
	Timestamp   time.Time `json:"timestamp"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
}

// TheftNotice is the transient security interrupt raised by the theft detector.
// It is never persisted; the dashboard shows it until it auto-dismisses.
type TheftNotice struct {
	ProductName string    `json:"product_name"`
	Message     string    `json:"message"`
	RaisedAt    time.Time `json:"raised_at"`
}

// TheftNoticeTTL is how long a theft notice stays visible before auto-dismissal.
const TheftNoticeTTL = 6 * time.Second

// TheftMessage is the fixed text of a theft notice.
const TheftMessage = "THEFT DETECTED - Unauthorized item removal!"

// AlertFromDoc converts a stored alert entry into the view model.
func AlertFromDoc(id string, doc store.AlertDoc) Alert {
	return Alert{
		ID:          id,
		ProductName: doc.ProductName,
		Message:     doc.Message,
		Timestamp:   time.UnixMilli(doc.Timestamp),
		Read:        doc.Read,
	}
}

// SaleFromDoc converts a stored sale entry into the view model.
func SaleFromDoc(id string, doc store.SaleDoc) SaleRecord {
	return SaleRecord{
		ID:          id,
		ProductName: doc.ProductName,
		Quantity:    doc.Quantity,
		ItemWeight:  doc.ItemWeight,
		Timestamp:   time.UnixMilli(doc.Timestamp),
		Date:        doc.Date,
		Time:        doc.Time,
	}
}

// SaleDocAt builds the stored record for a sale confirmed at the given time.
func SaleDocAt(productName string, quantity int, itemWeight float64, at time.Time) store.SaleDoc {
	return store.SaleDoc{
		ProductName: productName,
		Quantity:    quantity,
		ItemWeight:  itemWeight,
		Timestamp:   at.UnixMilli(),
		Date:        at.Format("2006-01-02"),
		Time:        at.Format("3:04:05 PM"),
	}
}

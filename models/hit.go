// api/models/hit.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForwardedHit is one ledger row describing a hit that reached the send step.
type ForwardedHit struct {
	HitID         string          `json:"hitId"`
	Timestamp     time.Time       `json:"timestamp"`
	HitType       string          `json:"hitType"`
	Outcome       string          `json:"outcome"`
	TrackingID    string          `json:"trackingId"`
	ClientID      string          `json:"clientId"`
	DocumentPath  string          `json:"documentPath"`
	DocumentTitle string          `json:"documentTitle"`
	EventCategory string          `json:"eventCategory"`
	EventAction   string          `json:"eventAction"`
	EventLabel    string          `json:"eventLabel"`
	EventValue    int64           `json:"eventValue"`
	TransactionID string          `json:"transactionId"`
	Revenue       decimal.Decimal `json:"revenue"`
	ProductAction string          `json:"productAction"`
	ProductCount  uint32          `json:"productCount"`
	IPAddress     string          `json:"ipAddress"`
	UserAgent     string          `json:"userAgent"`
	LatencyMs     int64           `json:"latencyMs"`
}

type TopPathResult struct {
	PagePath string `json:"pagePath"`
	Count    uint64 `json:"count"`
}

package models

import "time"

// ParsedEvent is a normalized financial event produced by a notification
// parser. Type and LastFour are optional; when LastFour is present the
// ingest layer tries to resolve it to an active credit card.
type ParsedEvent struct {
	Source          string           `json:"source"`
	AmountCents     int64            `json:"amount_cents"`
	Description     string           `json:"description"`
	TimestampMillis int64            `json:"timestamp_millis"`
	Type            *TransactionType `json:"type,omitempty"`
	LastFour        *string          `json:"last_four,omitempty"`
}

// ProcessedNotification records the dedup key of an event that has already
// been materialized, so OS-level redeliveries are skipped. Entries older
// than the retention horizon are pruned.
type ProcessedNotification struct {
	ID          int64     `json:"id"`
	DedupKey    string    `json:"dedup_key"`
	ProcessedAt time.Time `json:"processed_at"`
}

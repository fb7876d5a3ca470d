package notifications

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

// Parser turns a raw push notification from one bank app into a ParsedEvent.
// Parse returns false when the notification is not a financial event
// (marketing pushes, balance reminders and the like).
type Parser interface {
	CanHandle(source string) bool
	Parse(title, text string, timestampMillis int64) (*models.ParsedEvent, bool)
}

// Registry dispatches notifications to the first parser that claims the source.
type Registry struct {
	parsers []Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	return &Registry{parsers: parsers}
}

// DefaultRegistry returns a registry with all known bank parsers.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewNubankParser(),
		NewItauParser(),
	)
}

func (r *Registry) Register(p Parser) {
	r.parsers = append(r.parsers, p)
}

// Parse finds a parser for the source and applies it. Returns false when no
// parser handles the source or the handling parser rejects the payload.
func (r *Registry) Parse(source, title, text string, timestampMillis int64) (*models.ParsedEvent, bool) {
	for _, p := range r.parsers {
		if p.CanHandle(source) {
			return p.Parse(title, text, timestampMillis)
		}
	}
	return nil, false
}

// parseBRLCents converts a Brazilian-formatted amount ("1.234,56") to cents.
func parseBRLCents(raw string) (int64, bool) {
	normalized := strings.ReplaceAll(raw, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, false
	}
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, false
	}
	v := cents.IntPart()
	if v <= 0 {
		return 0, false
	}
	return v, true
}

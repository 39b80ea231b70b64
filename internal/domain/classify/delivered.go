// Package classify holds the pure classification rules the reconciliation
// engine depends on: courier status text → delivered yes/no, line item →
// trial/full, and the customer name fallback chain.
//
// All rule tables are injectable so new phrasings and product lines can be
// added from configuration without touching engine control flow.
package classify

import "strings"

// DeliveredTable decides whether a courier's free-text status means the
// shipment reached the customer. Couriers return mixed-language,
// mixed-capitalization strings, so matching is case-insensitive substring
// over an enumerated phrase list.
type DeliveredTable struct {
	phrases []string
}

// defaultDeliveredPhrases covers the phrasings seen from Speedy and Econt,
// plus the English variants some integrations return.
var defaultDeliveredPhrases = []string{
	"доставена",
	"доставено",
	"доставен",
	"получена от клиент",
	"получено от клиент",
	"връчена",
	"връчено",
	"delivered",
	"received by customer",
}

// DefaultDeliveredTable returns the built-in phrase table.
func DefaultDeliveredTable() *DeliveredTable {
	return NewDeliveredTable(defaultDeliveredPhrases)
}

// NewDeliveredTable builds a table from explicit phrases. Phrases are
// normalized to lower case once at construction.
func NewDeliveredTable(phrases []string) *DeliveredTable {
	normalized := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			normalized = append(normalized, p)
		}
	}
	return &DeliveredTable{phrases: normalized}
}

// IsDelivered reports whether statusText matches any delivered phrase.
// Total over arbitrary input: empty or unknown text is simply not delivered.
func (t *DeliveredTable) IsDelivered(statusText string) bool {
	if statusText == "" {
		return false
	}
	lowered := strings.ToLower(statusText)
	for _, phrase := range t.phrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

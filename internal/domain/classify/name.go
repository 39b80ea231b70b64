package classify

import (
	"strings"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// undefinedSentinel is what missing upstream data looks like after a
// JavaScript storefront has rendered it into a string. Any candidate equal
// to it (or built from it) is rejected and the fallback continues.
const undefinedSentinel = "undefined"

// ResolveCustomerName resolves a human-readable customer name using a strict
// fallback priority: buyer profile first/last → shipping full name →
// shipping first/last → billing full name → billing first/last → "".
// The same chain is used when first mirroring an order and when repairing a
// previously corrupted record.
func ResolveCustomerName(customerFirst, customerLast string, shipping, billing *order.Address) string {
	if name := joinName(customerFirst, customerLast); name != "" {
		return name
	}
	for _, addr := range []*order.Address{shipping, billing} {
		if addr == nil {
			continue
		}
		if name := cleanName(addr.Name); name != "" {
			return name
		}
		if name := joinName(addr.FirstName, addr.LastName); name != "" {
			return name
		}
	}
	return ""
}

// joinName combines first and last into a full name, dropping sentinel or
// empty parts. Returns "" when nothing usable remains.
func joinName(first, last string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{first, last} {
		if p = cleanName(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsPlaceholderName reports whether a stored name is a rejected sentinel: a
// non-blank string the fallback chain would refuse to produce.
func IsPlaceholderName(s string) bool {
	return strings.TrimSpace(s) != "" && cleanName(s) == ""
}

// cleanName trims a candidate and rejects the "undefined" sentinels.
func cleanName(s string) string {
	s = strings.TrimSpace(s)
	lowered := strings.ToLower(s)
	if lowered == undefinedSentinel || lowered == undefinedSentinel+" "+undefinedSentinel {
		return ""
	}
	return s
}

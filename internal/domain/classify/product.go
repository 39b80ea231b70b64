package classify

import (
	"strings"

	"github.com/PravdaST/testograph-sync-backend/internal/domain/order"
)

// Capsule counts per pack size. Trial packs are a one-week blister, full
// products a month's jar; reporting multiplies by these.
const (
	TrialCapsules = 7
	FullCapsules  = 30
)

// ProductRule marks a line item as a trial pack when either its SKU or its
// title contains the marker (case-insensitive). An empty field never matches.
type ProductRule struct {
	SKUContains   string
	TitleContains string
}

// ProductRules is an ordered list of trial markers; anything unmatched is a
// full product.
type ProductRules struct {
	rules []ProductRule
}

// defaultProductRules covers the trial SKU conventions plus the localized
// "trial"/"sample" words that show up in ad-hoc product titles.
var defaultProductRules = []ProductRule{
	{SKUContains: "TRIAL"},
	{SKUContains: "-7DAY"},
	{SKUContains: "SAMPLE"},
	{TitleContains: "7-day"},
	{TitleContains: "7 дни"},
	{TitleContains: "проба"},
	{TitleContains: "пробен"},
	{TitleContains: "мостра"},
	{TitleContains: "trial"},
	{TitleContains: "sample"},
}

// DefaultProductRules returns the built-in rule table.
func DefaultProductRules() *ProductRules {
	return NewProductRules(defaultProductRules)
}

// NewProductRules builds a rule table. Markers are matched case-insensitively.
func NewProductRules(rules []ProductRule) *ProductRules {
	return &ProductRules{rules: rules}
}

// Classify tags a line item by SKU and title. Pure and total over arbitrary
// strings; empty SKU and title yield a full product.
func (p *ProductRules) Classify(sku, title string) order.Classification {
	loweredSKU := strings.ToLower(sku)
	loweredTitle := strings.ToLower(title)
	for _, rule := range p.rules {
		if rule.SKUContains != "" && strings.Contains(loweredSKU, strings.ToLower(rule.SKUContains)) {
			return order.ClassTrial
		}
		if rule.TitleContains != "" && strings.Contains(loweredTitle, strings.ToLower(rule.TitleContains)) {
			return order.ClassTrial
		}
	}
	return order.ClassFull
}

// CapsuleCount returns the capsule multiplier for a classification.
func CapsuleCount(c order.Classification) int {
	if c == order.ClassTrial {
		return TrialCapsules
	}
	return FullCapsules
}

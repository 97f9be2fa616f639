// Package categories defines the fixed spending categories and maps the
// bank-data provider's category labels onto them.
package categories

import "strings"

const (
	FoodAndDining  = "Food & Dining"
	Shopping       = "Shopping"
	Transportation = "Transportation"
	Entertainment  = "Entertainment"
	Healthcare     = "Healthcare"
	Housing        = "Housing"
	Utilities      = "Utilities"
	Education      = "Education"
	Travel         = "Travel"
	Income         = "Income"
	Investment     = "Investment"
	Other          = "Other"
)

// All lists every category in display order.
var All = []string{
	FoodAndDining,
	Shopping,
	Transportation,
	Entertainment,
	Healthcare,
	Housing,
	Utilities,
	Education,
	Travel,
	Income,
	Investment,
	Other,
}

var valid = func() map[string]bool {
	m := make(map[string]bool, len(All))
	for _, c := range All {
		m[c] = true
	}
	return m
}()

// providerLabels keys are lowercase primary labels from the provider's taxonomy.
var providerLabels = map[string]string{
	"food and drink":     FoodAndDining,
	"shopping":           Shopping,
	"transport":          Transportation,
	"entertainment":      Entertainment,
	"health and fitness": Healthcare,
	"home improvement":   Housing,
	"utilities":          Utilities,
	"education":          Education,
	"travel":             Travel,
	"transfer":           Other,
	"payment":            Other,
	"deposit":            Income,
	"income":             Income,
}

// IsValid reports whether name is one of the fixed categories.
func IsValid(name string) bool {
	return valid[name]
}

// FromProvider maps a provider category hierarchy to an application category.
// Only the first (most general) label is considered. Missing or unknown
// labels map to Other.
func FromProvider(labels []string) string {
	if len(labels) == 0 {
		return Other
	}
	if c, ok := providerLabels[strings.ToLower(labels[0])]; ok {
		return c
	}
	return Other
}

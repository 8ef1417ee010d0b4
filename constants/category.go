package constants

import "strings"

const (
	// Miscellaneous is the fallback category every unresolved item lands in.
	Miscellaneous = "Miscellaneous"
	// UnknownShop is the sentinel shop name meaning "attach no shop".
	UnknownShop = "Unknown Shop"
	// UnknownItem names items the model returned without a name.
	UnknownItem = "Unknown Item"
)

var defaultCategories = []string{
	"Groceries",
	"Electronics",
	"Clothing",
	"Restaurant",
	"Household",
	Miscellaneous,
}

// DefaultCategories returns the seed taxonomy, used for prompts when the store is empty.
func DefaultCategories() []string {
	out := make([]string, len(defaultCategories))
	copy(out, defaultCategories)
	return out
}

// CategoryKey is the case-insensitive matching key for a category name.
func CategoryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// IsUnknownShop reports whether name means no shop should be attached.
func IsUnknownShop(name string) bool {
	n := strings.TrimSpace(name)
	return n == "" || n == UnknownShop
}

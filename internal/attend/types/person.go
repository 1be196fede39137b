package types

// Category classifies a tracked person. Persons without a configured
// profile default to visitor.
type Category string

const (
	CategoryEmployee Category = "employee"
	CategoryVisitor  Category = "visitor"
	CategoryInmate   Category = "inmate"
	CategoryExternal Category = "external"
)

// ParseCategory maps free-form profile input to a known category,
// falling back to visitor for anything unrecognized.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryEmployee, CategoryVisitor, CategoryInmate, CategoryExternal:
		return Category(s)
	default:
		return CategoryVisitor
	}
}

// Overstayable reports whether the category is subject to overstay
// monitoring.
func (c Category) Overstayable() bool {
	return c == CategoryVisitor || c == CategoryInmate
}

// PersonState is the live status of one tracked person. One entry per
// person ever seen. LastActivity uses TimeLayout. Alert is cleared only
// by a check-out (device or manual), never by the passage of time.
type PersonState struct {
	PersonID     string   `json:"person_id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	LastMode     Mode     `json:"last_mode"`
	LastActivity string   `json:"last_activity"`
	Alert        bool     `json:"alert"`
}

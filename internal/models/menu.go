package models

import "time"

// DailyMenu holds the meal options offered for one calendar date.
// There is at most one menu per date. Up to three meals may be defined;
// empty slots are stored as empty strings. IsCanceled marks an emergency
// closure: the menu stays visible but no reservation is admitted for it.
type DailyMenu struct {
	ID         int64     // Unique identifier for the menu
	Date       time.Time // Calendar date the menu is served on, unique
	Meal1      string    // First meal option, empty if not defined
	Meal2      string    // Second meal option, empty if not defined
	Meal3      string    // Third meal option, empty if not defined
	IsCanceled bool      // IsCanceled marks an emergency closure for this date
	CreatedAt  time.Time // Timestamp of when the menu record was created
}

// Options returns the defined meal names in their menu order,
// skipping empty slots.
func (m DailyMenu) Options() []string {
	options := make([]string, 0, 3)
	for _, meal := range []string{m.Meal1, m.Meal2, m.Meal3} {
		if meal != "" {
			options = append(options, meal)
		}
	}
	return options
}

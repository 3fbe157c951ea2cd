package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/aryanahadi/canteen-bot/internal/models"
	"github.com/jackc/pgx/v5"
)

// MenuByDate retrieves the daily menu for the given calendar date. It
// returns ledger.ErrMenuNotFound when no menu has been published for it.
func (r *Repository) MenuByDate(ctx context.Context, date time.Time) (models.DailyMenu, error) {
	var menu models.DailyMenu
	err := r.db.QueryRow(
		ctx,
		`SELECT id, menu_date, meal_1, meal_2, meal_3, is_canceled, created_at
		 FROM daily_menus WHERE menu_date = $1`,
		date,
	).Scan(&menu.ID, &menu.Date, &menu.Meal1, &menu.Meal2, &menu.Meal3, &menu.IsCanceled, &menu.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DailyMenu{}, ledger.ErrMenuNotFound
		}
		return models.DailyMenu{}, fmt.Errorf("failed to get menu for date: %w", err)
	}

	return menu, nil
}

// UpsertMenu creates or replaces the menu for the given date. Editing an
// existing menu keeps its identity and clears the cancellation flag, since
// publishing a new meal list supersedes a previous emergency closure.
func (r *Repository) UpsertMenu(
	ctx context.Context,
	date time.Time,
	meal1, meal2, meal3 string,
) (models.DailyMenu, error) {
	var menu models.DailyMenu
	err := r.db.QueryRow(
		ctx,
		`INSERT INTO daily_menus (menu_date, meal_1, meal_2, meal_3)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (menu_date) DO UPDATE
		 SET meal_1 = EXCLUDED.meal_1, meal_2 = EXCLUDED.meal_2, meal_3 = EXCLUDED.meal_3, is_canceled = FALSE
		 RETURNING id, menu_date, meal_1, meal_2, meal_3, is_canceled, created_at`,
		date, meal1, meal2, meal3,
	).Scan(&menu.ID, &menu.Date, &menu.Meal1, &menu.Meal2, &menu.Meal3, &menu.IsCanceled, &menu.CreatedAt)
	if err != nil {
		return models.DailyMenu{}, fmt.Errorf("failed to upsert menu: %w", err)
	}

	return menu, nil
}

// SetMenuCanceled toggles the emergency-closure flag on the menu for the
// given date. It returns ledger.ErrMenuNotFound when no menu exists for it.
func (r *Repository) SetMenuCanceled(ctx context.Context, date time.Time, canceled bool) error {
	cmdTag, err := r.db.Exec(
		ctx,
		"UPDATE daily_menus SET is_canceled = $1 WHERE menu_date = $2",
		canceled, date,
	)
	if err != nil {
		return fmt.Errorf("failed to set menu cancellation: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ledger.ErrMenuNotFound
	}

	return nil
}

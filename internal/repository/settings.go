package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aryanahadi/canteen-bot/internal/ledger"
	"github.com/jackc/pgx/v5"
)

// Keys of the runtime settings stored in the system_config table.
const (
	SettingStartHour = "RESERVATION_START_HOUR"
	SettingEndHour   = "RESERVATION_END_HOUR"
)

// Setting reads a string-keyed runtime setting. A missing key is not an
// error: the caller-supplied fallback is returned instead.
func (r *Repository) Setting(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := r.db.QueryRow(ctx, "SELECT value FROM system_config WHERE key = $1", key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fallback, nil
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}

	return value, nil
}

// SetSetting stores a runtime setting, inserting or overwriting the key.
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.Exec(
		ctx,
		`INSERT INTO system_config (key, value, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store setting %s: %w", key, err)
	}

	return nil
}

// AdmissionWindow assembles the configured reservation window. Missing keys
// fall back to the ledger defaults; a value that is present but not a
// number is an error rather than a silent fallback, since it means an
// administrator stored something broken. Callers read the window once per
// request and never cache it beyond that, so an administrator's change
// takes effect immediately.
func (r *Repository) AdmissionWindow(ctx context.Context) (ledger.Window, error) {
	win := ledger.DefaultWindow()

	start, err := r.settingHour(ctx, SettingStartHour, win.StartHour)
	if err != nil {
		return ledger.Window{}, err
	}
	end, err := r.settingHour(ctx, SettingEndHour, win.EndHour)
	if err != nil {
		return ledger.Window{}, err
	}

	return ledger.Window{StartHour: start, EndHour: end}, nil
}

// SetAdmissionWindow persists both window bounds.
func (r *Repository) SetAdmissionWindow(ctx context.Context, win ledger.Window) error {
	if err := r.SetSetting(ctx, SettingStartHour, strconv.Itoa(win.StartHour)); err != nil {
		return err
	}
	return r.SetSetting(ctx, SettingEndHour, strconv.Itoa(win.EndHour))
}

func (r *Repository) settingHour(ctx context.Context, key string, fallback int) (int, error) {
	raw, err := r.Setting(ctx, key, strconv.Itoa(fallback))
	if err != nil {
		return 0, err
	}

	hour, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("setting %s holds a non-numeric value %q: %w", key, raw, err)
	}

	return hour, nil
}

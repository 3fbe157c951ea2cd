package models

import "time"

// Employee represents a canteen employee record.
// The national id and phone number are immutable identity anchors set at
// creation time; the telegram id is back-filled on the employee's first
// contact with the bot and stays zero until then.
type Employee struct {
	ID         int64     // Unique identifier for the employee
	TelegramID int64     // Telegram chat identifier, zero until first contact
	NationalID string    // National identification number, unique
	Phone      string    // Phone number, unique
	FullName   string    // Full name of the employee
	IsAdmin    bool      // IsAdmin marks administrators of the canteen system
	CreatedAt  time.Time // Timestamp of when the employee record was created
}

package models

import "time"

// Reservation statuses. A reservation is never hard-deleted: cancellation
// and serving are modeled as status values so reporting on the final state
// stays correct regardless of how often an employee changed their mind.
const (
	StatusReserved = "reserved"
	StatusCanceled = "canceled"
	StatusServed   = "served"
)

// Reservation is the binding decision of one employee for one date.
// At most one active reservation exists per (employee, date) pair, enforced
// by a database unique constraint. A later valid selection for the same date
// overwrites the chosen meal in place and resets the status to reserved.
type Reservation struct {
	ID           int64     // Unique identifier for the reservation
	EmployeeID   int64     // Employee the reservation belongs to
	Date         time.Time // Calendar date the reservation is for
	SelectedMeal string    // Name of the chosen meal
	Status       string    // One of StatusReserved, StatusCanceled, StatusServed
	Attempts     int       // Submission counter kept for abuse reporting
	CreatedAt    time.Time // Timestamp of the first successful reservation
	UpdatedAt    time.Time // Timestamp of the last change
}

// ReservationDetail is a reservation joined with its employee identity,
// used for the administrative daily report.
type ReservationDetail struct {
	ID           int64     // Unique identifier for the reservation
	FullName     string    // Full name of the employee
	NationalID   string    // National identification number of the employee
	Phone        string    // Phone number of the employee
	SelectedMeal string    // Name of the chosen meal
	Status       string    // Final reservation status
	UpdatedAt    time.Time // Timestamp of the last change
}

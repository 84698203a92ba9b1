// Package model defines the core domain types for the parking system.
package model

import (
	"strings"
	"time"
)

// User is an account that owns vehicles, slot requests and parking sessions.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	PlateNumber  *string   `json:"plate_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Vehicle is a vehicle declared by its owner.
type Vehicle struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	PlateNumber string         `json:"plate_number"`
	VehicleType VehicleType    `json:"vehicle_type"`
	Size        VehicleSize    `json:"size"`
	Attributes  map[string]any `json:"attributes"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ParkingSlot is a physical slot in the inventory.
type ParkingSlot struct {
	ID          string      `json:"id"`
	SlotNumber  string      `json:"slot_number"`
	Size        VehicleSize `json:"size"`
	VehicleType VehicleType `json:"vehicle_type"`
	Location    Location    `json:"location"`
	Status      SlotStatus  `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Fits reports whether v may be bound to the slot. Type and size are compared
// case-insensitively; availability is checked separately.
func (s *ParkingSlot) Fits(v *Vehicle) bool {
	return strings.EqualFold(string(s.VehicleType), string(v.VehicleType)) &&
		strings.EqualFold(string(s.Size), string(v.Size))
}

// SlotRequest is a user's ask to bind one of their vehicles to a slot.
type SlotRequest struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	VehicleID     string        `json:"vehicle_id"`
	SlotID        *string       `json:"slot_id"`
	RequestStatus RequestStatus `json:"request_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	Vehicle *Vehicle     `json:"vehicle,omitempty"`
	Slot    *ParkingSlot `json:"slot,omitempty"`
}

// EditableBy reports whether userID may still change or withdraw the request.
func (r *SlotRequest) EditableBy(userID string) bool {
	return r != nil && r.UserID == userID && r.RequestStatus == RequestPending
}

// ParkingRecord is one parking session at the gate.
type ParkingRecord struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	CarNumber  string     `json:"car_number"`
	SlotNumber int        `json:"slot_number"`
	EntryTime  time.Time  `json:"entry_time"`
	ExitTime   *time.Time `json:"exit_time"`

	// Owner display fields, filled by joined queries only.
	Username    string  `json:"username,omitempty"`
	PlateNumber *string `json:"plate_number,omitempty"`
}

// IsOpen reports whether the session has not been closed yet.
func (p *ParkingRecord) IsOpen() bool {
	return p.ExitTime == nil
}

// ExitResult is a closed session together with the amount billed for it.
type ExitResult struct {
	ParkingRecord
	Amount    int64  `json:"amount"`
	PaymentID string `json:"payment_id"`
}

// Payment is the bill for one closed session.
type Payment struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	ParkingID   string        `json:"parking_id"`
	Amount      int64         `json:"amount"`
	Status      PaymentStatus `json:"status"`
	PaymentTime *time.Time    `json:"payment_time"`
	CreatedAt   time.Time     `json:"created_at"`

	// Joined display fields.
	Username   string `json:"username,omitempty"`
	CarNumber  string `json:"car_number,omitempty"`
	SlotNumber int    `json:"slot_number,omitempty"`
}

// Log is one audit trail entry.
type Log struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

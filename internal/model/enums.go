package model

// Role is the authorization role carried in tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// VehicleType classifies vehicles and the slots that accept them.
type VehicleType string

const (
	VehicleCar        VehicleType = "car"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleTruck      VehicleType = "truck"
)

// VehicleSize classifies vehicles and the slots that accept them.
type VehicleSize string

const (
	SizeSmall  VehicleSize = "small"
	SizeMedium VehicleSize = "medium"
	SizeLarge  VehicleSize = "large"
)

// Location is the lot section a slot belongs to.
type Location string

const (
	LocationNorth Location = "north"
	LocationWest  Location = "west"
	LocationEast  Location = "east"
	LocationSouth Location = "south"
)

// SlotStatus tracks whether a slot can still be granted.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotUnavailable SlotStatus = "unavailable"
)

// RequestStatus is the state of a slot request. Approved and rejected are
// terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsDecision reports whether s is a valid admin decision.
func (s RequestStatus) IsDecision() bool {
	return s == RequestApproved || s == RequestRejected
}

// PaymentStatus tracks settlement of a payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

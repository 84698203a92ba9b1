package model

// RegisterUserRequest is the payload for POST /auth/register.
type RegisterUserRequest struct {
	Username    string  `json:"username" validate:"required,min=3,max=50"`
	Password    string  `json:"password" validate:"required,min=6,max=72"`
	Role        Role    `json:"role" validate:"omitempty,oneof=user admin"`
	Email       string  `json:"email" validate:"omitempty,email"`
	PlateNumber *string `json:"plate_number" validate:"omitempty,min=1,max=20"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UpdateProfileRequest is the payload for PUT /users/profile.
type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=50"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Password    *string `json:"password" validate:"omitempty,min=6,max=72"`
	PlateNumber *string `json:"plate_number" validate:"omitempty,min=1,max=20"`
}

// CreateVehicleRequest is the payload for POST /vehicles.
type CreateVehicleRequest struct {
	PlateNumber string         `json:"plate_number" validate:"required,max=20"`
	VehicleType VehicleType    `json:"vehicle_type" validate:"required,oneof=car motorcycle truck"`
	Size        VehicleSize    `json:"size" validate:"required,oneof=small medium large"`
	Attributes  map[string]any `json:"attributes"`
}

// UpdateVehicleRequest is the payload for PUT /vehicles/{id}. Nil fields are
// left unchanged.
type UpdateVehicleRequest struct {
	PlateNumber *string        `json:"plate_number" validate:"omitempty,min=1,max=20"`
	VehicleType *VehicleType   `json:"vehicle_type" validate:"omitempty,oneof=car motorcycle truck"`
	Size        *VehicleSize   `json:"size" validate:"omitempty,oneof=small medium large"`
	Attributes  map[string]any `json:"attributes"`
}

// SlotInput describes one slot in a bulk import.
type SlotInput struct {
	SlotNumber  string      `json:"slot_number" validate:"required,max=50"`
	Size        VehicleSize `json:"size" validate:"required,oneof=small medium large"`
	VehicleType VehicleType `json:"vehicle_type" validate:"required,oneof=car motorcycle truck"`
	Location    Location    `json:"location" validate:"required,oneof=north west east south"`
}

// BulkCreateSlotsRequest is the payload for POST /slots/bulk.
type BulkCreateSlotsRequest struct {
	Slots []SlotInput `json:"slots" validate:"required,min=1,max=500,dive"`
}

// UpdateSlotRequest is the payload for PUT /slots/{id}. Status is not
// editable here; it only moves through request approval.
type UpdateSlotRequest struct {
	SlotNumber  *string      `json:"slot_number" validate:"omitempty,min=1,max=50"`
	Size        *VehicleSize `json:"size" validate:"omitempty,oneof=small medium large"`
	VehicleType *VehicleType `json:"vehicle_type" validate:"omitempty,oneof=car motorcycle truck"`
	Location    *Location    `json:"location" validate:"omitempty,oneof=north west east south"`
}

// CreateSlotRequestRequest is the payload for POST /requests.
type CreateSlotRequestRequest struct {
	VehicleID string `json:"vehicle_id" validate:"required,uuid"`
}

// UpdateSlotRequestRequest is the payload for PUT /requests/{id}.
type UpdateSlotRequestRequest struct {
	VehicleID *string `json:"vehicle_id" validate:"omitempty,uuid"`
}

// DecideRequest is the payload for PUT /requests/{id}/status.
type DecideRequest struct {
	RequestStatus RequestStatus `json:"request_status" validate:"required,oneof=approved rejected"`
	SlotID        *string       `json:"slot_id" validate:"omitempty,uuid"`
}

// EntryRequest is the payload for POST /parking/entry.
type EntryRequest struct {
	CarNumber string `json:"car_number" validate:"required,max=20"`
}

// ExitRequest is the payload for POST /parking/exit.
type ExitRequest struct {
	CarNumber string `json:"car_number" validate:"required,max=20"`
}

// PayRequest is the payload for POST /payments/pay.
type PayRequest struct {
	PaymentID string `json:"payment_id" validate:"required,uuid"`
}

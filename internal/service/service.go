// Package service implements business rules, authorization, and orchestration
// between HTTP handlers and the repository layer.
//
// Every operation that acts on behalf of a caller takes an Actor and checks
// its role before touching the store.
package service

import (
	"context"
	"slices"
	"time"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   string
	Username string
	Role     model.Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == model.RoleAdmin }

// requireRole fails with Auth when the actor is anonymous and with Forbidden
// when its role is not one of roles.
func requireRole(a Actor, roles ...model.Role) error {
	if a.UserID == "" {
		return apperr.Authf("authentication required")
	}
	if !slices.Contains(roles, a.Role) {
		return apperr.Forbiddenf("insufficient permissions")
	}
	return nil
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// Stores consumed by the services. The repository package provides the
// PostgreSQL implementations.

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	FindOwnersByPlate(ctx context.Context, plate string) ([]string, error)
	Update(ctx context.Context, u *model.User) error
	List(ctx context.Context, p model.PageRequest) ([]model.User, int, error)
}

type VehicleStore interface {
	Create(ctx context.Context, v *model.Vehicle) error
	GetByID(ctx context.Context, id, userID string) (*model.Vehicle, error)
	Update(ctx context.Context, v *model.Vehicle) error
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, userID string, p model.PageRequest) ([]model.Vehicle, int, error)
}

type SlotStore interface {
	BulkCreate(ctx context.Context, slots []model.ParkingSlot) error
	GetByID(ctx context.Context, id string) (*model.ParkingSlot, error)
	Update(ctx context.Context, s *model.ParkingSlot) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, p model.PageRequest, onlyAvailable bool) ([]model.ParkingSlot, int, error)
}

type RequestStore interface {
	Create(ctx context.Context, req *model.SlotRequest) error
	GetByID(ctx context.Context, id string) (*model.SlotRequest, error)
	List(ctx context.Context, f repository.RequestFilter, p model.PageRequest) ([]model.SlotRequest, int, error)
	UpdateVehicle(ctx context.Context, id, userID, vehicleID string) error
	Delete(ctx context.Context, id, userID string) error
	Decide(ctx context.Context, id string, status model.RequestStatus, slotID string) (*model.SlotRequest, error)
}

type ParkingStore interface {
	OccupiedSlots(ctx context.Context) ([]int, error)
	Open(ctx context.Context, p *model.ParkingRecord) error
	Close(ctx context.Context, carNumber string, at time.Time, rate int64) (*model.ExitResult, error)
	ListOpen(ctx context.Context) ([]model.ParkingRecord, error)
	History(ctx context.Context, userID string, p model.PageRequest) ([]model.ParkingRecord, int, error)
}

type PaymentStore interface {
	CountPending(ctx context.Context, userID string) (int, error)
	ListPending(ctx context.Context, userID string) ([]model.Payment, error)
	ListAll(ctx context.Context) ([]model.Payment, error)
	Complete(ctx context.Context, id, userID string, at time.Time) (*model.Payment, error)
}

type LogStore interface {
	Create(ctx context.Context, l *model.Log) error
	List(ctx context.Context, p model.PageRequest) ([]model.Log, int, error)
}

// Auditor records audit trail entries. Implementations must not fail the
// caller; see AuditService.
type Auditor interface {
	Record(ctx context.Context, actorID, action string)
}

// Notifier delivers user notifications. SlotApproved must return without
// waiting for delivery.
type Notifier interface {
	SlotApproved(user model.User, req model.SlotRequest)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/metrics"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

// maxSlotAttempts bounds retries when concurrent entries race for the same
// slot number.
const maxSlotAttempts = 5

// ParkingService operates the gate: entries, exits and billing.
type ParkingService struct {
	users      UserStore
	parking    ParkingStore
	payments   PaymentStore
	audit      Auditor
	rate       int64
	totalSlots int
	now        Clock
	intn       func(n int) int
}

func NewParkingService(
	users UserStore,
	parking ParkingStore,
	payments PaymentStore,
	audit Auditor,
	hourlyRate int64,
	totalSlots int,
) *ParkingService {
	return &ParkingService{
		users:      users,
		parking:    parking,
		payments:   payments,
		audit:      audit,
		rate:       hourlyRate,
		totalSlots: totalSlots,
		now:        systemClock,
		intn:       rand.IntN,
	}
}

// RegisterEntry opens a session for the car's owner on a random free slot
// number in 1..totalSlots. The owner is found by plate; owners with unpaid
// payments are turned away.
func (s *ParkingService) RegisterEntry(ctx context.Context, a Actor, carNumber string) (*model.ParkingRecord, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	plate := normalizePlate(carNumber)
	if plate == "" {
		return nil, apperr.Invalid(map[string]string{"car_number": "required"})
	}

	owners, err := s.users.FindOwnersByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	switch len(owners) {
	case 0:
		return nil, apperr.Validationf("no user associated with this car number")
	case 1:
	default:
		return nil, apperr.Validationf("car number is registered to more than one user")
	}
	ownerID := owners[0]

	pending, err := s.payments.CountPending(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, apperr.Forbiddenf("user has unpaid dues")
	}

	for range maxSlotAttempts {
		slot, err := s.pickFreeSlot(ctx)
		if err != nil {
			return nil, err
		}
		rec := &model.ParkingRecord{
			UserID:     ownerID,
			CarNumber:  plate,
			SlotNumber: slot,
			EntryTime:  s.now(),
		}
		err = s.parking.Open(ctx, rec)
		if errors.Is(err, repository.ErrSlotTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		metrics.SessionEntered()
		s.audit.Record(ctx, a.UserID, fmt.Sprintf("Car %s entered, slot %d", plate, slot))
		return rec, nil
	}
	return nil, apperr.Conflictf("could not allocate a parking slot, please retry")
}

// pickFreeSlot returns a uniformly random slot number not held by an open
// session.
func (s *ParkingService) pickFreeSlot(ctx context.Context) (int, error) {
	occupied, err := s.parking.OccupiedSlots(ctx)
	if err != nil {
		return 0, err
	}
	taken := make(map[int]bool, len(occupied))
	for _, n := range occupied {
		taken[n] = true
	}
	free := make([]int, 0, s.totalSlots-len(taken))
	for n := 1; n <= s.totalSlots; n++ {
		if !taken[n] {
			free = append(free, n)
		}
	}
	if len(free) == 0 {
		return 0, apperr.Validationf("no available parking slots")
	}
	return free[s.intn(len(free))], nil
}

// RegisterExit closes the car's open session and bills it.
func (s *ParkingService) RegisterExit(ctx context.Context, a Actor, carNumber string) (*model.ExitResult, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	plate := normalizePlate(carNumber)
	if plate == "" {
		return nil, apperr.Invalid(map[string]string{"car_number": "required"})
	}

	res, err := s.parking.Close(ctx, plate, s.now(), s.rate)
	if err != nil {
		return nil, err
	}
	metrics.SessionExited(res.Amount)
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Car %s exited, billed %d", plate, res.Amount))
	return res, nil
}

// CurrentlyParked lists open sessions with owner details. Admin only.
func (s *ParkingService) CurrentlyParked(ctx context.Context, a Actor) ([]model.ParkingRecord, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	return nonNil(s.parking.ListOpen(ctx))
}

// History returns a page of sessions: the caller's own, or everyone's for
// admins.
func (s *ParkingService) History(ctx context.Context, a Actor, p model.PageRequest) (model.Page[model.ParkingRecord], error) {
	if err := requireRole(a, model.RoleUser, model.RoleAdmin); err != nil {
		return model.Page[model.ParkingRecord]{}, err
	}
	userID := a.UserID
	if a.IsAdmin() {
		userID = ""
	}
	p = p.Normalize()
	records, total, err := s.parking.History(ctx, userID, p)
	if err != nil {
		return model.Page[model.ParkingRecord]{}, err
	}
	return model.NewPage(records, total, p), nil
}

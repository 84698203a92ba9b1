package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

// SlotService manages the slot inventory.
type SlotService struct {
	slots SlotStore
	audit Auditor
}

func NewSlotService(slots SlotStore, audit Auditor) *SlotService {
	return &SlotService{slots: slots, audit: audit}
}

// BulkCreate inserts every slot or none. Duplicate numbers inside the batch
// are rejected before reaching the store.
func (s *SlotService) BulkCreate(ctx context.Context, a Actor, in []model.SlotInput) ([]model.ParkingSlot, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, apperr.Invalid(map[string]string{"slots": "at least one slot is required"})
	}

	seen := make(map[string]bool, len(in))
	slots := make([]model.ParkingSlot, 0, len(in))
	for i, si := range in {
		num := strings.TrimSpace(si.SlotNumber)
		if num == "" {
			return nil, apperr.Invalid(map[string]string{fmt.Sprintf("slots[%d].slot_number", i): "required"})
		}
		if seen[num] {
			return nil, apperr.Validationf("duplicate slot number %q in request", num)
		}
		seen[num] = true
		slots = append(slots, model.ParkingSlot{
			SlotNumber:  num,
			Size:        si.Size,
			VehicleType: si.VehicleType,
			Location:    si.Location,
			Status:      model.SlotAvailable,
		})
	}

	if err := s.slots.BulkCreate(ctx, slots); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Bulk created %d parking slots", len(slots)))
	return slots, nil
}

// List returns a page of slots. Only admins see slots that are already
// granted.
func (s *SlotService) List(ctx context.Context, a Actor, p model.PageRequest) (model.Page[model.ParkingSlot], error) {
	if err := requireRole(a, model.RoleUser, model.RoleAdmin); err != nil {
		return model.Page[model.ParkingSlot]{}, err
	}
	p = p.Normalize()
	slots, total, err := s.slots.List(ctx, p, !a.IsAdmin())
	if err != nil {
		return model.Page[model.ParkingSlot]{}, err
	}
	return model.NewPage(slots, total, p), nil
}

// Update applies the non-nil fields of req. Status only changes through
// request approval.
func (s *SlotService) Update(ctx context.Context, a Actor, id string, req model.UpdateSlotRequest) (*model.ParkingSlot, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if slot.Status == model.SlotUnavailable && changesMatching(slot, req) {
		return nil, repository.ErrSlotBound
	}

	if req.SlotNumber != nil {
		num := strings.TrimSpace(*req.SlotNumber)
		if num == "" {
			return nil, apperr.Invalid(map[string]string{"slot_number": "must not be empty"})
		}
		slot.SlotNumber = num
	}
	if req.Size != nil {
		slot.Size = *req.Size
	}
	if req.VehicleType != nil {
		slot.VehicleType = *req.VehicleType
	}
	if req.Location != nil {
		slot.Location = *req.Location
	}

	if err := s.slots.Update(ctx, slot); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Parking slot updated: %s", slot.SlotNumber))
	return slot, nil
}

func changesMatching(slot *model.ParkingSlot, req model.UpdateSlotRequest) bool {
	return (req.Size != nil && !strings.EqualFold(string(*req.Size), string(slot.Size))) ||
		(req.VehicleType != nil && !strings.EqualFold(string(*req.VehicleType), string(slot.VehicleType)))
}

func (s *SlotService) Delete(ctx context.Context, a Actor, id string) error {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return err
	}
	if err := s.slots.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Parking slot deleted: %s", id))
	return nil
}

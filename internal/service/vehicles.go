package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// VehicleService manages a user's own vehicles. Vehicles of other users are
// invisible: every lookup is scoped to the caller and misses are NotFound.
type VehicleService struct {
	vehicles VehicleStore
	audit    Auditor
}

func NewVehicleService(vehicles VehicleStore, audit Auditor) *VehicleService {
	return &VehicleService{vehicles: vehicles, audit: audit}
}

func (s *VehicleService) Create(ctx context.Context, a Actor, req model.CreateVehicleRequest) (*model.Vehicle, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}
	plate := normalizePlate(req.PlateNumber)
	if plate == "" {
		return nil, apperr.Invalid(map[string]string{"plate_number": "required"})
	}

	v := &model.Vehicle{
		UserID:      a.UserID,
		PlateNumber: plate,
		VehicleType: req.VehicleType,
		Size:        req.Size,
		Attributes:  req.Attributes,
	}
	if err := s.vehicles.Create(ctx, v); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Vehicle created: %s", v.PlateNumber))
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, a Actor, id string) (*model.Vehicle, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}
	return s.vehicles.GetByID(ctx, id, a.UserID)
}

// Update applies the non-nil fields of req.
func (s *VehicleService) Update(ctx context.Context, a Actor, id string, req model.UpdateVehicleRequest) (*model.Vehicle, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}
	v, err := s.vehicles.GetByID(ctx, id, a.UserID)
	if err != nil {
		return nil, err
	}

	if req.PlateNumber != nil {
		plate := normalizePlate(*req.PlateNumber)
		if plate == "" {
			return nil, apperr.Invalid(map[string]string{"plate_number": "must not be empty"})
		}
		v.PlateNumber = plate
	}
	if req.VehicleType != nil {
		v.VehicleType = *req.VehicleType
	}
	if req.Size != nil {
		v.Size = *req.Size
	}
	if req.Attributes != nil {
		v.Attributes = req.Attributes
	}

	if err := s.vehicles.Update(ctx, v); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Vehicle updated: %s", v.PlateNumber))
	return v, nil
}

func (s *VehicleService) Delete(ctx context.Context, a Actor, id string) error {
	if err := requireRole(a, model.RoleUser); err != nil {
		return err
	}
	if err := s.vehicles.Delete(ctx, id, a.UserID); err != nil {
		return err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Vehicle deleted: %s", id))
	return nil
}

// List returns a page of the caller's vehicles.
func (s *VehicleService) List(ctx context.Context, a Actor, p model.PageRequest) (model.Page[model.Vehicle], error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return model.Page[model.Vehicle]{}, err
	}
	p = p.Normalize()
	vehicles, total, err := s.vehicles.List(ctx, a.UserID, p)
	if err != nil {
		return model.Page[model.Vehicle]{}, err
	}
	return model.NewPage(vehicles, total, p), nil
}

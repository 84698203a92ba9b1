package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/metrics"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
	"github.com/Shivanand-hulikatti/parking-management/internal/repository"
)

// RequestService runs the slot request workflow: users file requests for
// their vehicles and admins approve them against a slot or reject them.
type RequestService struct {
	requests RequestStore
	vehicles VehicleStore
	users    UserStore
	audit    Auditor
	notifier Notifier
	log      logrus.FieldLogger
}

func NewRequestService(
	requests RequestStore,
	vehicles VehicleStore,
	users UserStore,
	audit Auditor,
	notifier Notifier,
	log logrus.FieldLogger,
) *RequestService {
	return &RequestService{
		requests: requests,
		vehicles: vehicles,
		users:    users,
		audit:    audit,
		notifier: notifier,
		log:      log,
	}
}

// Create files a pending request for one of the caller's vehicles.
func (s *RequestService) Create(ctx context.Context, a Actor, req model.CreateSlotRequestRequest) (*model.SlotRequest, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}
	v, err := s.vehicles.GetByID(ctx, req.VehicleID, a.UserID)
	if err != nil {
		return nil, err
	}

	sr := &model.SlotRequest{UserID: a.UserID, VehicleID: v.ID}
	if err := s.requests.Create(ctx, sr); err != nil {
		return nil, err
	}
	sr.Vehicle = v
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Slot request created for vehicle %s", v.PlateNumber))
	return sr, nil
}

// Update changes the vehicle of a pending request owned by the caller.
// Missing, foreign and already decided requests all yield NotFound.
func (s *RequestService) Update(ctx context.Context, a Actor, id string, req model.UpdateSlotRequestRequest) (*model.SlotRequest, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}

	if req.VehicleID == nil {
		current, err := s.requests.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !current.EditableBy(a.UserID) {
			return nil, apperr.NotFoundf("slot request not found or not editable")
		}
		return current, nil
	}

	if _, err := s.vehicles.GetByID(ctx, *req.VehicleID, a.UserID); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateVehicle(ctx, id, a.UserID, *req.VehicleID); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Slot request updated: %s", id))
	return s.requests.GetByID(ctx, id)
}

// Delete withdraws a pending request owned by the caller.
func (s *RequestService) Delete(ctx context.Context, a Actor, id string) error {
	if err := requireRole(a, model.RoleUser); err != nil {
		return err
	}
	if err := s.requests.Delete(ctx, id, a.UserID); err != nil {
		return err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Slot request deleted: %s", id))
	return nil
}

// Decide approves or rejects a pending request. An approval binds slot_id,
// which must be available and match the vehicle's type and size. The owner
// is e-mailed after the decision is committed.
func (s *RequestService) Decide(ctx context.Context, a Actor, id string, req model.DecideRequest) (*model.SlotRequest, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	if !req.RequestStatus.IsDecision() {
		return nil, apperr.Invalid(map[string]string{"request_status": "must be approved or rejected"})
	}
	var slotID string
	if req.RequestStatus == model.RequestApproved {
		if req.SlotID == nil || *req.SlotID == "" {
			return nil, apperr.Invalid(map[string]string{"slot_id": "required when approving"})
		}
		slotID = *req.SlotID
	}

	sr, err := s.requests.Decide(ctx, id, req.RequestStatus, slotID)
	if err != nil {
		return nil, err
	}
	metrics.RequestDecided(string(sr.RequestStatus))

	if sr.RequestStatus == model.RequestApproved {
		s.audit.Record(ctx, a.UserID, fmt.Sprintf("Slot request approved: %s", sr.ID))
		s.notifyApproval(ctx, *sr)
	} else {
		s.audit.Record(ctx, a.UserID, fmt.Sprintf("Slot request rejected: %s", sr.ID))
	}
	return sr, nil
}

func (s *RequestService) notifyApproval(ctx context.Context, sr model.SlotRequest) {
	owner, err := s.users.GetByID(ctx, sr.UserID)
	if err != nil {
		s.log.WithError(err).WithField("request_id", sr.ID).Warn("approval notification skipped: owner lookup failed")
		return
	}
	s.notifier.SlotApproved(*owner, sr)
}

// List returns a page of requests. Admins see every request; users see only
// their own. status, when set, filters by request status.
func (s *RequestService) List(ctx context.Context, a Actor, status model.RequestStatus, p model.PageRequest) (model.Page[model.SlotRequest], error) {
	if err := requireRole(a, model.RoleUser, model.RoleAdmin); err != nil {
		return model.Page[model.SlotRequest]{}, err
	}
	switch status {
	case "", model.RequestPending, model.RequestApproved, model.RequestRejected:
	default:
		return model.Page[model.SlotRequest]{}, apperr.Invalid(map[string]string{"status": "must be pending, approved or rejected"})
	}

	f := repository.RequestFilter{Status: status}
	if !a.IsAdmin() {
		f.UserID = a.UserID
	}
	p = p.Normalize()
	reqs, total, err := s.requests.List(ctx, f, p)
	if err != nil {
		return model.Page[model.SlotRequest]{}, err
	}
	return model.NewPage(reqs, total, p), nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/database"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// requestSelect joins every request with its vehicle and, when bound, its slot.
const requestSelect = `
	SELECT r.id, r.user_id, r.vehicle_id, r.slot_id, r.request_status, r.created_at, r.updated_at,
	       v.id, v.user_id, v.plate_number, v.vehicle_type, v.size, v.attributes, v.created_at, v.updated_at,
	       s.id, s.slot_number, s.size, s.vehicle_type, s.location, s.status, s.created_at, s.updated_at
	FROM slot_requests r
	JOIN vehicles v ON v.id = r.vehicle_id
	LEFT JOIN parking_slots s ON s.id = r.slot_id`

// RequestRepository handles persistence for slot requests.
type RequestRepository struct {
	db *pgxpool.Pool
}

func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

func scanRequest(row scanner) (*model.SlotRequest, error) {
	var (
		req model.SlotRequest
		v   model.Vehicle
		// slot columns come from a LEFT JOIN
		sID, sNumber, sSize, sType, sLoc, sStatus *string
		sCreated, sUpdated                         *time.Time
	)
	err := row.Scan(
		&req.ID, &req.UserID, &req.VehicleID, &req.SlotID, &req.RequestStatus, &req.CreatedAt, &req.UpdatedAt,
		&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.Size, &v.Attributes, &v.CreatedAt, &v.UpdatedAt,
		&sID, &sNumber, &sSize, &sType, &sLoc, &sStatus, &sCreated, &sUpdated,
	)
	if err != nil {
		return nil, err
	}
	req.Vehicle = &v
	if sID != nil {
		req.Slot = &model.ParkingSlot{
			ID:          *sID,
			SlotNumber:  *sNumber,
			Size:        model.VehicleSize(*sSize),
			VehicleType: model.VehicleType(*sType),
			Location:    model.Location(*sLoc),
			Status:      model.SlotStatus(*sStatus),
			CreatedAt:   *sCreated,
			UpdatedAt:   *sUpdated,
		}
	}
	return &req, nil
}

// Create inserts a pending request without a slot.
func (r *RequestRepository) Create(ctx context.Context, req *model.SlotRequest) error {
	now := time.Now().UTC()
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.RequestStatus = model.RequestPending
	req.SlotID = nil
	req.CreatedAt, req.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO slot_requests (id, user_id, vehicle_id, slot_id, request_status, created_at, updated_at)
		 VALUES ($1, $2, $3, NULL, $4, $5, $6)`,
		req.ID, req.UserID, req.VehicleID, req.RequestStatus, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return translateWrite(err, "insert slot request")
	}
	return nil
}

// GetByID returns a request with its vehicle and slot.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*model.SlotRequest, error) {
	req, err := scanRequest(r.db.QueryRow(ctx, requestSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, notFound(err, "slot request not found", "get slot request")
	}
	return req, nil
}

// RequestFilter narrows List. An empty UserID lists every user's requests.
type RequestFilter struct {
	UserID string
	Status model.RequestStatus
}

// List returns a page of requests, newest first.
func (r *RequestRepository) List(ctx context.Context, f RequestFilter, p model.PageRequest) ([]model.SlotRequest, int, error) {
	var c conditions
	if f.UserID != "" {
		c.add(`r.user_id = $%d`, f.UserID)
	}
	if f.Status != "" {
		c.add(`r.request_status = $%d`, f.Status)
	}
	if p.Search != "" {
		c.add(`v.plate_number ILIKE '%%' || $%d || '%%'`, p.Search)
	}

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM slot_requests r JOIN vehicles v ON v.id = r.vehicle_id`+c.where(),
		c.args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count slot requests: %w", err)
	}

	suffix, args := c.page(p.Limit, p.Offset())
	rows, err := r.db.Query(ctx, requestSelect+c.where()+` ORDER BY r.created_at DESC, r.id`+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list slot requests: %w", err)
	}
	defer rows.Close()

	var reqs []model.SlotRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan slot request: %w", err)
		}
		reqs = append(reqs, *req)
	}
	return reqs, total, rows.Err()
}

// UpdateVehicle swaps the vehicle of a request. The request must exist, belong
// to userID and still be pending; any miss is a single NotFound.
func (r *RequestRepository) UpdateVehicle(ctx context.Context, id, userID, vehicleID string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE slot_requests SET vehicle_id = $3, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND request_status = 'pending'`,
		id, userID, vehicleID,
	)
	if err != nil {
		return translateWrite(err, "update slot request")
	}
	if tag.RowsAffected() == 0 {
		return notFound(errNoRows, "slot request not found or not editable", "update slot request")
	}
	return nil
}

// Delete removes a request under the same guard as UpdateVehicle.
func (r *RequestRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM slot_requests WHERE id = $1 AND user_id = $2 AND request_status = 'pending'`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("delete slot request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(errNoRows, "slot request not found or not editable", "delete slot request")
	}
	return nil
}

// Decide applies an admin decision to a pending request. For approvals the
// slot must be available and match the vehicle; it is then bound to the
// request and marked unavailable. The request, its vehicle and the slot are
// locked in that order so concurrent decisions and vehicle edits serialise.
func (r *RequestRepository) Decide(ctx context.Context, id string, status model.RequestStatus, slotID string) (*model.SlotRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		current model.RequestStatus
		vehicle model.Vehicle
	)
	err = tx.QueryRow(ctx,
		`SELECT r.request_status, v.vehicle_type, v.size
		 FROM slot_requests r JOIN vehicles v ON v.id = r.vehicle_id
		 WHERE r.id = $1
		 FOR UPDATE OF r, v`,
		id,
	).Scan(&current, &vehicle.VehicleType, &vehicle.Size)
	if err != nil {
		return nil, notFound(err, "slot request not found", "lock slot request")
	}
	if current != model.RequestPending {
		return nil, apperr.Conflictf("request already processed")
	}

	if status == model.RequestApproved {
		slot, err := scanSlot(tx.QueryRow(ctx,
			`SELECT `+slotColumns+` FROM parking_slots WHERE id = $1 FOR UPDATE`, slotID))
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Validationf("invalid or unavailable slot")
		}
		if err != nil {
			return nil, fmt.Errorf("lock slot: %w", err)
		}
		if slot.Status != model.SlotAvailable || !slot.Fits(&vehicle) {
			return nil, apperr.Validationf("invalid or unavailable slot")
		}

		if _, err := tx.Exec(ctx,
			`UPDATE parking_slots SET status = $2, updated_at = NOW() WHERE id = $1`,
			slotID, model.SlotUnavailable,
		); err != nil {
			return nil, fmt.Errorf("reserve slot: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE slot_requests SET slot_id = $2, request_status = $3, updated_at = NOW() WHERE id = $1`,
			id, slotID, model.RequestApproved,
		); err != nil {
			if _, ok := database.UniqueViolation(err); ok {
				return nil, apperr.Wrap(apperr.Conflict, "slot already granted", err)
			}
			return nil, fmt.Errorf("approve slot request: %w", err)
		}
	} else {
		if _, err := tx.Exec(ctx,
			`UPDATE slot_requests SET request_status = $2, updated_at = NOW() WHERE id = $1`,
			id, status,
		); err != nil {
			return nil, fmt.Errorf("reject slot request: %w", err)
		}
	}

	req, err := scanRequest(tx.QueryRow(ctx, requestSelect+` WHERE r.id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("reload slot request: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return req, nil
}

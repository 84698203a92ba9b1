package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

const vehicleColumns = `id, user_id, plate_number, vehicle_type, size, attributes, created_at, updated_at`

// VehicleRepository handles persistence for vehicles.
type VehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{db: db}
}

func scanVehicle(row scanner) (*model.Vehicle, error) {
	var v model.Vehicle
	if err := row.Scan(&v.ID, &v.UserID, &v.PlateNumber, &v.VehicleType, &v.Size,
		&v.Attributes, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if v.Attributes == nil {
		v.Attributes = map[string]any{}
	}
	return &v, nil
}

func (r *VehicleRepository) Create(ctx context.Context, v *model.Vehicle) error {
	now := time.Now().UTC()
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Attributes == nil {
		v.Attributes = map[string]any{}
	}
	v.CreatedAt, v.UpdatedAt = now, now

	_, err := r.db.Exec(ctx,
		`INSERT INTO vehicles (`+vehicleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.UserID, v.PlateNumber, v.VehicleType, v.Size, v.Attributes, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return translateWrite(err, "insert vehicle")
	}
	return nil
}

// GetByID returns a vehicle owned by userID. A vehicle owned by someone else
// is reported as NotFound so ownership is never disclosed.
func (r *VehicleRepository) GetByID(ctx context.Context, id, userID string) (*model.Vehicle, error) {
	v, err := scanVehicle(r.db.QueryRow(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, notFound(err, "vehicle not found", "get vehicle")
	}
	return v, nil
}

// ErrVehicleBound rejects type or size changes on a vehicle whose request was
// approved; the granted slot was matched against the old values.
var ErrVehicleBound = apperr.Conflictf("vehicle is bound to an approved request, its type and size cannot change")

// Update writes all mutable fields of v, scoped to its owner. The vehicle row
// is locked first, the same row Decide locks, so the approval check below
// sees any decision that committed while we waited.
func (r *VehicleRepository) Update(ctx context.Context, v *model.Vehicle) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var cur model.Vehicle
	err = tx.QueryRow(ctx,
		`SELECT vehicle_type, size FROM vehicles WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		v.ID, v.UserID,
	).Scan(&cur.VehicleType, &cur.Size)
	if err != nil {
		return notFound(err, "vehicle not found", "lock vehicle")
	}

	if !strings.EqualFold(string(cur.VehicleType), string(v.VehicleType)) ||
		!strings.EqualFold(string(cur.Size), string(v.Size)) {
		var bound bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM slot_requests WHERE vehicle_id = $1 AND request_status = $2)`,
			v.ID, model.RequestApproved,
		).Scan(&bound)
		if err != nil {
			return fmt.Errorf("check vehicle approvals: %w", err)
		}
		if bound {
			return ErrVehicleBound
		}
	}

	v.UpdatedAt = time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE vehicles SET plate_number = $3, vehicle_type = $4, size = $5, attributes = $6, updated_at = $7
		 WHERE id = $1 AND user_id = $2`,
		v.ID, v.UserID, v.PlateNumber, v.VehicleType, v.Size, v.Attributes, v.UpdatedAt,
	); err != nil {
		return translateWrite(err, "update vehicle")
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete removes a vehicle owned by userID. Vehicles still referenced by a
// slot request yield a Conflict.
func (r *VehicleRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vehicles WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return translateWrite(err, "delete vehicle")
	}
	if tag.RowsAffected() == 0 {
		return notFound(errNoRows, "vehicle not found", "delete vehicle")
	}
	return nil
}

// List returns a page of userID's vehicles filtered by plate or type.
func (r *VehicleRepository) List(ctx context.Context, userID string, p model.PageRequest) ([]model.Vehicle, int, error) {
	var c conditions
	c.add(`user_id = $%d`, userID)
	if p.Search != "" {
		c.add(`(plate_number ILIKE '%%' || $%[1]d || '%%' OR vehicle_type ILIKE '%%' || $%[1]d || '%%')`, p.Search)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vehicles: %w", err)
	}

	suffix, args := c.page(p.Limit, p.Offset())
	rows, err := r.db.Query(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles`+c.where()+` ORDER BY created_at DESC, id`+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []model.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, *v)
	}
	return vehicles, total, rows.Err()
}

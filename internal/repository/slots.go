package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

const slotColumns = `id, slot_number, size, vehicle_type, location, status, created_at, updated_at`

// SlotRepository handles persistence for the slot inventory.
type SlotRepository struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{db: db}
}

func scanSlot(row scanner) (*model.ParkingSlot, error) {
	var s model.ParkingSlot
	if err := row.Scan(&s.ID, &s.SlotNumber, &s.Size, &s.VehicleType, &s.Location,
		&s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// BulkCreate inserts all slots in one transaction. Either every slot is
// created or none is.
func (r *SlotRepository) BulkCreate(ctx context.Context, slots []model.ParkingSlot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for i := range slots {
		s := &slots[i]
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if s.Status == "" {
			s.Status = model.SlotAvailable
		}
		s.CreatedAt, s.UpdatedAt = now, now

		_, err := tx.Exec(ctx,
			`INSERT INTO parking_slots (`+slotColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			s.ID, s.SlotNumber, s.Size, s.VehicleType, s.Location, s.Status, s.CreatedAt, s.UpdatedAt,
		)
		if err != nil {
			return translateWrite(err, "insert slot")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *SlotRepository) GetByID(ctx context.Context, id string) (*model.ParkingSlot, error) {
	s, err := scanSlot(r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM parking_slots WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "slot not found", "get slot")
	}
	return s, nil
}

// ErrSlotBound rejects type or size changes on a slot that has been granted.
var ErrSlotBound = apperr.Conflictf("slot is granted to a request, its type and size cannot change")

// Update writes the descriptive fields of s. Status is left untouched and a
// granted slot keeps its type and size.
func (r *SlotRepository) Update(ctx context.Context, s *model.ParkingSlot) error {
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx,
		`UPDATE parking_slots SET slot_number = $2, size = $3, vehicle_type = $4, location = $5, updated_at = $6
		 WHERE id = $1
		   AND (status = $7 OR (lower(size) = lower($3) AND lower(vehicle_type) = lower($4)))`,
		s.ID, s.SlotNumber, s.Size, s.VehicleType, s.Location, s.UpdatedAt, model.SlotAvailable,
	)
	if err != nil {
		return translateWrite(err, "update slot")
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM parking_slots WHERE id = $1)`, s.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if exists {
		return ErrSlotBound
	}
	return notFound(errNoRows, "slot not found", "update slot")
}

// Delete removes a slot. Slots referenced by a request yield a Conflict.
func (r *SlotRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parking_slots WHERE id = $1`, id)
	if err != nil {
		return translateWrite(err, "delete slot")
	}
	if tag.RowsAffected() == 0 {
		return notFound(errNoRows, "slot not found", "delete slot")
	}
	return nil
}

// List returns a page of slots. When onlyAvailable is set, slots already
// granted are hidden.
func (r *SlotRepository) List(ctx context.Context, p model.PageRequest, onlyAvailable bool) ([]model.ParkingSlot, int, error) {
	var c conditions
	if onlyAvailable {
		c.add(`status = $%d`, model.SlotAvailable)
	}
	if p.Search != "" {
		c.add(`(slot_number ILIKE '%%' || $%[1]d || '%%' OR vehicle_type ILIKE '%%' || $%[1]d || '%%' OR size ILIKE '%%' || $%[1]d || '%%')`, p.Search)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parking_slots`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count slots: %w", err)
	}

	suffix, args := c.page(p.Limit, p.Offset())
	rows, err := r.db.Query(ctx,
		`SELECT `+slotColumns+` FROM parking_slots`+c.where()+` ORDER BY slot_number, id`+suffix, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []model.ParkingSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, *s)
	}
	return slots, total, rows.Err()
}

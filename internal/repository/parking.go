package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/database"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// Errors raised by Open when a partial unique index rejects the session.
var (
	ErrCarParked = apperr.Conflictf("car already parked")
	// ErrSlotTaken means another session grabbed the slot number first; the
	// caller may retry with a different number.
	ErrSlotTaken = apperr.Conflictf("slot number already occupied")
)

const recordColumns = `p.id, p.user_id, p.car_number, p.slot_number, p.entry_time, p.exit_time`

// ParkingRepository handles persistence for parking sessions.
type ParkingRepository struct {
	db *pgxpool.Pool
}

func NewParkingRepository(db *pgxpool.Pool) *ParkingRepository {
	return &ParkingRepository{db: db}
}

func scanRecord(row scanner) (*model.ParkingRecord, error) {
	var p model.ParkingRecord
	if err := row.Scan(&p.ID, &p.UserID, &p.CarNumber, &p.SlotNumber, &p.EntryTime, &p.ExitTime); err != nil {
		return nil, err
	}
	return &p, nil
}

func scanRecordWithOwner(row scanner) (*model.ParkingRecord, error) {
	var p model.ParkingRecord
	if err := row.Scan(&p.ID, &p.UserID, &p.CarNumber, &p.SlotNumber, &p.EntryTime, &p.ExitTime,
		&p.Username, &p.PlateNumber); err != nil {
		return nil, err
	}
	return &p, nil
}

// OccupiedSlots returns the slot numbers held by open sessions.
func (r *ParkingRepository) OccupiedSlots(ctx context.Context) ([]int, error) {
	rows, err := r.db.Query(ctx, `SELECT slot_number FROM parking_records WHERE exit_time IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("query occupied slots: %w", err)
	}
	defer rows.Close()

	var slots []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan slot number: %w", err)
		}
		slots = append(slots, n)
	}
	return slots, rows.Err()
}

// Open inserts a new session. It returns ErrCarParked or ErrSlotTaken when
// the car or the slot number already has an open session.
func (r *ParkingRepository) Open(ctx context.Context, p *model.ParkingRecord) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.ExitTime = nil

	_, err := r.db.Exec(ctx,
		`INSERT INTO parking_records (id, user_id, car_number, slot_number, entry_time, exit_time)
		 VALUES ($1, $2, $3, $4, $5, NULL)`,
		p.ID, p.UserID, p.CarNumber, p.SlotNumber, p.EntryTime,
	)
	if err == nil {
		return nil
	}
	switch constraint, _ := database.UniqueViolation(err); constraint {
	case "parking_records_open_car_key":
		return ErrCarParked
	case "parking_records_open_slot_key":
		return ErrSlotTaken
	}
	return fmt.Errorf("insert parking record: %w", err)
}

// Close ends the open session for carNumber at the given time and records a
// pending payment of ceil(hours) * rate. Both writes share one transaction;
// the conditional update means a second exit finds nothing to close.
func (r *ParkingRepository) Close(ctx context.Context, carNumber string, at time.Time, rate int64) (*model.ExitResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// GREATEST keeps exit_time >= entry_time under clock skew between hosts.
	rec, err := scanRecord(tx.QueryRow(ctx,
		`UPDATE parking_records p SET exit_time = GREATEST($2, p.entry_time)
		 WHERE p.car_number = $1 AND p.exit_time IS NULL
		 RETURNING `+recordColumns,
		carNumber, at,
	))
	if err != nil {
		return nil, notFound(err, "no active parking session for this car", "close parking record")
	}

	res := &model.ExitResult{
		ParkingRecord: *rec,
		Amount:        model.Fee(rec.EntryTime, *rec.ExitTime, rate),
		PaymentID:     uuid.New().String(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO payments (id, user_id, parking_id, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		res.PaymentID, rec.UserID, rec.ID, res.Amount, model.PaymentPending, *rec.ExitTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return res, nil
}

// ListOpen returns every open session with its owner's name and plate.
func (r *ParkingRepository) ListOpen(ctx context.Context) ([]model.ParkingRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`, u.username, u.plate_number
		 FROM parking_records p JOIN users u ON u.id = p.user_id
		 WHERE p.exit_time IS NULL
		 ORDER BY p.entry_time`)
	if err != nil {
		return nil, fmt.Errorf("list open sessions: %w", err)
	}
	defer rows.Close()

	var records []model.ParkingRecord
	for rows.Next() {
		p, err := scanRecordWithOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parking record: %w", err)
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

// History returns a page of sessions, newest entry first. An empty userID
// lists every user's sessions.
func (r *ParkingRepository) History(ctx context.Context, userID string, p model.PageRequest) ([]model.ParkingRecord, int, error) {
	var c conditions
	if userID != "" {
		c.add(`p.user_id = $%d`, userID)
	}
	if p.Search != "" {
		c.add(`p.car_number ILIKE '%%' || $%d || '%%'`, p.Search)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parking_records p`+c.where(), c.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count parking records: %w", err)
	}

	suffix, args := c.page(p.Limit, p.Offset())
	rows, err := r.db.Query(ctx,
		`SELECT `+recordColumns+`, u.username, u.plate_number
		 FROM parking_records p JOIN users u ON u.id = p.user_id`+c.where()+
			` ORDER BY p.entry_time DESC, p.id`+suffix,
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list parking records: %w", err)
	}
	defer rows.Close()

	var records []model.ParkingRecord
	for rows.Next() {
		rec, err := scanRecordWithOwner(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan parking record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, total, rows.Err()
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

const paymentJoinedSelect = `
	SELECT pm.id, pm.user_id, pm.parking_id, pm.amount, pm.status, pm.payment_time, pm.created_at,
	       u.username, p.car_number, p.slot_number
	FROM payments pm
	JOIN users u ON u.id = pm.user_id
	JOIN parking_records p ON p.id = pm.parking_id`

// PaymentRepository handles persistence for payments. Payments are created
// by ParkingRepository.Close together with the session they bill.
type PaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func scanPaymentJoined(row scanner) (*model.Payment, error) {
	var p model.Payment
	if err := row.Scan(&p.ID, &p.UserID, &p.ParkingID, &p.Amount, &p.Status, &p.PaymentTime, &p.CreatedAt,
		&p.Username, &p.CarNumber, &p.SlotNumber); err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPending returns how many unpaid payments userID has.
func (r *PaymentRepository) CountPending(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payments WHERE user_id = $1 AND status = $2`,
		userID, model.PaymentPending,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending payments: %w", err)
	}
	return n, nil
}

// ListPending returns userID's unpaid payments with their session details.
func (r *PaymentRepository) ListPending(ctx context.Context, userID string) ([]model.Payment, error) {
	return r.query(ctx, paymentJoinedSelect+` WHERE pm.user_id = $1 AND pm.status = $2 ORDER BY pm.created_at DESC`,
		userID, model.PaymentPending)
}

// ListAll returns every payment with payer and session details.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]model.Payment, error) {
	return r.query(ctx, paymentJoinedSelect+` ORDER BY pm.created_at DESC`)
}

func (r *PaymentRepository) query(ctx context.Context, sql string, args ...any) ([]model.Payment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPaymentJoined(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

// Complete marks a pending payment owned by userID as paid. A payment that is
// missing, owned by someone else or already completed is NotFound.
func (r *PaymentRepository) Complete(ctx context.Context, id, userID string, at time.Time) (*model.Payment, error) {
	var p model.Payment
	err := r.db.QueryRow(ctx,
		`UPDATE payments SET status = $3, payment_time = $4
		 WHERE id = $1 AND user_id = $2 AND status = $5
		 RETURNING id, user_id, parking_id, amount, status, payment_time, created_at`,
		id, userID, model.PaymentCompleted, at, model.PaymentPending,
	).Scan(&p.ID, &p.UserID, &p.ParkingID, &p.Amount, &p.Status, &p.PaymentTime, &p.CreatedAt)
	if err != nil {
		return nil, notFound(err, "payment not found or already completed", "complete payment")
	}
	return &p, nil
}

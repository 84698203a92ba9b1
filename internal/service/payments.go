package service

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// PaymentService exposes the payment ledger.
type PaymentService struct {
	payments PaymentStore
	audit    Auditor
	now      Clock
}

func NewPaymentService(payments PaymentStore, audit Auditor) *PaymentService {
	return &PaymentService{payments: payments, audit: audit, now: systemClock}
}

// ListPending returns the caller's unpaid payments.
func (s *PaymentService) ListPending(ctx context.Context, a Actor) ([]model.Payment, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}
	return nonNil(s.payments.ListPending(ctx, a.UserID))
}

// Pay settles one of the caller's pending payments. Paying twice is
// NotFound the second time.
func (s *PaymentService) Pay(ctx context.Context, a Actor, paymentID string) (*model.Payment, error) {
	if err := requireRole(a, model.RoleUser); err != nil {
		return nil, err
	}
	p, err := s.payments.Complete(ctx, paymentID, a.UserID, s.now())
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, a.UserID, fmt.Sprintf("Payment completed: %s (%d)", p.ID, p.Amount))
	return p, nil
}

// ListAll returns every payment. Admin only.
func (s *PaymentService) ListAll(ctx context.Context, a Actor) ([]model.Payment, error) {
	if err := requireRole(a, model.RoleAdmin); err != nil {
		return nil, err
	}
	return nonNil(s.payments.ListAll(ctx))
}

func nonNil[T any](items []T, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

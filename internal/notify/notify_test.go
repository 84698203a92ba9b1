package notify

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/parking-management/internal/config"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

type sent struct {
	to, subject, body string
	deadline          bool
}

type fakeMailer struct {
	mu    sync.Mutex
	msgs  []sent
	err   error
	block chan struct{}
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if f.block != nil {
		<-f.block
	}
	_, hasDeadline := ctx.Deadline()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, sent{to, subject, body, hasDeadline})
	return f.err
}

func approvedRequest() model.SlotRequest {
	return model.SlotRequest{
		ID:        "r1",
		UserID:    "u1",
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Vehicle:   &model.Vehicle{PlateNumber: "AB123"},
		Slot:      &model.ParkingSlot{SlotNumber: "N-07"},
	}
}

func TestSlotApprovedSendsInBackground(t *testing.T) {
	mailer := &fakeMailer{block: make(chan struct{})}
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(mailer, logger)

	d.SlotApproved(model.User{ID: "u1", Email: "alice@example.com"}, approvedRequest())
	// SlotApproved has returned while delivery is still blocked.
	close(mailer.block)
	require.NoError(t, d.Wait(context.Background()))

	require.Len(t, mailer.msgs, 1)
	msg := mailer.msgs[0]
	assert.Equal(t, "alice@example.com", msg.to)
	assert.Equal(t, "Parking Slot Approval", msg.subject)
	assert.Contains(t, msg.body, "Slot Number: N-07")
	assert.Contains(t, msg.body, "Vehicle: AB123")
	assert.Contains(t, msg.body, "Approved At: 2026-03-01T10:00:00Z")
	assert.True(t, msg.deadline, "delivery runs under its own timeout")
}

func TestSlotApprovedSkipsUsersWithoutEmail(t *testing.T) {
	mailer := &fakeMailer{}
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(mailer, logger)

	d.SlotApproved(model.User{ID: "u1"}, approvedRequest())
	require.NoError(t, d.Wait(context.Background()))
	assert.Empty(t, mailer.msgs)
}

func TestDeliveryFailureIsLogged(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("relay down")}
	logger, hook := test.NewNullLogger()
	d := NewDispatcher(mailer, logger)

	d.SlotApproved(model.User{ID: "u1", Email: "alice@example.com"}, approvedRequest())
	require.NoError(t, d.Wait(context.Background()))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "r1", hook.LastEntry().Data["request_id"])
}

func TestWaitHonoursContext(t *testing.T) {
	mailer := &fakeMailer{block: make(chan struct{})}
	defer close(mailer.block)
	logger, _ := test.NewNullLogger()
	d := NewDispatcher(mailer, logger)
	d.SlotApproved(model.User{ID: "u1", Email: "alice@example.com"}, approvedRequest())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}

func TestLogMailer(t *testing.T) {
	logger, hook := test.NewNullLogger()
	require.NoError(t, LogMailer{Log: logger}.Send(context.Background(), "a@example.com", "hi", "body"))
	assert.Equal(t, "a@example.com", hook.LastEntry().Data["to"])
}

func TestNewSMTPMailer(t *testing.T) {
	m, err := NewSMTPMailer(config.MailConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "noreply@example.com", m.from)
}

func TestSMTPMailerConcurrentSends(t *testing.T) {
	// Reserve a port, then close it so every dial is refused quickly.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	m, err := NewSMTPMailer(config.MailConfig{Host: "127.0.0.1", Port: port, From: "noreply@example.com"})
	require.NoError(t, err)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			errs[i] = m.Send(ctx, "alice@example.com", "subject", "body")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.Error(t, err)
	}
}

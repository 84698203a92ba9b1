// Package notify delivers user notifications by e-mail. Delivery is always
// asynchronous: callers hand off a message and return immediately.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wneessen/go-mail"

	"github.com/Shivanand-hulikatti/parking-management/internal/config"
	"github.com/Shivanand-hulikatti/parking-management/internal/metrics"
	"github.com/Shivanand-hulikatti/parking-management/internal/model"
)

// DefaultTimeout bounds one delivery attempt.
const DefaultTimeout = 15 * time.Second

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay. Every Send dials with its own
// client; a go-mail Client holds connection state and is not safe to share
// between goroutines.
type SMTPMailer struct {
	host string
	opts []mail.Option
	from string
}

// NewSMTPMailer builds a mailer for cfg. STARTTLS is used when the relay
// offers it.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(DefaultTimeout),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	m := &SMTPMailer{host: cfg.Host, opts: opts, from: cfg.From}
	if _, err := m.newClient(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SMTPMailer) newClient() (*mail.Client, error) {
	client, err := mail.NewClient(m.host, m.opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return client, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := m.newClient()
	if err != nil {
		return err
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer writes messages to the log instead of sending them. It stands in
// when no SMTP relay is configured.
type LogMailer struct {
	Log logrus.FieldLogger
}

func (m LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Log.WithFields(logrus.Fields{"to": to, "subject": subject}).Info(body)
	return nil
}

// Dispatcher sends notifications on background goroutines, each with its own
// timeout detached from the triggering request.
type Dispatcher struct {
	mailer  Mailer
	log     logrus.FieldLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(mailer Mailer, log logrus.FieldLogger) *Dispatcher {
	return &Dispatcher{mailer: mailer, log: log, timeout: DefaultTimeout}
}

// SlotApproved tells the owner that their request was granted. Users without
// an e-mail address are skipped.
func (d *Dispatcher) SlotApproved(user model.User, req model.SlotRequest) {
	if user.Email == "" {
		d.log.WithField("user_id", user.ID).Debug("approval e-mail skipped: no address")
		return
	}
	subject, body := approvalMessage(req)
	d.dispatch(user.Email, subject, body, logrus.Fields{"request_id": req.ID, "user_id": user.ID})
}

func (d *Dispatcher) dispatch(to, subject, body string, fields logrus.Fields) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.mailer.Send(ctx, to, subject, body); err != nil {
			metrics.NotificationSent(false)
			d.log.WithError(err).WithFields(fields).Warn("notification delivery failed")
			return
		}
		metrics.NotificationSent(true)
	}()
}

// Wait blocks until in-flight deliveries finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func approvalMessage(req model.SlotRequest) (subject, body string) {
	slot, plate := "-", "-"
	if req.Slot != nil {
		slot = req.Slot.SlotNumber
	}
	if req.Vehicle != nil {
		plate = req.Vehicle.PlateNumber
	}
	body = fmt.Sprintf(
		"Your parking slot request has been approved!\nSlot Number: %s\nVehicle: %s\nApproved At: %s",
		slot, plate, req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return "Parking Slot Approval", body
}

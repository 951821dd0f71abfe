package cron

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/logger"
)

type fakeAlerts struct {
	alerts []orders.ReturnAlert
}

func (f *fakeAlerts) PendingReturnAlerts(context.Context) ([]orders.ReturnAlert, error) {
	return f.alerts, nil
}

type fakeReminders struct {
	*memoryStore
}

func (f fakeReminders) ReminderKey(kind, orderID string) string {
	return fmt.Sprintf("re:reminder:%s:%s", kind, orderID)
}

type recordingMailer struct {
	sent []notifications.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notifications.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingEvents struct {
	inputs []ledger.RecordEventInput
}

func (r *recordingEvents) Record(_ context.Context, _ *gorm.DB, input ledger.RecordEventInput) (*models.OrderEvent, error) {
	r.inputs = append(r.inputs, input)
	return &models.OrderEvent{OrderID: input.OrderID, Type: input.Type}, nil
}

type alertJobHarness struct {
	job       Job
	alerts    *fakeAlerts
	reminders fakeReminders
	mailer    *recordingMailer
	events    *recordingEvents
}

func newAlertJobHarness(t *testing.T, alerts ...orders.ReturnAlert) *alertJobHarness {
	t.Helper()
	h := &alertJobHarness{
		alerts:    &fakeAlerts{alerts: alerts},
		reminders: fakeReminders{newMemoryStore()},
		mailer:    &recordingMailer{},
		events:    &recordingEvents{},
	}
	job, err := NewReturnAlertJob(ReturnAlertJobParams{
		Logger:         logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		Alerts:         h.alerts,
		Reminders:      h.reminders,
		Mailer:         h.mailer,
		Events:         h.events,
		Brand:          "RentEase",
		SupportContact: "info@rentease.com",
	})
	if err != nil {
		t.Fatalf("new job: %v", err)
	}
	h.job = job
	return h
}

func alertFor(status enums.ReturnStatus, email string) orders.ReturnAlert {
	return orders.ReturnAlert{
		OrderID:       uuid.New(),
		OrderNumber:   "RO202609010001",
		CustomerName:  "Cal Customer",
		CustomerEmail: email,
		ReturnDate:    time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Status:        status,
	}
}

func TestReturnAlertJobSendsOncePerKind(t *testing.T) {
	approaching := alertFor(enums.ReturnStatusApproaching, "cal@example.com")
	h := newAlertJobHarness(t, approaching, alertFor(enums.ReturnStatusOverdue, ""))
	ctx := context.Background()

	if err := h.job.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := h.job.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(h.mailer.sent) != 1 {
		t.Fatalf("expected one reminder, got %d", len(h.mailer.sent))
	}
	if h.mailer.sent[0].To != "cal@example.com" {
		t.Fatalf("unexpected recipient %q", h.mailer.sent[0].To)
	}
	if len(h.events.inputs) != 1 || h.events.inputs[0].Type != enums.OrderEventTypeReturnReminder {
		t.Fatalf("expected one reminder event, got %+v", h.events.inputs)
	}

	h.alerts.alerts[0].Status = enums.ReturnStatusOverdue
	if err := h.job.Run(ctx); err != nil {
		t.Fatalf("overdue run: %v", err)
	}
	if len(h.mailer.sent) != 2 {
		t.Fatalf("expected an overdue reminder after the approaching one, got %d", len(h.mailer.sent))
	}
}

func TestReturnAlertJobRetriesAfterSendFailure(t *testing.T) {
	alert := alertFor(enums.ReturnStatusOverdue, "cal@example.com")
	h := newAlertJobHarness(t, alert)
	h.mailer.err = errors.New("smtp down")
	ctx := context.Background()

	if err := h.job.Run(ctx); err == nil {
		t.Fatal("expected send error")
	}
	if len(h.reminders.values) != 0 {
		t.Fatal("failed send left the reminder claimed")
	}
	if len(h.events.inputs) != 0 {
		t.Fatal("failed send recorded an event")
	}

	h.mailer.err = nil
	if err := h.job.Run(ctx); err != nil {
		t.Fatalf("retry run: %v", err)
	}
	if len(h.mailer.sent) != 1 {
		t.Fatalf("expected reminder on retry, got %d", len(h.mailer.sent))
	}
}

func TestNewReturnAlertJobValidates(t *testing.T) {
	if _, err := NewReturnAlertJob(ReturnAlertJobParams{}); err == nil {
		t.Fatal("expected validation error")
	}
}

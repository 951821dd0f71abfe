package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/rentease/rentease-backend/internal/ledger"
	"github.com/rentease/rentease-backend/internal/notifications"
	"github.com/rentease/rentease-backend/internal/orders"
	"github.com/rentease/rentease-backend/pkg/db/models"
	"github.com/rentease/rentease-backend/pkg/enums"
	"github.com/rentease/rentease-backend/pkg/logger"
)

const (
	ReturnAlertJobName = "return_alerts"

	defaultReminderTTL = 30 * 24 * time.Hour
)

type alertSource interface {
	PendingReturnAlerts(ctx context.Context) ([]orders.ReturnAlert, error)
}

type reminderStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	ReminderKey(kind, orderID string) string
}

type eventRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, input ledger.RecordEventInput) (*models.OrderEvent, error)
}

// ReturnAlertJobParams wire the return reminder job.
type ReturnAlertJobParams struct {
	Logger         *logger.Logger
	Alerts         alertSource
	Reminders      reminderStore
	Mailer         notifications.Mailer
	Events         eventRecorder
	Brand          string
	SupportContact string
	ReminderTTL    time.Duration
}

type returnAlertJob struct {
	logg           *logger.Logger
	alerts         alertSource
	reminders      reminderStore
	mailer         notifications.Mailer
	events         eventRecorder
	brand          string
	supportContact string
	ttl            time.Duration
	now            func() time.Time
}

// NewReturnAlertJob builds the job that reminds customers of approaching and overdue returns.
func NewReturnAlertJob(params ReturnAlertJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Alerts == nil {
		return nil, fmt.Errorf("alert source required")
	}
	if params.Reminders == nil {
		return nil, fmt.Errorf("reminder store required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("event recorder required")
	}
	ttl := params.ReminderTTL
	if ttl <= 0 {
		ttl = defaultReminderTTL
	}
	return &returnAlertJob{
		logg:           params.Logger,
		alerts:         params.Alerts,
		reminders:      params.Reminders,
		mailer:         params.Mailer,
		events:         params.Events,
		brand:          params.Brand,
		supportContact: params.SupportContact,
		ttl:            ttl,
		now:            time.Now,
	}, nil
}

func (j *returnAlertJob) Name() string { return ReturnAlertJobName }

// Run mails each customer once per order and alert kind. The reminder key is claimed
// before sending and dropped again when the send fails so the next cycle retries.
func (j *returnAlertJob) Run(ctx context.Context) error {
	alerts, err := j.alerts.PendingReturnAlerts(ctx)
	if err != nil {
		return fmt.Errorf("list return alerts: %w", err)
	}

	var errs error
	sent := 0
	for _, alert := range alerts {
		ok, err := j.remind(ctx, alert)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", alert.OrderNumber, err))
			continue
		}
		if ok {
			sent++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"alerts": len(alerts),
		"sent":   sent,
	}), "return alerts processed")
	return errs
}

func (j *returnAlertJob) remind(ctx context.Context, alert orders.ReturnAlert) (bool, error) {
	if alert.CustomerEmail == "" {
		return false, nil
	}
	key := j.reminders.ReminderKey(string(alert.Status), alert.OrderID.String())
	claimed, err := j.reminders.SetNX(ctx, key, j.now().UTC().Format(time.RFC3339), j.ttl)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	if !claimed {
		return false, nil
	}

	subject, text, html := notifications.ReturnReminderEmail{
		Brand:          j.brand,
		SupportContact: j.supportContact,
		CustomerName:   alert.CustomerName,
		OrderNumber:    alert.OrderNumber,
		ReturnDate:     alert.ReturnDate,
		Overdue:        alert.Status == enums.ReturnStatusOverdue,
	}.Render()
	if err := j.mailer.Send(ctx, notifications.Message{
		To:        alert.CustomerEmail,
		ToName:    alert.CustomerName,
		Subject:   subject,
		PlainText: text,
		HTML:      html,
	}); err != nil {
		if delErr := j.reminders.Del(ctx, key); delErr != nil {
			err = multierr.Append(err, fmt.Errorf("unclaim reminder: %w", delErr))
		}
		return false, fmt.Errorf("send reminder: %w", err)
	}

	if _, err := j.events.Record(ctx, nil, ledger.RecordEventInput{
		OrderID: alert.OrderID,
		Type:    enums.OrderEventTypeReturnReminder,
		Metadata: map[string]any{
			"kind":       string(alert.Status),
			"hours_left": alert.HoursLeft,
			"email":      alert.CustomerEmail,
		},
	}); err != nil {
		return true, fmt.Errorf("record reminder event: %w", err)
	}
	return true, nil
}

package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// minNotificationDelay is the smallest delay the capability accepts.
const minNotificationDelay = time.Second

// Dispatcher schedules best-effort local notifications.
// It never requests authorization; that belongs to the foreground.
type Dispatcher struct {
	capability domain.NotificationCapability
	logger     *zap.Logger
}

// NewDispatcher creates a dispatcher over capability.
func NewDispatcher(capability domain.NotificationCapability, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		capability: capability,
		logger:     logger,
	}
}

// ScheduleLocal fires n unless notifications are not authorized.
// Returns whether the notification was handed to the capability.
func (d *Dispatcher) ScheduleLocal(ctx context.Context, n domain.Notification) (bool, error) {
	status, err := d.capability.AuthorizationStatus()
	if err != nil {
		d.logger.Warn("cannot read notification authorization, skipping",
			zap.String("title", n.Title),
			zap.Error(err))
		return false, nil
	}
	if status != domain.AuthAuthorized {
		d.logger.Info("notifications not authorized, skipping",
			zap.String("title", n.Title),
			zap.String("status", string(status)))
		return false, nil
	}

	if n.MinDelay < minNotificationDelay {
		n.MinDelay = minNotificationDelay
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityNormal
	}

	if err := d.capability.Send(n); err != nil {
		d.logger.Warn("notification send failed",
			zap.String("title", n.Title),
			zap.Error(err))
		return false, err
	}

	d.logger.Info("notification scheduled",
		zap.String("title", n.Title),
		zap.Duration("delay", n.MinDelay),
		zap.String("priority", string(n.Priority)))
	return true, nil
}

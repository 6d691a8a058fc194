package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/appgate/internal/domain"
)

// RestrictionController issues apply/clear calls to the restriction capability.
// The BlockedAppSet is authoritative; the capability's count is only a
// diagnostic cross-check.
type RestrictionController struct {
	capability domain.RestrictionCapability
	logger     *zap.Logger
}

// NewRestrictionController creates a controller over capability.
func NewRestrictionController(capability domain.RestrictionCapability, logger *zap.Logger) *RestrictionController {
	return &RestrictionController{
		capability: capability,
		logger:     logger,
	}
}

// ApplyRestriction restricts exactly the apps in set. Idempotent.
func (c *RestrictionController) ApplyRestriction(ctx context.Context, set domain.BlockedAppSet) error {
	before := c.count()
	if err := c.capability.Apply(set.Tokens()); err != nil {
		c.logger.Warn("apply restriction failed, will retry on next trigger",
			zap.Int("expected", set.Len()),
			zap.Error(err))
		return fmt.Errorf("apply restriction: %w", err)
	}
	after := c.count()

	c.logger.Info("restriction applied",
		zap.Int("before", before),
		zap.Int("after", after),
		zap.Int("expected", set.Len()))
	if after >= 0 && after != set.Len() {
		c.logger.Warn("restriction count mismatch",
			zap.Int("expected", set.Len()),
			zap.Int("observed", after))
	}
	return nil
}

// ClearRestriction removes all restriction. Idempotent.
func (c *RestrictionController) ClearRestriction(ctx context.Context) error {
	before := c.count()
	if err := c.capability.Clear(); err != nil {
		c.logger.Warn("clear restriction failed",
			zap.Error(err))
		return fmt.Errorf("clear restriction: %w", err)
	}
	after := c.count()

	c.logger.Info("restriction cleared",
		zap.Int("before", before),
		zap.Int("after", after))
	if after > 0 {
		c.logger.Warn("restriction still reported after clear",
			zap.Int("observed", after))
	}
	return nil
}

// IsRestrictionActive returns how many apps the capability reports as restricted.
func (c *RestrictionController) IsRestrictionActive(ctx context.Context) (int, error) {
	return c.capability.AppliedCount()
}

// count returns -1 when the capability cannot be read.
func (c *RestrictionController) count() int {
	n, err := c.capability.AppliedCount()
	if err != nil {
		c.logger.Debug("restriction count failed", zap.Error(err))
		return -1
	}
	return n
}

// Package authz adapts the external authorization provider to the
// transition engine. The gate maps a transition category to the capability
// it requires and bounds every provider call with a timeout.
package authz

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/port"
	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// categoryCapabilities maps each transition category to the capability the
// acting user must hold
var categoryCapabilities = map[lifecycle.Category]string{
	lifecycle.CategorySubmit:   entity.CapabilityAuthor,
	lifecycle.CategoryReview:   entity.CapabilityReviewer,
	lifecycle.CategoryApproval: entity.CapabilityApprover,
	lifecycle.CategorySchedule: entity.CapabilityApprover,
	lifecycle.CategoryCancel:   entity.CapabilityAuthor,
}

// Gate authorizes transitions against the external provider
type Gate struct {
	provider port.AuthorizationProvider
	timeout  time.Duration
	logger   *zap.Logger
}

// NewGate creates an authorization gate. timeout bounds each provider call;
// zero falls back to 5 seconds.
func NewGate(provider port.AuthorizationProvider, timeout time.Duration, logger *zap.Logger) *Gate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gate{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
	}
}

// Authorize checks that actor may perform a transition of the given
// category. It returns lifecycle.ErrUnauthorized on denial and wraps
// provider failures without retrying them.
//
// The SYSTEM actor is the scheduler sweep acting on recorded dates; it is
// trusted for schedule transitions without consulting the provider.
func (g *Gate) Authorize(ctx context.Context, actor string, category lifecycle.Category) error {
	if actor == "" {
		return fmt.Errorf("%w: actor is required", lifecycle.ErrUnauthorized)
	}

	if actor == entity.ActorSystem && category == lifecycle.CategorySchedule {
		return nil
	}

	capability, ok := categoryCapabilities[category]
	if !ok {
		return fmt.Errorf("%w: unknown transition category %s", lifecycle.ErrUnauthorized, category)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	allowed, err := g.provider.IsAuthorized(callCtx, actor, capability)
	if err != nil {
		g.logger.Error("Authorization provider call failed",
			zap.String("actor", actor),
			zap.String("capability", capability),
			zap.Error(err))
		return fmt.Errorf("authorization check failed: %w", err)
	}

	if !allowed {
		g.logger.Info("Transition denied",
			zap.String("actor", actor),
			zap.String("capability", capability),
			zap.String("category", category.String()))
		return fmt.Errorf("%w: actor %s lacks capability %s", lifecycle.ErrUnauthorized, actor, capability)
	}

	return nil
}

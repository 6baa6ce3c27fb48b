package services

import (
	"colorgarb-portal/internal/models"
)

// StageDelta describes a validated stage transition ready to be persisted.
type StageDelta struct {
	Previous models.OrderStage
	Next     models.OrderStage
}

// StageTransitionValidator enforces the manufacturing stage progression
// rules independently of who is asking. Role checks live here as well so
// the rule "only staff move orders" holds even if a caller bypasses the
// access policy.
type StageTransitionValidator struct{}

func NewStageTransitionValidator() *StageTransitionValidator {
	return &StageTransitionValidator{}
}

// Validate checks that requested is a legal next stage for an order
// currently at current, requested by a user with the given role.
func (v *StageTransitionValidator) Validate(current models.OrderStage, requested models.OrderStage, role models.UserRole) (StageDelta, error) {
	if !role.CanMutateOrders() {
		return StageDelta{}, NewAuthorizationError("only ColorGarb staff can update order stages")
	}

	if !models.IsValidStage(requested) {
		return StageDelta{}, NewValidationError("unknown stage %q", string(requested))
	}
	if !models.IsValidStage(current) {
		return StageDelta{}, NewInternalError("order has an unrecognized current stage", nil)
	}

	if current == requested {
		return StageDelta{}, NewValidationError("order is already at stage %s", string(requested))
	}

	if models.IsTerminalStage(current) {
		return StageDelta{}, NewConflictError("order is at terminal stage %s and cannot move", string(current))
	}

	if !models.IsForwardTransition(current, requested) {
		return StageDelta{}, NewConflictError("cannot move order backward from %s to %s", string(current), string(requested))
	}

	return StageDelta{Previous: current, Next: requested}, nil
}

package budget

import (
	"fmt"
	"time"

	apperrors "hearth/internal/errors"
)

// EditPolicy decides whether a budget still accepts allocation edits. The
// engine never consults it; services check it before calling SetAllocation.
type EditPolicy interface {
	CanEdit(b *Budget, now time.Time) error
}

// OpenPolicy keeps every budget editable.
type OpenPolicy struct{}

func (OpenPolicy) CanEdit(*Budget, time.Time) error { return nil }

// ClosedAfterPeriod freezes a budget once its month has ended plus Grace.
type ClosedAfterPeriod struct {
	Grace time.Duration
}

func (p ClosedAfterPeriod) CanEdit(b *Budget, now time.Time) error {
	if now.After(b.PeriodEnd().Add(p.Grace)) {
		return apperrors.WithMessage(apperrors.ErrBudgetClosed, fmt.Sprintf("%s budget is closed", b.Name()))
	}
	return nil
}

// PolicyFor maps a configuration value to a policy.
func PolicyFor(name string, grace time.Duration) (EditPolicy, error) {
	switch name {
	case "", "open":
		return OpenPolicy{}, nil
	case "after_period":
		return ClosedAfterPeriod{Grace: grace}, nil
	}
	return nil, fmt.Errorf("unknown budget close policy %q", name)
}

// Package workflow validates and applies status transitions on applications.
// It is pure state-machine logic: persistence and audit live with the
// service, so the transition table stays in exactly one place.
package workflow

import (
	"time"

	"benefits/internal/application/models"
	dErrors "benefits/pkg/domain-errors"
)

// allowed enumerates legal transitions besides the universal
// any-to-disqualified rule.
var allowed = map[models.Status]map[models.Status]bool{
	models.StatusApplied: {
		models.StatusValidated: true,
	},
	models.StatusValidated: {
		models.StatusPaid:   true,
		models.StatusUnpaid: true,
	},
	models.StatusUnpaid: {
		models.StatusValidated: true,
		models.StatusPaid:      true,
	},
	// Paid -> Unpaid is the payment clawback reversal.
	models.StatusPaid: {
		models.StatusUnpaid: true,
	},
}

// CanTransition reports whether from -> to is legal. Disqualified is
// reachable from every state except itself; Disqualified -> Disqualified is
// handled as an idempotent no-op by Apply, not as a legal transition here.
func CanTransition(from, to models.Status) bool {
	if to == models.StatusDisqualified {
		return from != models.StatusDisqualified
	}
	return allowed[from][to]
}

// Request carries the caller-supplied inputs for one transition.
type Request struct {
	Target models.Status
	Actor  string
	// PaymentDate applies only when Target is Paid; zero means "use now".
	PaymentDate time.Time
	Remarks     string
}

// Apply validates the transition and mutates app in place, returning whether
// anything changed. Side effects follow the payment invariant: entering Paid
// sets PaymentDate (caller-supplied, defaulting to now); leaving Paid clears
// it. Illegal transitions fail naming the attempted source and target.
func Apply(app *models.Application, req Request, now time.Time) (bool, error) {
	if !req.Target.Valid() {
		return false, dErrors.Newf(dErrors.CodeInvalidInput, "unknown status %q", string(req.Target))
	}

	// Re-disqualifying a disqualified application is a no-op, so operators
	// can safely repeat the action.
	if app.Status == models.StatusDisqualified && req.Target == models.StatusDisqualified {
		return false, nil
	}

	if !CanTransition(app.Status, req.Target) {
		return false, dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot transition from %s to %s", app.Status, req.Target)
	}

	if req.Target == models.StatusPaid {
		paymentDate := req.PaymentDate
		if paymentDate.IsZero() {
			paymentDate = now
		}
		app.PaymentDate = &paymentDate
	} else {
		app.PaymentDate = nil
	}

	app.Status = req.Target
	if req.Remarks != "" {
		app.Remarks = req.Remarks
	}
	app.UpdatedAt = now
	app.UpdatedBy = req.Actor
	return true, nil
}

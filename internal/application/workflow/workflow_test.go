package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits/internal/application/models"
	dErrors "benefits/pkg/domain-errors"
)

func newApp(status models.Status) *models.Application {
	app := &models.Application{Status: status}
	if status == models.StatusPaid {
		d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		app.PaymentDate = &d
	}
	return app
}

// TestCanTransition_Exhaustive checks every (from, to) pair against the
// documented transition table.
func TestCanTransition_Exhaustive(t *testing.T) {
	legal := map[[2]models.Status]bool{
		{models.StatusApplied, models.StatusValidated}:      true,
		{models.StatusApplied, models.StatusDisqualified}:   true,
		{models.StatusValidated, models.StatusPaid}:         true,
		{models.StatusValidated, models.StatusUnpaid}:       true,
		{models.StatusValidated, models.StatusDisqualified}: true,
		{models.StatusUnpaid, models.StatusValidated}:       true,
		{models.StatusUnpaid, models.StatusPaid}:            true,
		{models.StatusUnpaid, models.StatusDisqualified}:    true,
		{models.StatusPaid, models.StatusUnpaid}:            true,
		{models.StatusPaid, models.StatusDisqualified}:      true,
	}

	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			got := CanTransition(from, to)
			want := legal[[2]models.Status{from, to}]
			assert.Equal(t, want, got, "%s -> %s", from, to)
		}
	}
}

func TestApply_DisallowedTransitionNamesStates(t *testing.T) {
	app := newApp(models.StatusPaid)
	now := time.Now()

	_, err := Apply(app, Request{Target: models.StatusApplied, Actor: "clerk"}, now)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	assert.Contains(t, err.Error(), "paid")
	assert.Contains(t, err.Error(), "applied")
	// Failed transitions leave the record untouched.
	assert.Equal(t, models.StatusPaid, app.Status)
	assert.NotNil(t, app.PaymentDate)
}

func TestApply_UnknownTargetIsInvalidInput(t *testing.T) {
	app := newApp(models.StatusApplied)
	_, err := Apply(app, Request{Target: models.Status("archived")}, time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestApply_PaidSetsPaymentDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("caller-supplied date", func(t *testing.T) {
		app := newApp(models.StatusValidated)
		want := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

		changed, err := Apply(app, Request{Target: models.StatusPaid, Actor: "cashier", PaymentDate: want}, now)
		require.NoError(t, err)
		assert.True(t, changed)
		require.NotNil(t, app.PaymentDate)
		assert.Equal(t, want, *app.PaymentDate)
		assert.Equal(t, "cashier", app.UpdatedBy)
		assert.Equal(t, now, app.UpdatedAt)
	})

	t.Run("defaults to now when omitted", func(t *testing.T) {
		app := newApp(models.StatusValidated)
		_, err := Apply(app, Request{Target: models.StatusPaid, Actor: "cashier"}, now)
		require.NoError(t, err)
		require.NotNil(t, app.PaymentDate)
		assert.Equal(t, now, *app.PaymentDate)
	})
}

func TestApply_ClawbackClearsPaymentDate(t *testing.T) {
	app := newApp(models.StatusPaid)
	require.NotNil(t, app.PaymentDate)

	changed, err := Apply(app, Request{Target: models.StatusUnpaid, Actor: "auditor", Remarks: "clawback"}, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.StatusUnpaid, app.Status)
	assert.Nil(t, app.PaymentDate)
	assert.Equal(t, "clawback", app.Remarks)
}

func TestApply_DisqualifyFromPaidClearsPaymentDate(t *testing.T) {
	app := newApp(models.StatusPaid)

	changed, err := Apply(app, Request{Target: models.StatusDisqualified, Actor: "auditor"}, time.Now())
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Nil(t, app.PaymentDate, "payment_date must be non-null only while paid")
}

func TestApply_RedisqualifyIsNoOp(t *testing.T) {
	app := newApp(models.StatusDisqualified)
	app.UpdatedBy = "original-actor"

	changed, err := Apply(app, Request{Target: models.StatusDisqualified, Actor: "second-actor"}, time.Now())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "original-actor", app.UpdatedBy, "no-op must not restamp the record")
}

// TestApply_AllowedPairsSucceed drives every legal pair through Apply and
// checks the payment invariant after each.
func TestApply_AllowedPairsSucceed(t *testing.T) {
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			if !CanTransition(from, to) {
				continue
			}
			app := newApp(from)
			changed, err := Apply(app, Request{Target: to, Actor: "clerk"}, time.Now())
			require.NoError(t, err, "%s -> %s", from, to)
			assert.True(t, changed, "%s -> %s", from, to)
			assert.Equal(t, to, app.Status)

			if to == models.StatusPaid {
				assert.NotNil(t, app.PaymentDate, "%s -> %s", from, to)
			} else {
				assert.Nil(t, app.PaymentDate, "%s -> %s", from, to)
			}
		}
	}
}

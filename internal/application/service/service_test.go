package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits/internal/application/models"
	"benefits/internal/application/store"
	"benefits/internal/application/workflow"
	"benefits/internal/audit"
	"benefits/internal/benefit"
	"benefits/internal/registry"
	id "benefits/pkg/domain"
	dErrors "benefits/pkg/domain-errors"
	"benefits/pkg/platform/sentinel"
	"benefits/pkg/requestcontext"
)

const testLaunchYear = 2024

type captureAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *captureAuditor) Emit(_ context.Context, entry audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *captureAuditor) all() []audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]audit.Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

func newTestService(t *testing.T, opts ...Option) (*Service, *store.MemoryStore, *registry.MemoryReader) {
	t.Helper()
	st := store.NewMemory()
	reg := registry.NewMemoryReader()
	svc, err := New(st, reg, testLaunchYear, opts...)
	require.NoError(t, err)
	return svc, st, reg
}

func putBeneficiary(reg *registry.MemoryReader, birthYear int, status registry.LifecycleStatus) registry.Beneficiary {
	b := registry.Beneficiary{
		ID:           id.NewBeneficiaryID(),
		BirthDate:    time.Date(birthYear, time.June, 15, 0, 0, 0, 0, time.UTC),
		Status:       status,
		ProvinceCode: "PH-ILN",
		LguCode:      "ILN-LAOAG",
	}
	reg.Put(b)
	return b
}

func TestService_File(t *testing.T) {
	ctx := context.Background()

	t.Run("creates application for qualifying beneficiary", func(t *testing.T) {
		auditor := &captureAuditor{}
		svc, _, reg := newTestService(t, WithAuditor(auditor))
		b := putBeneficiary(reg, 1944, registry.StatusActive)

		app, err := svc.File(ctx, FileRequest{
			BeneficiaryID: b.ID,
			ProgramYear:   2024,
			Actor:         "clerk-1",
			Remarks:       "walk-in filing",
		})
		require.NoError(t, err)

		assert.Equal(t, b.ID, app.BeneficiaryID)
		assert.Equal(t, benefit.CodeOctogenarian80, app.BenefitCode)
		assert.Equal(t, models.StatusApplied, app.Status)
		assert.True(t, app.CashAmount.Equal(decimal.NewFromInt(10000)))
		assert.Equal(t, "clerk-1", app.CreatedBy)
		assert.Equal(t, "walk-in filing", app.Remarks)
		assert.Nil(t, app.PaymentDate)

		entries := auditor.all()
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionFiled, entries[0].Action)
		assert.Equal(t, app.ID.String(), entries[0].EntityID)
	})

	t.Run("locks in the centenarian amount at 100", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		b := putBeneficiary(reg, 1924, registry.StatusActive)

		app, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
		require.NoError(t, err)
		assert.Equal(t, benefit.CodeCentenarian100, app.BenefitCode)
		assert.True(t, app.CashAmount.Equal(decimal.NewFromInt(100000)))
	})

	t.Run("rejects a second filing for the same milestone", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		b := putBeneficiary(reg, 1944, registry.StatusActive)

		_, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
		require.NoError(t, err)

		_, err = svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-2"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicateBenefit))
	})

	t.Run("rejects unknown beneficiary", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.File(ctx, FileRequest{BeneficiaryID: id.NewBeneficiaryID(), ProgramYear: 2024, Actor: "clerk-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("rejects deceased beneficiary", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		b := putBeneficiary(reg, 1944, registry.StatusDeceased)

		_, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects beneficiary with no milestone this year", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		b := putBeneficiary(reg, 1946, registry.StatusActive) // turns 78 in 2024

		_, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects program year before launch", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		b := putBeneficiary(reg, 1943, registry.StatusActive)

		_, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2023, Actor: "clerk-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects missing beneficiary id", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.File(ctx, FileRequest{ProgramYear: 2024, Actor: "clerk-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService(t)
	b := putBeneficiary(reg, 1944, registry.StatusActive)

	filed, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, filed.ID)
	require.NoError(t, err)
	assert.Equal(t, filed.ID, got.ID)

	_, err = svc.Get(ctx, id.NewApplicationID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestService_ListByBeneficiary(t *testing.T) {
	ctx := context.Background()
	svc, _, reg := newTestService(t)
	b := putBeneficiary(reg, 1944, registry.StatusActive)

	_, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
	require.NoError(t, err)
	_, err = svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2029, Actor: "clerk-1"})
	require.NoError(t, err)

	apps, err := svc.ListByBeneficiary(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, 2029, apps[0].ProgramYear)
	assert.Equal(t, 2024, apps[1].ProgramYear)

	_, err = svc.ListByBeneficiary(ctx, id.BeneficiaryID{})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	file := func(t *testing.T, svc *Service, reg *registry.MemoryReader) *models.Application {
		t.Helper()
		b := putBeneficiary(reg, 1944, registry.StatusActive)
		app, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
		require.NoError(t, err)
		return app
	}

	advance := func(t *testing.T, svc *Service, appID id.ApplicationID, targets ...models.Status) *models.Application {
		t.Helper()
		var app *models.Application
		var err error
		for _, target := range targets {
			app, err = svc.UpdateStatus(ctx, appID, workflow.Request{Target: target, Actor: "validator-1"})
			require.NoError(t, err)
		}
		return app
	}

	t.Run("validates and pays", func(t *testing.T) {
		auditor := &captureAuditor{}
		svc, _, reg := newTestService(t, WithAuditor(auditor))
		app := file(t, svc, reg)

		paid := advance(t, svc, app.ID, models.StatusValidated, models.StatusPaid)
		assert.Equal(t, models.StatusPaid, paid.Status)
		require.NotNil(t, paid.PaymentDate)
		assert.Equal(t, "validator-1", paid.UpdatedBy)

		entries := auditor.all()
		require.Len(t, entries, 3) // filed + two transitions
		assert.Equal(t, audit.ActionStatusChanged, entries[2].Action)
		assert.Equal(t, string(models.StatusValidated), entries[2].OldStatus)
		assert.Equal(t, string(models.StatusPaid), entries[2].NewStatus)
	})

	t.Run("uses the request time for payment when none supplied", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		app := file(t, svc, reg)
		advance(t, svc, app.ID, models.StatusValidated)

		at := time.Date(2024, time.March, 3, 9, 0, 0, 0, time.UTC)
		paid, err := svc.UpdateStatus(requestcontext.WithTime(ctx, at), app.ID,
			workflow.Request{Target: models.StatusPaid, Actor: "cashier-1"})
		require.NoError(t, err)
		require.NotNil(t, paid.PaymentDate)
		assert.Equal(t, at, *paid.PaymentDate)
	})

	t.Run("clawback clears the payment date", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		app := file(t, svc, reg)
		advance(t, svc, app.ID, models.StatusValidated, models.StatusPaid)

		unpaid, err := svc.UpdateStatus(ctx, app.ID,
			workflow.Request{Target: models.StatusUnpaid, Actor: "auditor-1", Remarks: "returned by bank"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusUnpaid, unpaid.Status)
		assert.Nil(t, unpaid.PaymentDate)
		assert.Equal(t, "returned by bank", unpaid.Remarks)
	})

	t.Run("rejects illegal transition", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		app := file(t, svc, reg)

		_, err := svc.UpdateStatus(ctx, app.ID, workflow.Request{Target: models.StatusPaid, Actor: "cashier-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		// The stored row is untouched.
		got, err := svc.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApplied, got.Status)
	})

	t.Run("re-disqualifying is a silent no-op", func(t *testing.T) {
		auditor := &captureAuditor{}
		svc, _, reg := newTestService(t, WithAuditor(auditor))
		app := file(t, svc, reg)
		advance(t, svc, app.ID, models.StatusDisqualified)

		before := len(auditor.all())
		again, err := svc.UpdateStatus(ctx, app.ID,
			workflow.Request{Target: models.StatusDisqualified, Actor: "validator-2"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDisqualified, again.Status)
		assert.Len(t, auditor.all(), before, "no audit entry for a no-op")
	})

	t.Run("unknown application", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateStatus(ctx, id.NewApplicationID(),
			workflow.Request{Target: models.StatusValidated, Actor: "validator-1"})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("requires an actor", func(t *testing.T) {
		svc, _, reg := newTestService(t)
		app := file(t, svc, reg)

		_, err := svc.UpdateStatus(ctx, app.ID, workflow.Request{Target: models.StatusValidated})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("retries once after losing a conditional write", func(t *testing.T) {
		mem := store.NewMemory()
		reg := registry.NewMemoryReader()
		contended := &contendedStore{Store: mem}
		svc, err := New(contended, reg, testLaunchYear)
		require.NoError(t, err)

		b := putBeneficiary(reg, 1944, registry.StatusActive)
		app, err := svc.File(ctx, FileRequest{BeneficiaryID: b.ID, ProgramYear: 2024, Actor: "clerk-1"})
		require.NoError(t, err)

		contended.failures = 1
		got, err := svc.UpdateStatus(ctx, app.ID,
			workflow.Request{Target: models.StatusValidated, Actor: "validator-1"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusValidated, got.Status)
		assert.Equal(t, 2, contended.attempts)
	})
}

// contendedStore simulates another writer winning the conditional update.
type contendedStore struct {
	store.Store
	failures int
	attempts int
}

func (s *contendedStore) UpdateStatus(ctx context.Context, app *models.Application, expected models.Status) error {
	s.attempts++
	if s.failures > 0 {
		s.failures--
		return sentinel.ErrInvalidState
	}
	return s.Store.UpdateStatus(ctx, app, expected)
}

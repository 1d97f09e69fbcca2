package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits/internal/application/models"
	"benefits/internal/benefit"
	id "benefits/pkg/domain"
	"benefits/pkg/platform/sentinel"
)

func testApplication(beneficiaryID id.BeneficiaryID, year int, code benefit.Code) *models.Application {
	m, _ := benefit.ByCode(code)
	now := time.Date(year, 1, 10, 9, 0, 0, 0, time.UTC)
	return &models.Application{
		ID:            id.NewApplicationID(),
		BeneficiaryID: beneficiaryID,
		ProgramYear:   year,
		BenefitCode:   code,
		BirthDate:     time.Date(year-m.QualifyingAge, 6, 15, 0, 0, 0, 0, time.UTC),
		Status:        models.StatusApplied,
		CashAmount:    m.CashAmount,
		CreatedAt:     now,
		CreatedBy:     "generator",
		UpdatedAt:     now,
		UpdatedBy:     "generator",
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	beneficiary := id.NewBeneficiaryID() // any fresh UUID

	app := testApplication(beneficiary, 2024, benefit.CodeOctogenarian80)
	require.NoError(t, s.Create(ctx, app))

	got, err := s.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.BeneficiaryID, got.BeneficiaryID)
	assert.Equal(t, benefit.CodeOctogenarian80, got.BenefitCode)
	assert.True(t, got.CashAmount.Equal(decimal.NewFromInt(10000)))
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemory()
	_, err := s.Get(context.Background(), id.NewApplicationID())
	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestMemoryStore_LifetimeUniqueness(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	beneficiary := id.NewBeneficiaryID()

	first := testApplication(beneficiary, 2024, benefit.CodeOctogenarian80)
	require.NoError(t, s.Create(ctx, first))

	t.Run("same pair in a later year is rejected", func(t *testing.T) {
		again := testApplication(beneficiary, 2025, benefit.CodeOctogenarian80)
		err := s.Create(ctx, again)
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrDuplicate))
	})

	t.Run("different milestone is allowed", func(t *testing.T) {
		other := testApplication(beneficiary, 2029, benefit.CodeOctogenarian85)
		assert.NoError(t, s.Create(ctx, other))
	})
}

func TestMemoryStore_ConcurrentCreateSamePair(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	beneficiary := id.NewBeneficiaryID()

	const goroutines = 50
	var wg sync.WaitGroup
	var created, duplicated atomic.Int32

	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			err := s.Create(ctx, testApplication(beneficiary, 2024, benefit.CodeOctogenarian80))
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrDuplicate):
				duplicated.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load(), "exactly one concurrent create wins")
	assert.Equal(t, int32(goroutines-1), duplicated.Load())
}

func TestMemoryStore_ListByBeneficiaryOrder(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	beneficiary := id.NewBeneficiaryID()

	require.NoError(t, s.Create(ctx, testApplication(beneficiary, 2024, benefit.CodeOctogenarian80)))
	require.NoError(t, s.Create(ctx, testApplication(beneficiary, 2029, benefit.CodeOctogenarian85)))
	require.NoError(t, s.Create(ctx, testApplication(beneficiary, 2034, benefit.CodeNonagenarian90)))

	apps, err := s.ListByBeneficiary(ctx, beneficiary)
	require.NoError(t, err)
	require.Len(t, apps, 3)
	assert.Equal(t, 2034, apps[0].ProgramYear)
	assert.Equal(t, 2029, apps[1].ProgramYear)
	assert.Equal(t, 2024, apps[2].ProgramYear)
}

func TestMemoryStore_UpdateStatusConditional(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	beneficiary := id.NewBeneficiaryID()

	app := testApplication(beneficiary, 2024, benefit.CodeOctogenarian80)
	require.NoError(t, s.Create(ctx, app))

	t.Run("succeeds when expected status matches", func(t *testing.T) {
		updated := *app
		updated.Status = models.StatusValidated
		require.NoError(t, s.UpdateStatus(ctx, &updated, models.StatusApplied))

		got, err := s.Get(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusValidated, got.Status)
	})

	t.Run("fails when record moved underneath", func(t *testing.T) {
		stale := *app
		stale.Status = models.StatusDisqualified
		err := s.UpdateStatus(ctx, &stale, models.StatusApplied)
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrInvalidState))
	})

	t.Run("missing application", func(t *testing.T) {
		ghost := testApplication(beneficiary, 2029, benefit.CodeOctogenarian85)
		err := s.UpdateStatus(ctx, ghost, models.StatusApplied)
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})
}

func TestMemoryStore_Query(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	benA := id.NewBeneficiaryID()
	benB := id.NewBeneficiaryID()

	appA := testApplication(benA, 2024, benefit.CodeOctogenarian80)
	appB := testApplication(benB, 2024, benefit.CodeCentenarian100)
	appC := testApplication(benA, 2029, benefit.CodeOctogenarian85)
	require.NoError(t, s.Create(ctx, appA))
	require.NoError(t, s.Create(ctx, appB))
	require.NoError(t, s.Create(ctx, appC))

	paid := *appB
	paid.Status = models.StatusPaid
	paymentDate := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	paid.PaymentDate = &paymentDate
	require.NoError(t, s.UpdateStatus(ctx, &paid, models.StatusApplied))

	t.Run("by program year", func(t *testing.T) {
		apps, err := s.Query(ctx, Query{ProgramYears: []int{2024}})
		require.NoError(t, err)
		assert.Len(t, apps, 2)
	})

	t.Run("by status", func(t *testing.T) {
		apps, err := s.Query(ctx, Query{Statuses: []models.Status{models.StatusPaid}})
		require.NoError(t, err)
		require.Len(t, apps, 1)
		assert.Equal(t, appB.ID, apps[0].ID)
	})

	t.Run("payment date range excludes unpaid", func(t *testing.T) {
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
		apps, err := s.Query(ctx, Query{PaymentFrom: &from, PaymentTo: &to})
		require.NoError(t, err)
		require.Len(t, apps, 1)
		assert.Equal(t, appB.ID, apps[0].ID)
	})

	t.Run("conjunction of filters", func(t *testing.T) {
		apps, err := s.Query(ctx, Query{
			BeneficiaryID: &benA,
			ProgramYears:  []int{2029},
		})
		require.NoError(t, err)
		require.Len(t, apps, 1)
		assert.Equal(t, appC.ID, apps[0].ID)
	})

	t.Run("empty query returns everything", func(t *testing.T) {
		apps, err := s.Query(ctx, Query{})
		require.NoError(t, err)
		assert.Len(t, apps, 3)
	})
}

func TestMemoryStore_ReturnsClones(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	beneficiary := id.NewBeneficiaryID()

	app := testApplication(beneficiary, 2024, benefit.CodeOctogenarian80)
	require.NoError(t, s.Create(ctx, app))

	got, err := s.Get(ctx, app.ID)
	require.NoError(t, err)
	got.Status = models.StatusPaid

	fresh, err := s.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApplied, fresh.Status, "mutating a read result must not alter the store")
}

package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benefits/internal/application/models"
	"benefits/internal/application/store"
	"benefits/internal/benefit"
	"benefits/internal/geography"
	"benefits/internal/registry"
	"benefits/internal/statistics"
	id "benefits/pkg/domain"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st := store.NewMemory()
	reg := registry.NewMemoryReader()
	geo := geography.NewMemoryDirectory()
	geo.PutProvince(geography.Province{Code: "PH-ILN", Name: "Ilocos Norte"})
	geo.PutProvince(geography.Province{Code: "PH-CEB", Name: "Cebu"})

	b := registry.Beneficiary{
		ID:           id.NewBeneficiaryID(),
		BirthDate:    time.Date(1944, time.January, 15, 0, 0, 0, 0, time.UTC),
		Status:       registry.StatusActive,
		ProvinceCode: "PH-ILN",
	}
	reg.Put(b)
	paid := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.Create(context.Background(), &models.Application{
		ID:            id.NewApplicationID(),
		BeneficiaryID: b.ID,
		ProgramYear:   2024,
		BenefitCode:   benefit.CodeOctogenarian80,
		BirthDate:     b.BirthDate,
		Status:        models.StatusPaid,
		PaymentDate:   &paid,
		CashAmount:    decimal.NewFromInt(10000),
		CreatedAt:     time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
	}))

	svc, err := statistics.New(st, reg, geo)
	require.NoError(t, err)

	r := chi.NewRouter()
	New(svc, slog.New(slog.DiscardHandler)).Register(r)
	return r
}

func get(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleAggregate(t *testing.T) {
	router := newTestRouter(t)

	t.Run("unfiltered", func(t *testing.T) {
		rec := get(t, router, "/statistics")
		require.Equal(t, http.StatusOK, rec.Code)

		var report statistics.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 1, report.Total)
		assert.Equal(t, 1, report.Counts[models.StatusPaid])
	})

	t.Run("age and year filters", func(t *testing.T) {
		rec := get(t, router, "/statistics?program_year=2024&age_min=80&age_max=80")
		require.Equal(t, http.StatusOK, rec.Code)

		var report statistics.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 1, report.Total)
	})

	t.Run("unknown province returns 400", func(t *testing.T) {
		rec := get(t, router, "/statistics?province=PH-NOPE")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed age returns 400", func(t *testing.T) {
		rec := get(t, router, "/statistics?age_min=eighty")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleByProvince(t *testing.T) {
	router := newTestRouter(t)

	rec := get(t, router, "/statistics/by-province")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Buckets []statistics.Bucket `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Buckets, 2)
	assert.Equal(t, "Cebu", resp.Buckets[0].Name)
	assert.Equal(t, 0, resp.Buckets[0].Count)
	assert.Equal(t, "Ilocos Norte", resp.Buckets[1].Name)
	assert.Equal(t, 1, resp.Buckets[1].Count)
}

func TestHandleByLgu_UnknownProvince(t *testing.T) {
	router := newTestRouter(t)
	rec := get(t, router, "/statistics/provinces/PH-NOPE/by-lgu")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

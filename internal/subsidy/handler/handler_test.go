package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvene/internal/ledger"
	"subvene/internal/subsidy"
	"subvene/internal/subsidy/service"
	"subvene/pkg/platform/audit"
	auditmemory "subvene/pkg/platform/audit/store/memory"
	"subvene/pkg/testutil"
)

func newRouter(t *testing.T) (chi.Router, *subsidy.InMemoryStore) {
	t.Helper()
	store := subsidy.NewInMemoryStore()
	svc := service.New(store, ledger.NewFakeGateway(), audit.NewPublisher(auditmemory.New()), testutil.Logger())
	r := chi.NewRouter()
	New(svc, testutil.Logger()).Register(r)
	return r, store
}

func createBody() []byte {
	body, _ := json.Marshal(map[string]any{
		"title":            "solar rooftops",
		"producer_id":      uuid.NewString(),
		"auditor_id":       uuid.NewString(),
		"producer_address": "0xproducer",
		"total_amount":     1000,
		"milestones": []map[string]any{
			{"description": "permits", "amount": 300},
			{"description": "installation", "amount": 700},
		},
	})
	return body
}

func TestHandleCreate(t *testing.T) {
	t.Run("government caller creates a subsidy", func(t *testing.T) {
		router, _ := newRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/subsidies", bytes.NewReader(createBody()))
		req = testutil.WithAuth(req, uuid.NewString(), "government")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp SubsidyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.NotEmpty(t, resp.ID)
		assert.NotEmpty(t, resp.ContractAddress)
		assert.Equal(t, "InProgress", resp.Status)
		assert.Len(t, resp.Milestones, 2)
	})

	t.Run("non-government role is forbidden", func(t *testing.T) {
		router, _ := newRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/subsidies", bytes.NewReader(createBody()))
		req = testutil.WithAuth(req, uuid.NewString(), "producer")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("sum mismatch is a validation error", func(t *testing.T) {
		router, _ := newRouter(t)
		body, _ := json.Marshal(map[string]any{
			"title":            "solar rooftops",
			"producer_id":      uuid.NewString(),
			"auditor_id":       uuid.NewString(),
			"producer_address": "0xproducer",
			"total_amount":     1000,
			"milestones": []map[string]any{
				{"description": "permits", "amount": 300},
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/subsidies", bytes.NewReader(body))
		req = testutil.WithAuth(req, uuid.NewString(), "government")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		router, _ := newRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/subsidies", bytes.NewReader([]byte("{not json")))
		req = testutil.WithAuth(req, uuid.NewString(), "government")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleGet(t *testing.T) {
	router, _ := newRouter(t)

	t.Run("invalid id is a validation error", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subsidies/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown subsidy is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subsidies/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("created subsidy round-trips", func(t *testing.T) {
		createReq := httptest.NewRequest(http.MethodPost, "/subsidies", bytes.NewReader(createBody()))
		createReq = testutil.WithAuth(createReq, uuid.NewString(), "government")
		createRec := httptest.NewRecorder()
		router.ServeHTTP(createRec, createReq)
		require.Equal(t, http.StatusCreated, createRec.Code)

		var created SubsidyResponse
		require.NoError(t, json.NewDecoder(createRec.Body).Decode(&created))

		req := httptest.NewRequest(http.MethodGet, "/subsidies/"+created.ID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got SubsidyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, created.ID, got.ID)
	})
}

func TestHandleList(t *testing.T) {
	router, _ := newRouter(t)

	createReq := httptest.NewRequest(http.MethodPost, "/subsidies", bytes.NewReader(createBody()))
	createReq = testutil.WithAuth(createReq, uuid.NewString(), "government")
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var created SubsidyResponse
	require.NoError(t, json.NewDecoder(createRec.Body).Decode(&created))

	t.Run("lists active subsidies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subsidies", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []SubsidyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Len(t, got, 1)
	})

	t.Run("filters by producer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/subsidies?producer_id="+created.ProducerID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []SubsidyResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.Equal(t, created.ID, got[0].ID)

		other := httptest.NewRequest(http.MethodGet, "/subsidies?producer_id="+uuid.NewString(), nil)
		otherRec := httptest.NewRecorder()
		router.ServeHTTP(otherRec, other)
		require.Equal(t, http.StatusOK, otherRec.Code)

		var none []SubsidyResponse
		require.NoError(t, json.NewDecoder(otherRec.Body).Decode(&none))
		assert.Empty(t, none)
	})
}

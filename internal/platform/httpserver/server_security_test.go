package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	policyservice "tessera/contexts/asset-core/policy-service"
	policyentities "tessera/contexts/asset-core/policy-service/domain/entities"
	registryservice "tessera/contexts/asset-core/registry-service"
	settlementengine "tessera/contexts/settlement-core/settlement-engine"
)

// newTestServer assembles the in-memory stack the way the memory store
// driver does: owner "owner", treasury "treasury", 5% commission, USD
// supported.
func newTestServer() *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)

	policyState := policyentities.DefaultPolicy("owner", "treasury", 500, now)
	policyState.SupportedCurrencies["USD"] = true
	policyModule := policyservice.NewInMemoryModule(policyState, logger)

	registryModule := registryservice.NewInMemoryModule(policyModule.Store, logger)
	settlementModule := settlementengine.NewInMemoryModule(
		policyModule.Store,
		registryModule.Store,
		registryModule.Store,
		logger,
	)

	return New(registryModule, policyModule, settlementModule, logger, ":0")
}

func doJSON(t *testing.T, server *Server, method string, path string, caller string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set("X-Caller-Address", caller)
		req.Header.Set("X-Request-Id", "req-1")
	}
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	return rr
}

func TestRegisterAssetRequiresCallerHeader(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/assets", "", `{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterAssetRequiresRequestID(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/v1/assets", bytes.NewReader([]byte(`{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Caller-Address", "owner")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterAssetRejectsNonOwner(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/assets", "stranger", `{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegisterAssetDuplicateConflicts(t *testing.T) {
	server := newTestServer()
	body := `{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`

	rr := doJSON(t, server, http.MethodPost, "/v1/assets", "owner", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/v1/assets", "owner", body)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetAssetMetadataNeverErrors(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/v1/assets/999/metadata", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for unregistered metadata, got %d body=%s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			MetadataHash string `json:"metadata_hash"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.MetadataHash != "" {
		t.Fatalf("expected empty hash, got %q", resp.Data.MetadataHash)
	}
}

func TestSetCommissionRateRejectsDenominator(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPut, "/v1/policy/commission-rate", "owner", `{"rate_bps":10000}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPut, "/v1/policy/commission-rate", "owner", `{"rate_bps":9999}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPolicyMutationsRejectNonOwner(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/policy/pause", "stranger", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPurchaseUnsupportedCurrencyRejected(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/assets", "owner", `{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("registering asset: %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/settlements", "buyer", `{"currency":"EUR","items":[{"asset_id":1,"price":100,"seller":"seller-1"}]}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPurchasePausedReturnsLocked(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/assets", "owner", `{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("registering asset: %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodPost, "/v1/policy/pause", "owner", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("pausing: %d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, server, http.MethodPost, "/v1/settlements", "buyer", `{"currency":"USD","items":[{"asset_id":1,"price":100,"seller":"seller-1"}]}`)
	if rr.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPurchaseEndToEndWithIdempotentReplay(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodPost, "/v1/assets", "owner", `{"asset_id":1,"seller":"seller-1","price":100,"metadata_hash":"abc"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("registering asset: %d body=%s", rr.Code, rr.Body.String())
	}
	server.settlement.Ledger.Mint("USD", "buyer", 105)

	purchase := func(key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/settlements", bytes.NewReader([]byte(`{"currency":"USD","items":[{"asset_id":1,"price":100,"seller":"seller-1"}]}`)))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Caller-Address", "buyer")
		req.Header.Set("X-Request-Id", "req-1")
		req.Header.Set("Idempotency-Key", key)
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		return rr
	}

	first := purchase("key-1")
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", first.Code, first.Body.String())
	}
	second := purchase("key-1")
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 replay, got %d body=%s", second.Code, second.Body.String())
	}

	var firstResp, secondResp struct {
		Replayed bool `json:"replayed"`
		Data     struct {
			SettlementID string `json:"settlement_id"`
			Commission   uint64 `json:"commission"`
		} `json:"data"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &firstResp); err != nil {
		t.Fatalf("decoding first response: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &secondResp); err != nil {
		t.Fatalf("decoding second response: %v", err)
	}
	if !secondResp.Replayed {
		t.Fatal("expected replay flag on second response")
	}
	if firstResp.Data.SettlementID != secondResp.Data.SettlementID {
		t.Fatalf("expected same settlement id, got %q vs %q", firstResp.Data.SettlementID, secondResp.Data.SettlementID)
	}
	if firstResp.Data.Commission != 5 {
		t.Fatalf("expected commission 5, got %d", firstResp.Data.Commission)
	}

	rr = doJSON(t, server, http.MethodGet, "/v1/settlements/"+firstResp.Data.SettlementID, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected receipt readable, got %d body=%s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, server, http.MethodGet, "/v1/settlements?buyer=buyer", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected buyer listing, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestListSettlementsRequiresBuyer(t *testing.T) {
	server := newTestServer()
	rr := doJSON(t, server, http.MethodGet, "/v1/settlements", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	policyservice "tessera/contexts/asset-core/policy-service"
	registryservice "tessera/contexts/asset-core/registry-service"
	settlementengine "tessera/contexts/settlement-core/settlement-engine"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "tessera/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	registry   registryservice.Module
	policy     policyservice.Module
	settlement settlementengine.Module
}

func New(
	registry registryservice.Module,
	policy policyservice.Module,
	settlement settlementengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		registry:   registry,
		policy:     policy,
		settlement: settlement,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest wiring.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/assets", s.handleRegisterAsset)
	s.mux.HandleFunc("GET /v1/assets", s.handleListAssets)
	s.mux.HandleFunc("GET /v1/assets/{asset_id}", s.handleGetAsset)
	s.mux.HandleFunc("GET /v1/assets/{asset_id}/metadata", s.handleGetAssetMetadata)
	s.mux.HandleFunc("GET /v1/assets/{asset_id}/exists", s.handleAssetExists)

	s.mux.HandleFunc("GET /v1/policy", s.handleGetPolicy)
	s.mux.HandleFunc("PUT /v1/policy/commission-rate", s.handleSetCommissionRate)
	s.mux.HandleFunc("GET /v1/policy/commission-rate", s.handleGetCommissionRate)
	s.mux.HandleFunc("POST /v1/policy/currencies", s.handleAddCurrency)
	s.mux.HandleFunc("DELETE /v1/policy/currencies/{currency}", s.handleRemoveCurrency)
	s.mux.HandleFunc("GET /v1/policy/currencies/{currency}", s.handleIsCurrencySupported)
	s.mux.HandleFunc("POST /v1/policy/pause", s.handlePause)
	s.mux.HandleFunc("POST /v1/policy/unpause", s.handleUnpause)

	s.mux.HandleFunc("POST /v1/settlements", s.handlePurchaseAssets)
	s.mux.HandleFunc("GET /v1/settlements", s.handleListSettlements)
	s.mux.HandleFunc("GET /v1/settlements/{settlement_id}", s.handleGetSettlement)
}

// resolveMutationIdentity enforces the mutation header contract: caller
// identity plus a request id for tracing. Returns the caller address or ""
// after writing the failure response.
func resolveMutationIdentity(w http.ResponseWriter, r *http.Request, write func(http.ResponseWriter, int, string, string)) string {
	caller := strings.TrimSpace(r.Header.Get("X-Caller-Address"))
	if caller == "" {
		write(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return ""
	}
	if strings.TrimSpace(r.Header.Get("X-Request-Id")) == "" {
		write(w, http.StatusBadRequest, "missing_request_id", "X-Request-Id header is required")
		return ""
	}
	return caller
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	settlementerrors "tessera/contexts/settlement-core/settlement-engine/domain/errors"
	settlementhttp "tessera/contexts/settlement-core/settlement-engine/transport/http"
)

func (s *Server) handlePurchaseAssets(w http.ResponseWriter, r *http.Request) {
	buyer := resolveMutationIdentity(w, r, writeSettlementError)
	if buyer == "" {
		return
	}

	var req settlementhttp.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSettlementError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.settlement.Handler.PurchaseAssetsHandler(
		r.Context(),
		buyer,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetSettlement(w http.ResponseWriter, r *http.Request) {
	resp, err := s.settlement.Handler.GetSettlementHandler(r.Context(), r.PathValue("settlement_id"))
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	buyer := strings.TrimSpace(query.Get("buyer"))
	if buyer == "" {
		writeSettlementError(w, http.StatusBadRequest, "missing_buyer", "buyer query parameter is required")
		return
	}
	limit := 0
	if limitRaw := query.Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeSettlementError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	offset := 0
	if offsetRaw := query.Get("offset"); offsetRaw != "" {
		parsed, err := strconv.Atoi(offsetRaw)
		if err != nil {
			writeSettlementError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
		offset = parsed
	}

	resp, err := s.settlement.Handler.ListSettlementsHandler(r.Context(), buyer, limit, offset)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeSettlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settlementerrors.ErrInvalidPurchaseRequest):
		writeSettlementError(w, http.StatusBadRequest, "invalid_purchase_request", err.Error())
	case errors.Is(err, settlementerrors.ErrSystemPaused):
		writeSettlementError(w, http.StatusLocked, "system_paused", err.Error())
	case errors.Is(err, settlementerrors.ErrUnsupportedCurrency):
		writeSettlementError(w, http.StatusUnprocessableEntity, "unsupported_currency", err.Error())
	case errors.Is(err, settlementerrors.ErrArithmeticOverflow):
		writeSettlementError(w, http.StatusUnprocessableEntity, "arithmetic_overflow", err.Error())
	case errors.Is(err, settlementerrors.ErrUnregisteredAsset):
		writeSettlementError(w, http.StatusNotFound, "unregistered_asset", err.Error())
	case errors.Is(err, settlementerrors.ErrInvalidAssetOwnership):
		writeSettlementError(w, http.StatusConflict, "stale_ownership", err.Error())
	case errors.Is(err, settlementerrors.ErrTransferFailed):
		writeSettlementError(w, http.StatusPaymentRequired, "transfer_failed", err.Error())
	case errors.Is(err, settlementerrors.ErrIdempotencyConflict):
		writeSettlementError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, settlementerrors.ErrSettlementNotFound):
		writeSettlementError(w, http.StatusNotFound, "settlement_not_found", err.Error())
	default:
		writeSettlementError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSettlementError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, settlementhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

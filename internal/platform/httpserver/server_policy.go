package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	policyerrors "tessera/contexts/asset-core/policy-service/domain/errors"
	policyhttp "tessera/contexts/asset-core/policy-service/transport/http"
)

func (s *Server) handleSetCommissionRate(w http.ResponseWriter, r *http.Request) {
	caller := resolveMutationIdentity(w, r, writePolicyError)
	if caller == "" {
		return
	}

	var req policyhttp.SetCommissionRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePolicyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.policy.Handler.SetCommissionRateHandler(r.Context(), caller, req)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCurrency(w http.ResponseWriter, r *http.Request) {
	caller := resolveMutationIdentity(w, r, writePolicyError)
	if caller == "" {
		return
	}

	var req policyhttp.CurrencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writePolicyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.policy.Handler.AddCurrencyHandler(r.Context(), caller, req)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemoveCurrency(w http.ResponseWriter, r *http.Request) {
	caller := resolveMutationIdentity(w, r, writePolicyError)
	if caller == "" {
		return
	}

	resp, err := s.policy.Handler.RemoveCurrencyHandler(r.Context(), caller, r.PathValue("currency"))
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller := resolveMutationIdentity(w, r, writePolicyError)
	if caller == "" {
		return
	}

	resp, err := s.policy.Handler.PauseHandler(r.Context(), caller)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller := resolveMutationIdentity(w, r, writePolicyError)
	if caller == "" {
		return
	}

	resp, err := s.policy.Handler.UnpauseHandler(r.Context(), caller)
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	resp, err := s.policy.Handler.GetPolicyHandler(r.Context())
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCommissionRate(w http.ResponseWriter, r *http.Request) {
	resp, err := s.policy.Handler.GetCommissionRateHandler(r.Context())
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIsCurrencySupported(w http.ResponseWriter, r *http.Request) {
	resp, err := s.policy.Handler.IsCurrencySupportedHandler(r.Context(), r.PathValue("currency"))
	if err != nil {
		writePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writePolicyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, policyerrors.ErrUnauthorized):
		writePolicyError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, policyerrors.ErrInvalidCommissionRate):
		writePolicyError(w, http.StatusUnprocessableEntity, "invalid_commission_rate", err.Error())
	case errors.Is(err, policyerrors.ErrInvalidCurrency):
		writePolicyError(w, http.StatusBadRequest, "invalid_currency", err.Error())
	case errors.Is(err, policyerrors.ErrPolicyNotInitialized):
		writePolicyError(w, http.StatusInternalServerError, "policy_not_initialized", err.Error())
	default:
		writePolicyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writePolicyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, policyhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	registryerrors "tessera/contexts/asset-core/registry-service/domain/errors"
	registryhttp "tessera/contexts/asset-core/registry-service/transport/http"
)

func (s *Server) handleRegisterAsset(w http.ResponseWriter, r *http.Request) {
	caller := resolveMutationIdentity(w, r, writeRegistryError)
	if caller == "" {
		return
	}

	var req registryhttp.RegisterAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.RegisterAssetHandler(r.Context(), caller, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.GetAssetHandler(r.Context(), assetID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAssetMetadata(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.GetAssetMetadataHandler(r.Context(), assetID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssetExists(w http.ResponseWriter, r *http.Request) {
	assetID, ok := parseAssetID(w, r)
	if !ok {
		return
	}
	resp, err := s.registry.Handler.AssetExistsHandler(r.Context(), assetID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := registryhttp.ListAssetsRequest{
		Cursor: query.Get("cursor"),
	}
	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeRegistryError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.registry.Handler.ListAssetsHandler(r.Context(), req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseAssetID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	assetID, err := strconv.ParseUint(r.PathValue("asset_id"), 10, 64)
	if err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_asset_id", "asset_id must be an unsigned integer")
		return 0, false
	}
	return assetID, true
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrUnauthorized):
		writeRegistryError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, registryerrors.ErrAssetAlreadyRegistered):
		writeRegistryError(w, http.StatusConflict, "asset_already_registered", err.Error())
	case errors.Is(err, registryerrors.ErrAssetNotFound):
		writeRegistryError(w, http.StatusNotFound, "asset_not_found", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidRegistration):
		writeRegistryError(w, http.StatusBadRequest, "invalid_registration", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidListFilter):
		writeRegistryError(w, http.StatusBadRequest, "invalid_list_filter", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

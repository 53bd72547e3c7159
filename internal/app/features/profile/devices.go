// internal/app/features/profile/devices.go
package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/unionhubhq/unionhub/internal/app/system/authz"
	"github.com/unionhubhq/unionhub/internal/app/system/timeouts"
)

const maxTokenLen = 512

var validPlatforms = map[string]struct{}{
	"web":     {},
	"ios":     {},
	"android": {},
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform,omitempty"`
}

// HandleRegisterDevice records a push token for the signed-in user.
// Called by the service worker or mobile shell after the platform
// hands out a token.
// POST /profile/devices
func (h *Handler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	req, errMsg := decodeDeviceRequest(r)
	if errMsg != "" {
		writeJSONError(w, http.StatusBadRequest, errMsg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tokens.Register(ctx, userID, req.Token, req.Platform); err != nil {
		h.Log.Error("register device token failed", zap.Error(err), zap.String("user", userID.Hex()))
		writeJSONError(w, http.StatusInternalServerError, "could not register the device")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"status": "registered"})
}

// HandleUnregisterDevice drops a push token, e.g. on sign-out from a
// device.
// POST /profile/devices/remove
func (h *Handler) HandleUnregisterDevice(w http.ResponseWriter, r *http.Request) {
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "sign in required")
		return
	}

	req, errMsg := decodeDeviceRequest(r)
	if errMsg != "" {
		writeJSONError(w, http.StatusBadRequest, errMsg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tokens.Unregister(ctx, userID, req.Token); err != nil {
		h.Log.Error("unregister device token failed", zap.Error(err), zap.String("user", userID.Hex()))
		writeJSONError(w, http.StatusInternalServerError, "could not unregister the device")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "unregistered"})
}

func decodeDeviceRequest(r *http.Request) (deviceRequest, string) {
	var req deviceRequest
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 4096)).Decode(&req); err != nil {
		return req, "invalid JSON body"
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" || len(req.Token) > maxTokenLen {
		return req, "token is required"
	}
	if req.Platform != "" {
		if _, ok := validPlatforms[req.Platform]; !ok {
			return req, "platform must be web, ios, or android"
		}
	}
	return req, ""
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

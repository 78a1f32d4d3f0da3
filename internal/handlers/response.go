package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/services"
)

const maxBodyBytes = 64 << 10

const (
	msgBadRequest       = "Requête invalide"
	msgNotFound         = "Route non trouvée"
	msgMethodNotAllowed = "Méthode non autorisée"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(k services.Kind) int {
	switch k {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindAlreadyEnrolled, services.KindValidation:
		return http.StatusBadRequest
	case services.KindInvalidCredential, services.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error to its status. Internal details are
// logged and never sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindInternal
	msg := services.MsgServerError
	var se *services.Error
	if errors.As(err, &se) {
		kind = se.Kind
		if kind != services.KindInternal {
			msg = se.Message
		}
	}
	if kind == services.KindInternal {
		logger.From(r.Context()).Error("request failed", zap.Error(err))
	}
	writeJSON(w, statusFor(kind), errorResponse{Success: false, Error: msg})
}

func badRequest(msg string) error {
	return &services.Error{Kind: services.KindValidation, Message: msg}
}

var errUnauthorized = &services.Error{Kind: services.KindUnauthorized, Message: services.MsgUnauthorized}

// extractBearerToken returns the token of an "Authorization: Bearer <token>"
// header, or "" when the header is missing or malformed.
func extractBearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// requireToken writes 401 and returns false when no bearer token is present.
func requireToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, r, errUnauthorized)
		return "", false
	}
	return token, true
}

type envelope struct {
	Action string `json:"action"`
}

// readAction reads the body and its "action" discriminator.
func readAction(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return "", nil, badRequest(msgBadRequest)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", nil, badRequest(msgBadRequest)
	}
	return strings.TrimSpace(env.Action), body, nil
}

func decodeVariant(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return badRequest(msgBadRequest)
	}
	return nil
}

// NotFound and MethodNotAllowed keep router errors in the portal's JSON shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Error: msgNotFound})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Success: false, Error: msgMethodNotAllowed})
}

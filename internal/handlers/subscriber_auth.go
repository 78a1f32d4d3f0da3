package handlers

import (
	"net/http"
	"time"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/services"
	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

// authRequest is one of the action variants accepted by POST /api/subscriber/auth.
type authRequest interface {
	authAction() string
}

type checkRequest struct {
	Phone string `json:"phone"`
}

type setPINRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
}

type logoutRequest struct {
	Token string `json:"token"`
}

type validateRequest struct {
	Token string `json:"token"`
}

func (*checkRequest) authAction() string    { return "check" }
func (*setPINRequest) authAction() string   { return "set-pin" }
func (*loginRequest) authAction() string    { return "login" }
func (*logoutRequest) authAction() string   { return "logout" }
func (*validateRequest) authAction() string { return "validate" }

func decodeAuthRequest(action string, body []byte) (authRequest, error) {
	var req authRequest
	switch action {
	case "check":
		req = &checkRequest{}
	case "set-pin":
		req = &setPINRequest{}
	case "login":
		req = &loginRequest{}
	case "logout":
		req = &logoutRequest{}
	case "validate":
		req = &validateRequest{}
	default:
		return nil, badRequest(services.MsgUnknownAction)
	}
	if err := decodeVariant(body, req); err != nil {
		return nil, err
	}
	return req, nil
}

type checkResponse struct {
	Success        bool   `json:"success"`
	HasPIN         bool   `json:"hasPin"`
	SubscriberName string `json:"subscriberName"`
}

type tokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type validateResponse struct {
	Success      bool   `json:"success"`
	SubscriberID string `json:"subscriberId"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// SubscriberAuth handles POST /api/subscriber/auth.
func (h *Handler) SubscriberAuth(w http.ResponseWriter, r *http.Request) {
	action, body, err := readAction(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := decodeAuthRequest(action, body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch req := req.(type) {
	case *checkRequest:
		h.check(w, r, req)
	case *setPINRequest:
		h.setPIN(w, r, req)
	case *loginRequest:
		h.login(w, r, req)
	case *logoutRequest:
		h.logout(w, r, req)
	case *validateRequest:
		h.validate(w, r, req)
	default:
		writeError(w, r, badRequest(services.MsgUnknownAction))
	}
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request, req *checkRequest) {
	res, err := h.auth.Check(r.Context(), req.Phone)
	h.metrics.AuthAttempt(req.authAction(), outcome(err))
	a := models.Activity{Action: req.authAction(), Phone: utils.NormalizePhone(req.Phone)}
	if res != nil {
		a.SubscriberID = res.SubscriberID
	}
	h.record(r, a, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Success: true, HasPIN: res.HasPIN, SubscriberName: res.SubscriberName})
}

func (h *Handler) setPIN(w http.ResponseWriter, r *http.Request, req *setPINRequest) {
	res, err := h.auth.Enroll(r.Context(), req.Phone, req.PIN)
	h.finishAuth(w, r, req.authAction(), req.Phone, res, err)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, req *loginRequest) {
	res, err := h.auth.Login(r.Context(), req.Phone, req.PIN)
	h.finishAuth(w, r, req.authAction(), req.Phone, res, err)
}

func (h *Handler) finishAuth(w http.ResponseWriter, r *http.Request, action, phone string, res *services.AuthResult, err error) {
	h.metrics.AuthAttempt(action, outcome(err))
	a := models.Activity{Action: action, Phone: utils.NormalizePhone(phone)}
	if res != nil {
		a.SubscriberID = res.SubscriberID
	}
	h.record(r, a, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Success: true, Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// logout always succeeds. The token comes from the body or, failing that,
// the Authorization header.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request, req *logoutRequest) {
	token := req.Token
	if token == "" {
		token = extractBearerToken(r.Header.Get("Authorization"))
	}
	if token != "" {
		a := models.Activity{Action: req.authAction()}
		if id, err := h.auth.Validate(r.Context(), token); err == nil {
			a.SubscriberID = id
		}
		h.auth.Logout(r.Context(), token)
		h.record(r, a, nil)
	}
	h.metrics.AuthAttempt(req.authAction(), "success")
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request, req *validateRequest) {
	token := req.Token
	if token == "" {
		token = extractBearerToken(r.Header.Get("Authorization"))
	}
	id, err := h.auth.Validate(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{Success: true, SubscriberID: id})
}

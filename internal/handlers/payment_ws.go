package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 90 * time.Second
	wsPingPeriod = 45 * time.Second
)

// paymentMessage is what the socket sends for each status change.
type paymentMessage struct {
	Type    string              `json:"type"`
	Payment models.PaymentEvent `json:"payment"`
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, o := range h.allowedOrigins {
				if strings.EqualFold(o, origin) {
					return true
				}
			}
			return false
		},
	}
}

// PaymentEvents handles GET /ws/subscriber/payments. It pushes the caller's
// payment status changes and closes once the session is no longer valid.
// Browsers cannot set headers on a WebSocket, so ?token= is accepted too.
func (h *Handler) PaymentEvents(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		writeError(w, r, errUnauthorized)
		return
	}
	subscriberID, err := h.auth.Validate(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.events == nil {
		writeError(w, r, &services.Error{Kind: services.KindInternal, Message: services.MsgServerError})
		return
	}

	up := h.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	log := logger.From(r.Context()).With(logger.SubscriberID(subscriberID))
	sub := h.events.Subscribe(subscriberID)
	defer h.events.Unsubscribe(sub)

	// The reader only handles control frames and notices disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	recheck := time.NewTicker(h.sessionCheck)
	defer recheck.Stop()
	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return

		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(paymentMessage{Type: "payment_status", Payment: ev}); err != nil {
				return
			}

		case <-recheck.C:
			_, err := h.auth.Validate(r.Context(), token)
			if err == nil {
				continue
			}
			if !services.IsKind(err, services.KindUnauthorized) {
				log.Warn("session recheck failed", zap.Error(err))
				continue
			}
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, services.MsgSessionExpired)
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
			return

		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}

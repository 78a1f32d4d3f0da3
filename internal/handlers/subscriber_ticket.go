package handlers

import (
	"net/http"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/services"
)

type ticketRequest interface {
	ticketAction() string
}

type createTicketRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

func (*createTicketRequest) ticketAction() string { return "create" }

func decodeTicketRequest(action string, body []byte) (ticketRequest, error) {
	var req ticketRequest
	switch action {
	case "create":
		req = &createTicketRequest{}
	default:
		return nil, badRequest(services.MsgUnknownAction)
	}
	if err := decodeVariant(body, req); err != nil {
		return nil, err
	}
	return req, nil
}

type ticketResponse struct {
	Success bool                  `json:"success"`
	Ticket  *models.SupportTicket `json:"ticket"`
	Message string                `json:"message"`
}

// SubscriberTicket handles POST /api/subscriber/ticket.
func (h *Handler) SubscriberTicket(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	action, body, err := readAction(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := decodeTicketRequest(action, body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch req := req.(type) {
	case *createTicketRequest:
		res, err := h.tickets.Create(r.Context(), token, services.CreateTicketInput{
			Subject:     req.Subject,
			Description: req.Description,
			Priority:    req.Priority,
		})
		a := models.Activity{Action: "ticket_create"}
		if res != nil {
			a.SubscriberID = res.Ticket.SubscriberID
			a.Reference = res.Ticket.TicketNumber
		}
		h.record(r, a, err)
		if err != nil {
			writeError(w, r, err)
			return
		}
		h.metrics.TicketCreated()
		writeJSON(w, http.StatusOK, ticketResponse{Success: true, Ticket: res.Ticket, Message: res.Message})

	default:
		writeError(w, r, badRequest(services.MsgUnknownAction))
	}
}

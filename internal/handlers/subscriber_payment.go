package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/patience-portal/internal/models"
	"github.com/AnshRaj112/patience-portal/internal/services"
	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

type paymentRequest interface {
	paymentAction() string
}

type calculateRequest struct {
	Months    int    `json:"months"`
	BouquetID string `json:"bouquetId"`
}

type initiateRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	PhoneNumber   string `json:"phoneNumber"`
	Months        int    `json:"months"`
	BouquetID     string `json:"bouquetId"`
}

type statusRequest struct {
	PaymentID string `json:"paymentId"`
}

func (*calculateRequest) paymentAction() string { return "calculate" }
func (*initiateRequest) paymentAction() string  { return "initiate" }
func (*statusRequest) paymentAction() string    { return "status" }

func decodePaymentRequest(action string, body []byte) (paymentRequest, error) {
	var req paymentRequest
	switch action {
	case "calculate":
		req = &calculateRequest{}
	case "initiate":
		req = &initiateRequest{}
	case "status":
		req = &statusRequest{}
	default:
		return nil, badRequest(services.MsgUnknownAction)
	}
	if err := decodeVariant(body, req); err != nil {
		return nil, err
	}
	return req, nil
}

type quoteResponse struct {
	Success       bool  `json:"success"`
	Amount        int64 `json:"amount"`
	PricePerMonth int64 `json:"pricePerMonth"`
	Months        int   `json:"months"`
}

type initiateResponse struct {
	Success      bool                        `json:"success"`
	PaymentID    string                      `json:"paymentId"`
	Amount       int64                       `json:"amount"`
	Status       models.PaymentRequestStatus `json:"status"`
	Message      string                      `json:"message"`
	Instructions string                      `json:"instructions"`
}

type statusResponse struct {
	Success bool                        `json:"success"`
	Status  models.PaymentRequestStatus `json:"status"`
	Payment *models.PaymentRequest      `json:"payment"`
}

// SubscriberPayment handles POST /api/subscriber/payment.
func (h *Handler) SubscriberPayment(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	action, body, err := readAction(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req, err := decodePaymentRequest(action, body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	switch req := req.(type) {
	case *calculateRequest:
		q, err := h.payments.Calculate(r.Context(), token, req.Months, strings.TrimSpace(req.BouquetID))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, quoteResponse{Success: true, Amount: q.Amount, PricePerMonth: q.PricePerMonth, Months: q.Months})

	case *initiateRequest:
		h.initiate(w, r, token, req)

	case *statusRequest:
		pr, err := h.payments.Status(r.Context(), token, strings.TrimSpace(req.PaymentID))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, statusResponse{Success: true, Status: pr.Status, Payment: pr})

	default:
		writeError(w, r, badRequest(services.MsgUnknownAction))
	}
}

func (h *Handler) initiate(w http.ResponseWriter, r *http.Request, token string, req *initiateRequest) {
	method := models.PaymentMethod(strings.TrimSpace(req.PaymentMethod))
	res, err := h.payments.Initiate(r.Context(), token, services.InitiatePaymentInput{
		Method:      method,
		PhoneNumber: req.PhoneNumber,
		Months:      req.Months,
		BouquetID:   strings.TrimSpace(req.BouquetID),
	})

	a := models.Activity{Action: "payment_initiate", Phone: utils.NormalizePhone(req.PhoneNumber)}
	if res != nil {
		a.Reference = res.PaymentID
	}
	h.record(r, a, err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.metrics.PaymentRequested(string(method))
	writeJSON(w, http.StatusOK, initiateResponse{
		Success:      true,
		PaymentID:    res.PaymentID,
		Amount:       res.Amount,
		Status:       res.Status,
		Message:      res.Message,
		Instructions: res.Instructions,
	})
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/AnshRaj112/patience-portal/internal/services"
)

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// SubscriberData handles GET /api/subscriber/data?resource=...
func (h *Handler) SubscriberData(w http.ResponseWriter, r *http.Request) {
	token, ok := requireToken(w, r)
	if !ok {
		return
	}
	resource := services.Resource(strings.TrimSpace(r.URL.Query().Get("resource")))
	data, err := h.portal.Fetch(r.Context(), token, resource)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: data})
}

package controller

import (
	"net/http"

	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	"github.com/cassiomorais/paycore/internal/gateway"
	"github.com/cassiomorais/paycore/internal/gateway/registry"
	"github.com/go-chi/chi/v5"
)

// GatewayController exposes the provider registry: discovery, client tokens
// and stored payment sources.
type GatewayController struct {
	orchestrator *paymentApp.Orchestrator
	registry     *registry.Registry
}

func NewGatewayController(orchestrator *paymentApp.Orchestrator, reg *registry.Registry) *GatewayController {
	return &GatewayController{orchestrator: orchestrator, registry: reg}
}

// List handles GET /api/v1/gateways?currency=USD&active_only=true
func (h *GatewayController) List(w http.ResponseWriter, r *http.Request) {
	currency := r.URL.Query().Get("currency")
	activeOnly := r.URL.Query().Get("active_only") != "false"

	views := h.orchestrator.ListPaymentGateways(currency, activeOnly)
	writeJSON(w, http.StatusOK, views)
}

// ClientToken handles POST /api/v1/gateways/{id}/client-token
func (h *GatewayController) ClientToken(w http.ResponseWriter, r *http.Request) {
	gatewayID := chi.URLParam(r, "id")

	var req ClientTokenRequest
	if r.ContentLength > 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	token, err := h.orchestrator.GetClientToken(r.Context(), gatewayID, gateway.TokenConfig{
		CustomerID: req.CustomerID,
		ChannelID:  req.ChannelID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ClientTokenResponse{Token: token})
}

// Sources handles GET /api/v1/gateways/{id}/sources?customer_id=...
func (h *GatewayController) Sources(w http.ResponseWriter, r *http.Request) {
	gatewayID := chi.URLParam(r, "id")
	customerID := r.URL.Query().Get("customer_id")
	if customerID == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "customer_id is required", Code: "validation_error"})
		return
	}

	sources, err := h.orchestrator.ListPaymentSources(r.Context(), gatewayID, customerID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*SourceResponse, 0, len(sources))
	for _, s := range sources {
		sr := &SourceResponse{ID: s.ID, Gateway: s.Gateway}
		if s.CreditCard != nil {
			sr.CreditCard = &MethodInfo{
				Brand:      s.CreditCard.Brand,
				LastDigits: s.CreditCard.LastDigits,
				ExpMonth:   s.CreditCard.ExpMonth,
				ExpYear:    s.CreditCard.ExpYear,
				Type:       s.CreditCard.Type,
			}
		}
		resp = append(resp, sr)
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetActive handles PUT /api/v1/gateways/{id}/active
func (h *GatewayController) SetActive(w http.ResponseWriter, r *http.Request) {
	gatewayID := chi.URLParam(r, "id")

	var req struct {
		Active bool `json:"active"`
	}
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if !h.registry.SetActive(gatewayID, req.Active) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "gateway not found", Code: "not_found"})
		return
	}

	views := h.orchestrator.ListPaymentGateways("", false)
	for _, v := range views {
		if v.ID == gatewayID {
			writeJSON(w, http.StatusOK, v)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": gatewayID, "active": req.Active})
}

package controller

import (
	"net/http"

	paymentApp "github.com/cassiomorais/paycore/internal/application/payment"
	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/domain/money"
	"github.com/cassiomorais/paycore/internal/domain/payment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PaymentController handles payment-related HTTP requests.
type PaymentController struct {
	orchestrator *paymentApp.Orchestrator
}

// NewPaymentController creates a new PaymentController.
func NewPaymentController(orchestrator *paymentApp.Orchestrator) *PaymentController {
	return &PaymentController{orchestrator: orchestrator}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	total, err := money.New(req.Amount, req.Currency)
	if err != nil {
		writeError(w, domainErrors.NewValidationError("amount", err.Error()))
		return
	}

	var checkoutID, orderID *uuid.UUID
	if req.CheckoutID != nil {
		if checkoutID = parseUUID(*req.CheckoutID); checkoutID == nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid checkout_id", Code: "invalid_id"})
			return
		}
	}
	if req.OrderID != nil {
		if orderID = parseUUID(*req.OrderID); orderID == nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order_id", Code: "invalid_id"})
			return
		}
	}

	p, err := h.orchestrator.CreatePayment(r.Context(), paymentApp.CreatePaymentRequest{
		Gateway:    req.Gateway,
		Total:      total,
		Email:      req.Email,
		CheckoutID: checkoutID,
		OrderID:    orderID,
		Billing:    toBillingAddress(req.Billing),
		ReturnURL:  req.ReturnURL,
		ExtraData:  req.ExtraData,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, FromPayment(p))
}

// GetPayment handles GET /api/v1/payments/{id}
func (h *PaymentController) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.orchestrator.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromPayment(p))
}

// GetTransactions handles GET /api/v1/payments/{id}/transactions
func (h *PaymentController) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	txns, err := h.orchestrator.GetTransactions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]*TransactionResponse, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, FromTransaction(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Authorize handles POST /api/v1/payments/{id}/authorize
func (h *PaymentController) Authorize(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.orchestrator.Authorize(r.Context(), id, req.Token)
	h.writeTransaction(w, txn, err)
}

// Capture handles POST /api/v1/payments/{id}/capture
func (h *PaymentController) Capture(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	amount, ok := h.optionalAmount(w, r, id)
	if !ok {
		return
	}

	txn, err := h.orchestrator.Capture(r.Context(), id, amount)
	h.writeTransaction(w, txn, err)
}

// Refund handles POST /api/v1/payments/{id}/refund
func (h *PaymentController) Refund(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	amount, ok := h.optionalAmount(w, r, id)
	if !ok {
		return
	}

	txn, err := h.orchestrator.Refund(r.Context(), id, amount)
	h.writeTransaction(w, txn, err)
}

// Void handles POST /api/v1/payments/{id}/void
func (h *PaymentController) Void(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	txn, err := h.orchestrator.Void(r.Context(), id)
	h.writeTransaction(w, txn, err)
}

// Confirm handles POST /api/v1/payments/{id}/confirm
func (h *PaymentController) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	txn, err := h.orchestrator.Confirm(r.Context(), id)
	h.writeTransaction(w, txn, err)
}

// Process handles POST /api/v1/payments/{id}/process
func (h *PaymentController) Process(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.orchestrator.Process(r.Context(), id, req.Token, req.StoreSource)
	h.writeTransaction(w, txn, err)
}

// Charge handles POST /api/v1/payments/{id}/charge
func (h *PaymentController) Charge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req TokenRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.orchestrator.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := parseAmount(req.Amount, p.Currency())
	if err != nil {
		writeError(w, domainErrors.NewValidationError("amount", err.Error()))
		return
	}

	txn, err := h.orchestrator.Charge(r.Context(), id, req.Token, amount)
	h.writeTransaction(w, txn, err)
}

// AttachOrder handles POST /api/v1/payments/{id}/attach-order
func (h *PaymentController) AttachOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req AttachOrderRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}
	orderID := parseUUID(req.OrderID)
	if orderID == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid order_id", Code: "invalid_id"})
		return
	}

	p, err := h.orchestrator.AttachOrder(r.Context(), id, *orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}

// Deactivate handles POST /api/v1/payments/{id}/deactivate
func (h *PaymentController) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.orchestrator.DeactivatePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.orchestrator.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromPayment(p))
}

// writeTransaction renders the operation outcome. A provider decline still
// produced a committed transaction row; the client gets the error status
// but the audit record exists and GetTransactions will show it.
func (h *PaymentController) writeTransaction(w http.ResponseWriter, txn *payment.Transaction, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FromTransaction(txn))
}

// optionalAmount decodes the optional amount body for capture and refund.
// An empty body means the operation default (remaining balance).
func (h *PaymentController) optionalAmount(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*money.Money, bool) {
	var req AmountRequest
	if r.ContentLength > 0 {
		if err := decodeAndValidate(r, &req); err != nil {
			writeError(w, err)
			return nil, false
		}
	}
	if req.Amount == nil {
		return nil, true
	}

	p, err := h.orchestrator.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	amount, err := parseAmount(req.Amount, p.Currency())
	if err != nil {
		writeError(w, domainErrors.NewValidationError("amount", err.Error()))
		return nil, false
	}
	return amount, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid payment id", Code: "invalid_id"})
		return uuid.Nil, false
	}
	return id, true
}

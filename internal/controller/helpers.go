package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	domainErrors "github.com/cassiomorais/paycore/internal/domain/errors"
	"github.com/cassiomorais/paycore/internal/webhook"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = validator.New()

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrPaymentNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrOrderNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrCurrencyMismatch, http.StatusBadRequest, "currency_mismatch"},
	{webhook.ErrUnknownGateway, http.StatusNotFound, "unknown_gateway"},
	{webhook.ErrBadSignature, http.StatusUnauthorized, "bad_signature"},
}

// paymentCodeStatus maps orchestrator failure codes onto HTTP statuses.
// Provider declines are 402; state machine refusals are 409; a gateway that
// is down or unregistered is 503.
var paymentCodeStatus = map[domainErrors.PaymentCode]int{
	domainErrors.CodeNotActive:               http.StatusConflict,
	domainErrors.CodeInvalidState:            http.StatusConflict,
	domainErrors.CodeUnauthorizedTransaction: http.StatusConflict,
	domainErrors.CodeBillingAddressNotSet:    http.StatusBadRequest,
	domainErrors.CodeAmountInvalid:           http.StatusBadRequest,
	domainErrors.CodeGatewayNotAvailable:     http.StatusServiceUnavailable,
	domainErrors.CodePaymentError:            http.StatusPaymentRequired,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			resp.Code = m.code
			writeJSON(w, m.status, resp)
			return
		}
	}

	var paymentErr *domainErrors.PaymentError
	if errors.As(err, &paymentErr) {
		resp.Code = string(paymentErr.Code)
		status, ok := paymentCodeStatus[paymentErr.Code]
		if !ok {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, resp)
		return
	}

	var gatewayErr *domainErrors.GatewayError
	if errors.As(err, &gatewayErr) {
		resp.Code = "gateway_contract_violation"
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

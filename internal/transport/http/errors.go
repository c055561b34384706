package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/COS301-SE-2025/Save-n-Bite-sub000/internal/domain"
)

const (
	codeInvalidRequestBody   = "invalid_request_body"
	codeInvalidQuantity      = "invalid_quantity"
	codeInvalidPrice         = "invalid_price"
	codeInvalidTotalQuantity = "invalid_total_quantity"
	codeListingNameRequired  = "listing_name_required"
	codeInvalidID            = "invalid_id"
	codeRejectionRequired    = "rejection_reason_required"
	codeUnauthenticated      = "unauthenticated"
	codeForbidden            = "forbidden"
	codePickupCodeMismatch   = "pickup_code_mismatch"
	codeNotFound             = "not_found"
	codeListingNotFound      = "listing_not_found"
	codeCartNotFound         = "cart_not_found"
	codeCartLineNotFound     = "cart_line_not_found"
	codeSessionNotFound      = "session_not_found"
	codeInteractionNotFound  = "interaction_not_found"
	codeOrderNotFound        = "order_not_found"
	codeInsufficientQuantity = "insufficient_quantity"
	codeListingExpired       = "listing_expired"
	codeCartLimitExceeded    = "cart_limit_exceeded"
	codeEmptyCart            = "empty_cart"
	codeSessionActive        = "session_already_active"
	codeSessionExpired       = "session_expired"
	codeSessionNotActive     = "session_not_active"
	codeIllegalTransition    = "illegal_transition"
	codePaymentFailed        = "payment_failed"
	codeNotDonation          = "not_a_donation"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Context map[string]any `json:"context,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorContext(w, status, code, msg, nil)
}

func writeErrorContext(w http.ResponseWriter, status int, code, msg string, context map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{Error: msg, Code: code, Context: context})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps domain errors onto stable machine-readable codes,
// attaching structured context where the error carries it.
func writeServiceError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientQuantityError
	if errors.As(err, &insufficient) {
		writeErrorContext(w, http.StatusConflict, codeInsufficientQuantity, err.Error(), map[string]any{
			"listing_id": insufficient.ListingID,
			"available":  insufficient.Available,
			"requested":  insufficient.Requested,
		})
		return
	}
	var illegal *domain.IllegalTransitionError
	if errors.As(err, &illegal) {
		allowed := make([]string, 0, len(illegal.Allowed))
		for _, s := range illegal.Allowed {
			allowed = append(allowed, string(s))
		}
		writeErrorContext(w, http.StatusConflict, codeIllegalTransition, err.Error(), map[string]any{
			"entity":              string(illegal.Kind),
			"old_status":          string(illegal.From),
			"new_status":          string(illegal.To),
			"allowed_transitions": allowed,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidQuantity, err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusBadRequest, codeInvalidPrice, err.Error())
	case errors.Is(err, domain.ErrInvalidTotalQuantity):
		writeError(w, http.StatusBadRequest, codeInvalidTotalQuantity, err.Error())
	case errors.Is(err, domain.ErrListingNameRequired):
		writeError(w, http.StatusBadRequest, codeListingNameRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrRejectionReasonRequired):
		writeError(w, http.StatusBadRequest, codeRejectionRequired, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrPickupCodeMismatch):
		writeError(w, http.StatusForbidden, codePickupCodeMismatch, err.Error())
	case errors.Is(err, domain.ErrListingNotFound):
		writeError(w, http.StatusNotFound, codeListingNotFound, err.Error())
	case errors.Is(err, domain.ErrCartNotFound):
		writeError(w, http.StatusNotFound, codeCartNotFound, err.Error())
	case errors.Is(err, domain.ErrCartLineNotFound):
		writeError(w, http.StatusNotFound, codeCartLineNotFound, err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, codeSessionNotFound, err.Error())
	case errors.Is(err, domain.ErrInteractionNotFound):
		writeError(w, http.StatusNotFound, codeInteractionNotFound, err.Error())
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, codeOrderNotFound, err.Error())
	case errors.Is(err, domain.ErrListingExpired):
		writeError(w, http.StatusConflict, codeListingExpired, err.Error())
	case errors.Is(err, domain.ErrListingInactive):
		writeError(w, http.StatusConflict, codeListingExpired, err.Error())
	case errors.Is(err, domain.ErrCartLimitExceeded):
		writeError(w, http.StatusConflict, codeCartLimitExceeded, err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		writeError(w, http.StatusConflict, codeEmptyCart, err.Error())
	case errors.Is(err, domain.ErrSessionAlreadyActive):
		writeError(w, http.StatusConflict, codeSessionActive, err.Error())
	case errors.Is(err, domain.ErrSessionExpired):
		writeError(w, http.StatusConflict, codeSessionExpired, err.Error())
	case errors.Is(err, domain.ErrSessionNotActive):
		writeError(w, http.StatusConflict, codeSessionNotActive, err.Error())
	case errors.Is(err, domain.ErrPaymentFailed):
		writeError(w, http.StatusConflict, codePaymentFailed, err.Error())
	case errors.Is(err, domain.ErrNotDonation):
		writeError(w, http.StatusConflict, codeNotDonation, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

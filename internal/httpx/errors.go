package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/pressplay/gamestore/internal/auth"
	"github.com/pressplay/gamestore/internal/cart"
	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/users"
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Message: message, Code: code})
}

// writeErr maps a domain error to its stable machine-readable code. Every
// mutating endpoint either fully succeeds or reports exactly one kind.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "catalog/insufficient-stock", "Insufficient stock for this variant")
	case errors.Is(err, catalog.ErrVariantNotFound):
		writeError(w, http.StatusNotFound, "catalog/variant-not-found", "Variant not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "catalog/product-not-found", "Product not found")
	case errors.Is(err, cart.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "cart/invalid-quantity", "Quantity must be a positive integer")
	case errors.Is(err, orders.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "order/empty-cart", "Cart is empty")
	case errors.Is(err, orders.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "order/invalid-transition", "Status transition not allowed")
	case errors.Is(err, orders.ErrRiderRequired):
		writeError(w, http.StatusConflict, "order/rider-required", "Shipping requires an assigned rider")
	case errors.Is(err, orders.ErrInvalidPayment):
		writeError(w, http.StatusBadRequest, "order/invalid-payment", "Invalid payment method")
	case errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, "order/not-found", "Order not found")
	case errors.Is(err, users.ErrRiderNotFound):
		writeError(w, http.StatusNotFound, "rider/not-found", "Rider not found")
	case errors.Is(err, users.ErrEmailTaken):
		writeError(w, http.StatusConflict, "rider/email-taken", "User already exists")
	case errors.Is(err, users.ErrNotFound):
		writeError(w, http.StatusNotFound, "user/not-found", "User not found")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "auth/forbidden", "Access denied")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal/error", "Internal error")
	}
}

package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressplay/gamestore/internal/auth"
	"github.com/pressplay/gamestore/internal/cart"
	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/users"
)

func TestWriteErrMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{catalog.ErrInsufficientStock, http.StatusConflict, "catalog/insufficient-stock"},
		{catalog.ErrVariantNotFound, http.StatusNotFound, "catalog/variant-not-found"},
		{catalog.ErrProductNotFound, http.StatusNotFound, "catalog/product-not-found"},
		{cart.ErrInvalidQuantity, http.StatusBadRequest, "cart/invalid-quantity"},
		{orders.ErrEmptyCart, http.StatusBadRequest, "order/empty-cart"},
		{orders.ErrInvalidTransition, http.StatusConflict, "order/invalid-transition"},
		{orders.ErrRiderRequired, http.StatusConflict, "order/rider-required"},
		{orders.ErrNotFound, http.StatusNotFound, "order/not-found"},
		{users.ErrRiderNotFound, http.StatusNotFound, "rider/not-found"},
		{users.ErrEmailTaken, http.StatusConflict, "rider/email-taken"},
		{users.ErrNotFound, http.StatusNotFound, "user/not-found"},
		{auth.ErrForbidden, http.StatusForbidden, "auth/forbidden"},
		{errors.New("boom"), http.StatusInternalServerError, "internal/error"},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		writeErr(rec, c.err)
		assert.Equalf(t, c.status, rec.Code, "status for %v", c.err)

		var body apiError
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equalf(t, c.code, body.Code, "code for %v", c.err)
		assert.NotEmpty(t, body.Message)
	}
}

func TestWriteErrUnwrapsWrappedErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeErr(rec, fmt.Errorf("transition: %w: Pending -> Shipped", orders.ErrInvalidTransition))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "order/invalid-transition", body.Code)
}

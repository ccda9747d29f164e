package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/pressplay/gamestore/internal/auth"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/redisx"
	"github.com/pressplay/gamestore/internal/users"
)

type OrdersHandler struct {
	Orders *orders.Service
	Redis  *redis.Client
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.listMine)
		r.Get("/{id}", h.get)
		r.Get("/{id}/status", h.getStatus)
	})
}

type createOrderReq struct {
	CustomerDetails orders.CustomerDetails `json:"customer_details"`
	PaymentMethod   string                 `json:"payment_method"`
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}
	d := req.CustomerDetails
	if d.Name == "" || d.Phone == "" || d.Address == "" {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "name, phone and address are required")
		return
	}

	ord, err := h.Orders.Create(r.Context(), p.UserID, d, req.PaymentMethod)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(r, ord)
	writeJSON(w, http.StatusCreated, ord)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.Orders.ListForUser(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	ord, err := h.Orders.Get(r.Context(), id, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ord)
}

type statusCacheEntry struct {
	Status orders.Status `json:"status"`
	Owner  string        `json:"owner"`
}

// getStatus serves from the redis cache when warm, falling back to the
// store and refilling on miss. The cache entry carries the owner so a hit
// still honors role-scoped visibility.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, id.Hex())
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil && s != "" {
		var entry statusCacheEntry
		if json.Unmarshal([]byte(s), &entry) == nil {
			if entry.Owner == p.UserID.Hex() || p.Role == users.RoleAdmin {
				writeJSON(w, http.StatusOK, map[string]any{"status": entry.Status})
				return
			}
			writeErr(w, auth.ErrForbidden)
			return
		}
	}

	ord, err := h.Orders.Get(r.Context(), id, p)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.cacheStatus(r, ord)
	writeJSON(w, http.StatusOK, map[string]any{"status": ord.Status})
}

func (h *OrdersHandler) cacheStatus(r *http.Request, ord orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, ord.ID.Hex())
	body, _ := json.Marshal(statusCacheEntry{Status: ord.Status, Owner: ord.UserID.Hex()})
	_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
}

package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/pressplay/gamestore/internal/cart"
	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/redisx"
)

type CartHandler struct {
	Cart  *cart.Service
	Redis *redis.Client
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Post("/add", h.add)
		r.Get("/", h.get)
		r.Get("/count", h.count)
		r.Delete("/remove/{productID}", h.remove)
		r.Delete("/clear", h.clear)
	})
}

type addToCartReq struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}
	if req.Color == "" || req.Size == "" {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "color and size are required")
		return
	}
	productID, ok := parseObjectID(w, req.ProductID)
	if !ok {
		return
	}

	key := catalog.VariantKey{ProductID: productID, Color: req.Color, Size: req.Size}
	snap, err := h.Cart.AddOrUpdate(r.Context(), p.UserID, key, req.Quantity)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.dropCountCache(r, p.UserID.Hex())
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	snap, err := h.Cart.Snapshot(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) count(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf(redisx.KeyCartCount, p.UserID.Hex())
	if s, err := h.Redis.Get(r.Context(), key).Result(); err == nil {
		if n, err := strconv.Atoi(s); err == nil {
			writeJSON(w, http.StatusOK, map[string]int{"count": n})
			return
		}
	}

	n, err := h.Cart.CountItems(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	_ = h.Redis.Set(r.Context(), key, strconv.Itoa(n), redisx.TTLCountCache).Err()
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	productID, ok := parseObjectID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}
	color := r.URL.Query().Get("color")
	size := r.URL.Query().Get("size")
	if color == "" || size == "" {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "color and size are required")
		return
	}

	key := catalog.VariantKey{ProductID: productID, Color: color, Size: size}
	snap, err := h.Cart.Remove(r.Context(), p.UserID, key)
	if err != nil {
		writeErr(w, err)
		return
	}
	h.dropCountCache(r, p.UserID.Hex())
	writeJSON(w, http.StatusOK, snap)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := h.Cart.Clear(r.Context(), p.UserID); err != nil {
		writeErr(w, err)
		return
	}
	h.dropCountCache(r, p.UserID.Hex())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (h *CartHandler) dropCountCache(r *http.Request, userID string) {
	_ = h.Redis.Del(r.Context(), fmt.Sprintf(redisx.KeyCartCount, userID)).Err()
}

package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/catalog"
	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/redisx"
	"github.com/pressplay/gamestore/internal/users"
)

// AdminHandler serves the admin surface: order oversight, rider roster and
// stock restocks. Routes are mounted behind RequireRole(admin).
type AdminHandler struct {
	Orders *orders.Service
	Users  *users.Directory
	Ledger *catalog.Ledger
	Redis  *redis.Client
}

func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Patch("/orders/{id}", h.updateOrder)
	r.Get("/riders", h.listRiders)
	r.Post("/riders", h.createRider)
	r.Put("/riders/{id}", h.updateRider)
	r.Delete("/riders/{id}", h.deleteRider)
	r.Get("/riders/{id}/orders", h.riderOrders)
	r.Patch("/products/stock", h.adjustStock)
}

func (h *AdminHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.Orders.ListAll(r.Context(), p)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

type updateOrderReq struct {
	Status  string `json:"status,omitempty"`
	RiderID string `json:"rider_id,omitempty"`
}

// updateOrder moves the status and/or assigns a rider. Assign-then-ship is
// one call and one write, never two.
func (h *AdminHandler) updateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req updateOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}
	if req.Status == "" && req.RiderID == "" {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "status or rider_id is required")
		return
	}

	var riderID *primitive.ObjectID
	if req.RiderID != "" {
		rid, ok := parseObjectID(w, req.RiderID)
		if !ok {
			return
		}
		riderID = &rid
	}

	var (
		ord orders.Order
		err error
	)
	if req.Status != "" {
		target, valid := orders.ParseStatus(req.Status)
		if !valid {
			writeError(w, http.StatusBadRequest, "order/invalid-status", "Unknown status")
			return
		}
		ord, err = h.Orders.Transition(r.Context(), id, target, p, riderID)
	} else {
		ord, err = h.Orders.AssignRider(r.Context(), id, *riderID, p)
	}
	if err != nil {
		writeErr(w, err)
		return
	}

	h.cacheStatus(r, ord)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Order updated", "order": ord})
}

type riderView struct {
	users.User
	AssignedOrders int64 `json:"assigned_orders"`
}

func (h *AdminHandler) listRiders(w http.ResponseWriter, r *http.Request) {
	riders, err := h.Users.ListRiders(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	out := make([]riderView, 0, len(riders))
	for _, rd := range riders {
		n, err := h.Orders.CountForRider(r.Context(), rd.ID)
		if err != nil {
			writeErr(w, err)
			return
		}
		out = append(out, riderView{User: rd, AssignedOrders: n})
	}
	writeJSON(w, http.StatusOK, map[string]any{"riders": out})
}

type createRiderReq struct {
	SubjectID     string `json:"subject_id,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address,omitempty"`
	VehicleType   string `json:"vehicle_type,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

func (h *AdminHandler) createRider(w http.ResponseWriter, r *http.Request) {
	var req createRiderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Phone == "" {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "name, email and phone are required")
		return
	}
	if req.SubjectID == "" {
		// provisional subject until the identity provider account is linked
		req.SubjectID = uuid.NewString()
	}

	rider, err := h.Users.CreateRider(r.Context(), users.RiderInput{
		SubjectID: req.SubjectID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		Details: users.RiderDetails{
			VehicleType:   req.VehicleType,
			LicenseNumber: req.LicenseNumber,
		},
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Rider created", "rider": rider})
}

type updateRiderReq struct {
	Name          string `json:"name,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	VehicleType   string `json:"vehicle_type,omitempty"`
	LicenseNumber string `json:"license_number,omitempty"`
}

func (h *AdminHandler) updateRider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req updateRiderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}

	rider, err := h.Users.UpdateRider(r.Context(), id, users.RiderUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Details: users.RiderDetails{
			VehicleType:   req.VehicleType,
			LicenseNumber: req.LicenseNumber,
		},
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Rider updated", "rider": rider})
}

func (h *AdminHandler) deleteRider(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if err := h.Users.DeleteRider(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Rider deleted"})
}

func (h *AdminHandler) riderOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if _, err := h.Users.Rider(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	list, err := h.Orders.ListForRider(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

type adjustStockReq struct {
	ProductID       string `json:"product_id"`
	Color           string `json:"color"`
	Size            string `json:"size"`
	AdditionalStock int    `json:"additional_stock"`
}

func (h *AdminHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req adjustStockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}
	if req.Color == "" || req.Size == "" {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "color and size are required")
		return
	}
	if req.AdditionalStock == 0 {
		writeError(w, http.StatusBadRequest, "request/missing-fields", "additional_stock must be non-zero")
		return
	}
	productID, ok := parseObjectID(w, req.ProductID)
	if !ok {
		return
	}

	key := catalog.VariantKey{ProductID: productID, Color: req.Color, Size: req.Size}
	v, err := h.Ledger.AdjustStock(r.Context(), key, req.AdditionalStock)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Stock updated", "variant": v})
}

func (h *AdminHandler) cacheStatus(r *http.Request, ord orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, ord.ID.Hex())
	body, _ := json.Marshal(statusCacheEntry{Status: ord.Status, Owner: ord.UserID.Hex()})
	_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()
}

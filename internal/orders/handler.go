package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ChaoticGoodAdmi/beans-order/internal/domain"
)

// UserIDHeader carries the caller identity. It is trusted as given.
const UserIDHeader = "X-User-Id"

const maxBodyBytes = 1 << 20

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the order routes on mux. wrap is applied to every handler
// and may be nil.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}
	mux.HandleFunc("POST /orders", wrap(h.HandleCreate))
	mux.HandleFunc("PUT /orders/{id}/status", wrap(h.HandleUpdateStatus))
	mux.HandleFunc("PATCH /orders/{id}/status", wrap(h.HandleUpdateStatus))
	mux.HandleFunc("GET /orders/user/{userId}", wrap(h.HandleListByUser))
	mux.HandleFunc("GET /orders/coffee-shop/{coffeeShopId}", wrap(h.HandleDashboard))
	mux.HandleFunc("GET /orders/{id}", wrap(h.HandleGet))
}

type orderItemRequest struct {
	ProductID string          `json:"productId"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type createOrderRequest struct {
	CoffeeShopID          string             `json:"coffeeShopId"`
	Items                 []orderItemRequest `json:"items"`
	BonusPointsForPayment int                `json:"bonusPointsForPayment"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	result, err := h.service.CreateOrder(r.Context(), CreateOrderInput{
		UserID:       r.Header.Get(UserIDHeader),
		CoffeeShopID: req.CoffeeShopID,
		Items:        items,
		BonusPoints:  req.BonusPointsForPayment,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, result)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.GetOrdersByUser(r.Context(), r.PathValue("userId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("orders listed for user", "user_id", r.PathValue("userId"), "count", len(orders))
	h.writeJSON(w, http.StatusOK, toViews(orders))
}

type dashboardResponse struct {
	NeedToDeliver []orderView `json:"needToDeliver"`
	NeedToFinish  []orderView `json:"needToFinish"`
	NeedToPrepare []orderView `json:"needToPrepare"`
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.GetOrdersByCoffeeShop(r.Context(), r.PathValue("coffeeShopId"))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, dashboardResponse{
		NeedToDeliver: toViews(dashboard.NeedToDeliver),
		NeedToFinish:  toViews(dashboard.NeedToFinish),
		NeedToPrepare: toViews(dashboard.NeedToPrepare),
	})
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrderByID(r.Context(), id, r.Header.Get(UserIDHeader))
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, toView(*order))
}

type orderItemView struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type orderView struct {
	OrderID         int64              `json:"orderId"`
	CoffeeShopID    string             `json:"coffeeShopId"`
	Items           []orderItemView    `json:"items"`
	TotalCost       decimal.Decimal    `json:"totalCost"`
	BonusPointsUsed int                `json:"bonusPointsUsed"`
	CreatedAt       time.Time          `json:"createdAt"`
	FinishedAt      *time.Time         `json:"finishedAt,omitempty"`
	Status          domain.OrderStatus `json:"status"`
}

func toView(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemView{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return orderView{
		OrderID:         o.ID,
		CoffeeShopID:    o.CoffeeShopID,
		Items:           items,
		TotalCost:       o.TotalCost,
		BonusPointsUsed: o.BonusPointsUsed,
		CreatedAt:       o.CreatedAt,
		FinishedAt:      o.FinishedAt,
		Status:          o.Status,
	}
}

func toViews(orders []domain.Order) []orderView {
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toView(o))
	}
	return views
}

// decode reads at most maxBodyBytes of JSON into dst.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Field+" "+verr.Reason)
	case errors.Is(err, domain.ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrAccessDenied):
		h.writeError(w, http.StatusForbidden, "access denied")
	default:
		h.logger.Error("order request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

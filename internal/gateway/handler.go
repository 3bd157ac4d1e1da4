package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

type Handler struct {
	ordersProxy *ServiceProxy
	logger      *slog.Logger
}

func NewHandler(ordersProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		ordersProxy: ordersProxy,
		logger:      logger,
	}
}

// Register mounts the public order routes. wrap may be nil.
func (h *Handler) Register(mux *http.ServeMux, wrap func(http.HandlerFunc) http.HandlerFunc) {
	if wrap == nil {
		wrap = func(f http.HandlerFunc) http.HandlerFunc { return f }
	}
	mux.HandleFunc("POST /orders", wrap(h.HandleOrders))
	mux.HandleFunc("PUT /orders/{id}/status", wrap(h.HandleOrders))
	mux.HandleFunc("PATCH /orders/{id}/status", wrap(h.HandleOrders))
	mux.HandleFunc("GET /orders/user/{userId}", wrap(h.HandleOrders))
	mux.HandleFunc("GET /orders/coffee-shop/{coffeeShopId}", wrap(h.HandleOrders))
	mux.HandleFunc("GET /orders/{id}", wrap(h.HandleOrders))
}

func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	resp, err := h.ordersProxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}

package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/egannguyen/printshop-backend/internal/entity"
	"github.com/egannguyen/printshop-backend/internal/service"
)

const maxBodyBytes = 1 << 20

// Handler handles HTTP requests for the application.
type Handler struct {
	catalogSvc *service.CatalogService
	orderSvc   *service.OrderService
	reportSvc  *service.ReportService
}

func NewHandler(catalogSvc *service.CatalogService, orderSvc *service.OrderService, reportSvc *service.ReportService) *Handler {
	return &Handler{
		catalogSvc: catalogSvc,
		orderSvc:   orderSvc,
		reportSvc:  reportSvc,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleStorefront)

	mux.HandleFunc("GET /api/services", h.handleListServices)
	mux.HandleFunc("GET /api/services/{id}", h.handleGetService)
	mux.HandleFunc("POST /api/services", h.handleAddService)
	mux.HandleFunc("DELETE /api/services/{id}", h.handleDeleteService)

	mux.HandleFunc("POST /api/orders", h.handleCreateOrder)
	mux.HandleFunc("GET /api/orders", h.handleListOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.handleGetOrder)
	mux.HandleFunc("PUT /api/orders/{id}", h.handleUpdateOrder)
	mux.HandleFunc("PATCH /api/orders/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.handleUpdateStatus)
	mux.HandleFunc("DELETE /api/orders/{id}", h.handleDeleteOrder)
	mux.HandleFunc("GET /api/orders/{id}/events", h.handleOrderHistory)

	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /api/health", h.handleHealth)
}

type storefrontResponse struct {
	Sections []entity.CatalogSection `json:"sections"`
	Fallback bool                    `json:"fallback"`
}

func (h *Handler) handleStorefront(w http.ResponseWriter, r *http.Request) {
	sections, fallback, err := h.catalogSvc.StaticCatalog(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, storefrontResponse{Sections: sections, Fallback: fallback})
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped"))
	if grouped {
		sections, err := h.catalogSvc.ListSections(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, sections)
		return
	}

	services, err := h.catalogSvc.ListServices(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	svc, err := h.catalogSvc.GetService(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *Handler) handleAddService(w http.ResponseWriter, r *http.Request) {
	var req entity.NewService
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svc, err := h.catalogSvc.AddService(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalogSvc.DeleteService(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	raw, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	result, err := h.orderSvc.CreateOrder(r.Context(), raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderSvc.ListOrders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orderSvc.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	raw, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	order, err := h.orderSvc.UpdateOrder(r.Context(), id, raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.orderSvc.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order_id": id, "status": strings.TrimSpace(req.Status)})
}

func (h *Handler) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.orderSvc.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	records, err := h.orderSvc.OrderHistory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportSvc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.reportSvc.Health(r.Context())
	status := http.StatusOK
	if !health.OK {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeSubmission reads a JSON object body. Numbers are kept as
// json.Number so ids and prices survive without float rounding.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (entity.RawSubmission, bool) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()

	var raw entity.RawSubmission
	if err := dec.Decode(&raw); err != nil || raw == nil {
		http.Error(w, "invalid request body: expected a JSON object", http.StatusBadRequest)
		return nil, false
	}
	return raw, true
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps a service error to a status code. Storage failures are
// logged in full and reported generically.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var missing *entity.MissingFieldError
	switch {
	case errors.As(err, &missing):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: missing.Field})
	case errors.Is(err, entity.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrNotFound), errors.Is(err, entity.ErrInvalidReference):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "err", err)
	}
}

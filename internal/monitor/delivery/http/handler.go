package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shelfwatch/shelfwatch/internal/monitor"
	"github.com/shelfwatch/shelfwatch/internal/monitor/detector"
	"github.com/shelfwatch/shelfwatch/internal/monitor/usecase/command"
	"github.com/shelfwatch/shelfwatch/internal/monitor/usecase/query"
	"github.com/shelfwatch/shelfwatch/internal/report"
	"github.com/shelfwatch/shelfwatch/internal/store"
	"github.com/shelfwatch/shelfwatch/pkg/logger"
)

var (
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_service_requests_total",
			Help: "Total number of requests to the monitor service",
		},
		[]string{"method", "endpoint", "status"},
	)

	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_service_request_duration_seconds",
			Help:    "Duration of monitor service requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// MonitorHandler handles HTTP requests for the inventory dashboard
type MonitorHandler struct {
	// Command handlers
	createHandler     *command.CreateProductHandler
	deleteHandler     *command.DeleteProductHandler
	updateHandler     *command.UpdateProductHandler
	thresholdsHandler *command.UpdateThresholdsHandler
	clearAlerts       *command.ClearAlertsHandler
	clearSales        *command.ClearSalesHandler
	clearRefills      *command.ClearRefillsHandler

	// Query handlers
	listProducts *query.ListProductsHandler
	listAlerts   *query.ListAlertsHandler
	listSales    *query.ListSalesHandler
	statsHandler *query.GetStatsHandler

	st     store.Store
	engine *monitor.Engine
	clock  detector.Clock
}

// NewMonitorHandler creates a new monitor handler
func NewMonitorHandler(st store.Store, engine *monitor.Engine, clock detector.Clock) *MonitorHandler {
	return &MonitorHandler{
		createHandler:     command.NewCreateProductHandler(st),
		deleteHandler:     command.NewDeleteProductHandler(st, engine),
		updateHandler:     command.NewUpdateProductHandler(st),
		thresholdsHandler: command.NewUpdateThresholdsHandler(st),
		clearAlerts:       command.NewClearAlertsHandler(st, engine),
		clearSales:        command.NewClearSalesHandler(st),
		clearRefills:      command.NewClearRefillsHandler(st),
		listProducts:      query.NewListProductsHandler(engine),
		listAlerts:        query.NewListAlertsHandler(st),
		listSales:         query.NewListSalesHandler(st),
		statsHandler:      query.NewGetStatsHandler(engine, st, clock),
		st:                st,
		engine:            engine,
		clock:             clock,
	}
}

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// metricsMiddleware wraps handlers with Prometheus metrics
func (h *MonitorHandler) metricsMiddleware(endpoint string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		requestLatency.WithLabelValues(r.Method, endpoint).Observe(duration)
		requestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(rw.statusCode)).Inc()
	}
}

// ListProducts handles GET /api/products
func (h *MonitorHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.listProducts.Handle(query.ListProductsQuery{})
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    products,
	})
}

// CreateProduct handles POST /api/products
func (h *MonitorHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := h.createHandler.Handle(r.Context(), command.CreateProductCommand{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to create product")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product created successfully",
		Data:    map[string]string{"id": id},
	})
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *MonitorHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := h.deleteHandler.Handle(r.Context(), command.DeleteProductCommand{ProductID: vars["id"]})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product deleted successfully",
	})
}

// UpdateName handles PATCH /api/products/{id}/name
func (h *MonitorHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	err := h.updateHandler.HandleName(r.Context(), command.UpdateNameCommand{
		ProductID: vars["id"],
		Name:      req.Name,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Product name updated successfully",
	})
}

// UpdateItemWeight handles PATCH /api/products/{id}/weight
func (h *MonitorHandler) UpdateItemWeight(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Weight float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	err := h.updateHandler.HandleItemWeight(r.Context(), command.UpdateItemWeightCommand{
		ProductID: vars["id"],
		Weight:    req.Weight,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Item weight updated successfully",
	})
}

// UpdateLowStockThreshold handles PATCH /api/products/{id}/low-stock-threshold
func (h *MonitorHandler) UpdateLowStockThreshold(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Threshold int `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	err := h.thresholdsHandler.HandleLowStock(r.Context(), command.UpdateLowStockThresholdCommand{
		ProductID: vars["id"],
		Threshold: req.Threshold,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Low stock threshold updated successfully",
	})
}

// UpdateTheftThreshold handles PATCH /api/products/{id}/theft-threshold
func (h *MonitorHandler) UpdateTheftThreshold(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var req struct {
		Threshold float64 `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "Invalid request body",
		})
		return
	}

	err := h.thresholdsHandler.HandleTheft(r.Context(), command.UpdateTheftThresholdCommand{
		ProductID: vars["id"],
		Threshold: req.Threshold,
	})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Theft threshold updated successfully",
	})
}

// ClearRefills handles DELETE /api/products/{id}/refills
func (h *MonitorHandler) ClearRefills(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := h.clearRefills.Handle(r.Context(), command.ClearRefillsCommand{ProductID: vars["id"]})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Refill counter cleared successfully",
	})
}

// ClearAllRefills handles DELETE /api/refills
func (h *MonitorHandler) ClearAllRefills(w http.ResponseWriter, r *http.Request) {
	err := h.clearRefills.Handle(r.Context(), command.ClearRefillsCommand{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to clear refill counters")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Refill counters cleared successfully",
	})
}

// ListAlerts handles GET /api/alerts
func (h *MonitorHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.listAlerts.Handle(r.Context(), query.ListAlertsQuery{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list alerts")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list alerts",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    alerts,
	})
}

// DeleteAlert handles DELETE /api/alerts/{id}
func (h *MonitorHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	err := h.clearAlerts.HandleOne(r.Context(), command.ClearAlertCommand{AlertID: vars["id"]})
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Alert dismissed successfully",
	})
}

// ClearAlerts handles DELETE /api/alerts
func (h *MonitorHandler) ClearAlerts(w http.ResponseWriter, r *http.Request) {
	err := h.clearAlerts.HandleAll(r.Context(), command.ClearAllAlertsCommand{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to clear alerts")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Alerts cleared successfully",
	})
}

// ListSales handles GET /api/sales
func (h *MonitorHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.listSales.Handle(r.Context(), query.ListSalesQuery{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to list sales")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to list sales",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    sales,
	})
}

// ClearSales handles DELETE /api/sales. An optional ?product= query narrows
// the wipe to one product's entries.
func (h *MonitorHandler) ClearSales(w http.ResponseWriter, r *http.Request) {
	productName := r.URL.Query().Get("product")

	err := h.clearSales.Handle(r.Context(), command.ClearSalesCommand{ProductName: productName})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to clear sales")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Sales log cleared successfully",
	})
}

// GetStats handles GET /api/stats
func (h *MonitorHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsHandler.Handle(r.Context(), query.GetStatsQuery{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to compute stats")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to compute stats",
		})
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    stats,
	})
}

// GetTheftNotice handles GET /api/theft
func (h *MonitorHandler) GetTheftNotice(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    h.engine.TheftNotice(),
	})
}

// DownloadReport handles GET /api/reports/{period}
func (h *MonitorHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	period, err := report.ParsePeriod(vars["period"])
	if err != nil {
		respondJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	sales, err := h.listSales.Handle(r.Context(), query.ListSalesQuery{})
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to read sales for report")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to build report",
		})
		return
	}

	now := h.clock.Now()
	table := report.BuildTable(sales, period, now)
	data, err := report.BuildXLSX(table)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to render report")
		respondJSON(w, http.StatusInternalServerError, Response{
			Success: false,
			Error:   "Failed to build report",
		})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(period, now)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// RegisterRoutes registers all monitor routes
func (h *MonitorHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/products", h.metricsMiddleware("/api/products", h.ListProducts)).Methods("GET")
	router.HandleFunc("/api/products", h.metricsMiddleware("/api/products", AuthMiddleware(h.CreateProduct))).Methods("POST")
	router.HandleFunc("/api/products/{id}", h.metricsMiddleware("/api/products/{id}", AdminMiddleware(h.DeleteProduct))).Methods("DELETE")
	router.HandleFunc("/api/products/{id}/name", h.metricsMiddleware("/api/products/{id}/name", AuthMiddleware(h.UpdateName))).Methods("PATCH")
	router.HandleFunc("/api/products/{id}/weight", h.metricsMiddleware("/api/products/{id}/weight", AuthMiddleware(h.UpdateItemWeight))).Methods("PATCH")
	router.HandleFunc("/api/products/{id}/low-stock-threshold", h.metricsMiddleware("/api/products/{id}/low-stock-threshold", AuthMiddleware(h.UpdateLowStockThreshold))).Methods("PATCH")
	router.HandleFunc("/api/products/{id}/theft-threshold", h.metricsMiddleware("/api/products/{id}/theft-threshold", AuthMiddleware(h.UpdateTheftThreshold))).Methods("PATCH")
	router.HandleFunc("/api/products/{id}/refills", h.metricsMiddleware("/api/products/{id}/refills", AuthMiddleware(h.ClearRefills))).Methods("DELETE")
	router.HandleFunc("/api/refills", h.metricsMiddleware("/api/refills", AdminMiddleware(h.ClearAllRefills))).Methods("DELETE")

	router.HandleFunc("/api/alerts", h.metricsMiddleware("/api/alerts", h.ListAlerts)).Methods("GET")
	router.HandleFunc("/api/alerts", h.metricsMiddleware("/api/alerts", AdminMiddleware(h.ClearAlerts))).Methods("DELETE")
	router.HandleFunc("/api/alerts/{id}", h.metricsMiddleware("/api/alerts/{id}", AuthMiddleware(h.DeleteAlert))).Methods("DELETE")

	router.HandleFunc("/api/sales", h.metricsMiddleware("/api/sales", h.ListSales)).Methods("GET")
	router.HandleFunc("/api/sales", h.metricsMiddleware("/api/sales", AdminMiddleware(h.ClearSales))).Methods("DELETE")

	router.HandleFunc("/api/stats", h.metricsMiddleware("/api/stats", h.GetStats)).Methods("GET")
	router.HandleFunc("/api/theft", h.metricsMiddleware("/api/theft", h.GetTheftNotice)).Methods("GET")
	router.HandleFunc("/api/reports/{period}", h.metricsMiddleware("/api/reports/{period}", h.DownloadReport)).Methods("GET")
}

// RegisterHealthCheck registers health check endpoint
func (h *MonitorHandler) RegisterHealthCheck(router *mux.Router) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.st.Snapshot(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Store unavailable",
			})
			return
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Monitor service is healthy",
		})
	}).Methods("GET")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

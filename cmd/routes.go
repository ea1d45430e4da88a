package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/create_booking"
	generateSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/generate_slots"
	getAvailableSlotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_booking"
	getBusinessBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_business_bookings"
	getCustomerBookingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_customer_bookings"
	getSlotSettingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/get_slot_settings"
	rescheduleBookingHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/reschedule_booking"
	schedulesHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/schedules"
	slotsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/slots"
	updateBookingStatusHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_booking_status"
	updateSlotSettingsHandler "github.com/m04kA/SMC-SchedulingService/internal/api/handlers/update_slot_settings"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/config"
	bookingsService "github.com/m04kA/SMC-SchedulingService/internal/service/bookings"
	schedulesService "github.com/m04kA/SMC-SchedulingService/internal/service/schedules"
	slotsService "github.com/m04kA/SMC-SchedulingService/internal/service/slots"
	slotSettingsService "github.com/m04kA/SMC-SchedulingService/internal/service/slotsettings"
	createBookingUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
	generateSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/generate_slots"
	getAvailableSlotsUC "github.com/m04kA/SMC-SchedulingService/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-SchedulingService/pkg/logger"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
)

type routeHandlers struct {
	schedules         *schedulesService.Service
	slots             *slotsService.Service
	slotSettings      *slotSettingsService.Service
	bookings          *bookingsService.Service
	createBooking     *createBookingUC.UseCase
	generateSlots     *generateSlotsUC.UseCase
	getAvailableSlots *getAvailableSlotsUC.UseCase
}

func newRouter(cfg *config.Config, log *logger.Logger, metricsCollector *metrics.Metrics, deps routeHandlers) *mux.Router {
	// Инициализируем handlers
	schedules := schedulesHandler.NewHandler(deps.schedules, log)
	slots := slotsHandler.NewHandler(deps.slots, log)
	generateSlots := generateSlotsHandler.NewHandler(deps.generateSlots, log)
	getSlotSettings := getSlotSettingsHandler.NewHandler(deps.slotSettings, log)
	updateSlotSettings := updateSlotSettingsHandler.NewHandler(deps.slotSettings, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(deps.getAvailableSlots, log)
	createBooking := createBookingHandler.NewHandler(deps.createBooking, log)
	getBooking := getBookingHandler.NewHandler(deps.bookings, log)
	cancelBooking := cancelBookingHandler.NewHandler(deps.bookings, log)
	getBusinessBookings := getBusinessBookingsHandler.NewHandler(deps.bookings, log)
	getCustomerBookings := getCustomerBookingsHandler.NewHandler(deps.bookings, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(deps.bookings, log)
	confirmBooking := updateBookingStatusHandler.NewHandler(deps.bookings, updateBookingStatusHandler.ActionConfirm, log)
	completeBooking := updateBookingStatusHandler.NewHandler(deps.bookings, updateBookingStatusHandler.ActionComplete, log)
	noShowBooking := updateBookingStatusHandler.NewHandler(deps.bookings, updateBookingStatusHandler.ActionNoShow, log)

	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	// Metrics middleware и endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	auth := middleware.Auth(cfg.Auth.JWTSecret, cfg.Auth.Issuer, log)

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные слоты работника, регистрируется до маршрутов бизнеса
	api.HandleFunc("/businesses/{businessId}/workers/{workerId}/slots/available",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// CUSTOMER ROUTES
	// ============================================================

	customer := api.PathPrefix("/bookings").Subrouter()
	customer.Use(auth, middleware.RequireRole(middleware.RoleCustomer))

	var create http.Handler = http.HandlerFunc(createBooking.Handle)
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		create = limiter.Middleware(create)
		log.Info("Booking creation rate limit: %.2f rps, burst %d", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	customer.Handle("", create).Methods(http.MethodPost)
	customer.HandleFunc("", getCustomerBookings.Handle).Methods(http.MethodGet)
	customer.HandleFunc("/{bookingId}", getBooking.HandleForCustomer).Methods(http.MethodGet)
	customer.HandleFunc("/{bookingId}/cancel", cancelBooking.HandleByCustomer).Methods(http.MethodPatch)

	// ============================================================
	// VENDOR ROUTES (вендор своего бизнеса или админ)
	// ============================================================

	vendor := api.PathPrefix("/businesses/{businessId}").Subrouter()
	vendor.Use(auth, middleware.RequireRole(middleware.RoleVendor, middleware.RoleAdmin), middleware.CanAccessBusiness)

	// --- Расписания ---
	vendor.HandleFunc("/schedules", schedules.Create).Methods(http.MethodPost)
	vendor.HandleFunc("/schedules/{scheduleId}", schedules.Get).Methods(http.MethodGet)
	vendor.HandleFunc("/schedules/{scheduleId}", schedules.UpdateDetails).Methods(http.MethodPatch)
	vendor.HandleFunc("/schedules/{scheduleId}", schedules.Delete).Methods(http.MethodDelete)
	vendor.HandleFunc("/schedules/{scheduleId}/availability", schedules.Availability).Methods(http.MethodGet)
	vendor.HandleFunc("/schedules/{scheduleId}/rule-items/{day}", schedules.SetRuleItem).Methods(http.MethodPut)
	vendor.HandleFunc("/schedules/{scheduleId}/rule-items/{day}", schedules.RemoveRuleItem).Methods(http.MethodDelete)
	vendor.HandleFunc("/schedules/{scheduleId}/rule-items/{day}/breaks", schedules.AddBreak).Methods(http.MethodPost)
	vendor.HandleFunc("/schedules/{scheduleId}/rule-items/{day}/breaks/{breakId}", schedules.UpdateBreak).Methods(http.MethodPut)
	vendor.HandleFunc("/schedules/{scheduleId}/rule-items/{day}/breaks/{breakId}", schedules.RemoveBreak).Methods(http.MethodDelete)
	vendor.HandleFunc("/schedules/{scheduleId}/overrides", schedules.AddOverride).Methods(http.MethodPost)
	vendor.HandleFunc("/schedules/{scheduleId}/overrides/{date}", schedules.RemoveOverride).Methods(http.MethodDelete)
	vendor.HandleFunc("/workers/{workerId}/schedules", schedules.ListByWorker).Methods(http.MethodGet)

	// --- Слоты ---
	vendor.HandleFunc("/workers/{workerId}/slots/generate", generateSlots.Handle).Methods(http.MethodPost)
	vendor.HandleFunc("/workers/{workerId}/slots", slots.Create).Methods(http.MethodPost)
	vendor.HandleFunc("/workers/{workerId}/slots", slots.List).Methods(http.MethodGet)
	vendor.HandleFunc("/slots/{slotId}", slots.Get).Methods(http.MethodGet)
	vendor.HandleFunc("/slots/{slotId}", slots.Delete).Methods(http.MethodDelete)

	// --- Настройки генерации ---
	vendor.HandleFunc("/slot-settings", getSlotSettings.Handle).Methods(http.MethodGet)
	vendor.HandleFunc("/slot-settings/all", getSlotSettings.HandleList).Methods(http.MethodGet)
	vendor.HandleFunc("/slot-settings", updateSlotSettings.Handle).Methods(http.MethodPut)
	vendor.HandleFunc("/slot-settings", updateSlotSettings.HandleDelete).Methods(http.MethodDelete)

	// --- Бронирования ---
	vendor.HandleFunc("/bookings", getBusinessBookings.Handle).Methods(http.MethodGet)
	vendor.HandleFunc("/bookings/{bookingId}", getBooking.HandleForBusiness).Methods(http.MethodGet)
	vendor.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPatch)
	vendor.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	vendor.HandleFunc("/bookings/{bookingId}/no-show", noShowBooking.Handle).Methods(http.MethodPatch)
	vendor.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.HandleByVendor).Methods(http.MethodPatch)
	vendor.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPost)

	return r
}

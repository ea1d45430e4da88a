package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus метрик сервиса
// Все методы безопасны для вызова на nil (метрики выключены в конфиге)
type Metrics struct {
	// HTTP
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// База данных
	dbQueryDuration   *prometheus.HistogramVec
	dbOpenConnections *prometheus.GaugeVec
	dbInUse           *prometheus.GaugeVec
	dbIdle            *prometheus.GaugeVec
	dbWaitCount       *prometheus.GaugeVec

	// Доменные
	slotsGenerated     *prometheus.CounterVec
	slotsRetired       *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationFailures *prometheus.CounterVec
	bookingsCreated    *prometheus.CounterVec
	bookingConflicts   *prometheus.CounterVec
	bookingTransitions *prometheus.CounterVec

	serviceName string
}

// New создает метрики и регистрирует их в глобальном реестре prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry создает метрики и регистрирует их в переданном реестре
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		serviceName: serviceName,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),
		dbQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"service", "operation", "status"}),
		dbOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),
		dbInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),
		dbIdle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),
		dbWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),
		slotsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slots_generated_total",
			Help: "Availability slots inserted by the generator",
		}, []string{"service"}),
		slotsRetired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slots_retired_total",
			Help: "Availability slots deleted by the generator",
		}, []string{"service"}),
		generationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slot_generation_duration_seconds",
			Help:    "Duration of a slot generation run for one worker",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "slot_generation_failures_total",
			Help: "Failed slot generation runs",
		}, []string{"service"}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created",
		}, []string{"service"}),
		bookingConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Booking attempts rejected because the slot was taken",
		}, []string{"service"}),
		bookingTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions",
		}, []string{"service", "to"}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.dbQueryDuration,
		m.dbOpenConnections,
		m.dbInUse,
		m.dbIdle,
		m.dbWaitCount,
		m.slotsGenerated,
		m.slotsRetired,
		m.generationDuration,
		m.generationFailures,
		m.bookingsCreated,
		m.bookingConflicts,
		m.bookingTransitions,
	)

	return m
}

// ObserveHTTPRequest фиксирует HTTP запрос
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// ObserveDBQuery фиксирует запрос к БД
func (m *Metrics) ObserveDBQuery(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dbQueryDuration.WithLabelValues(m.serviceName, operation, status).Observe(duration.Seconds())
}

// SetDBPoolStats обновляет показатели пула соединений
func (m *Metrics) SetDBPoolStats(open, inUse, idle int, waitCount int64) {
	if m == nil {
		return
	}
	m.dbOpenConnections.WithLabelValues(m.serviceName).Set(float64(open))
	m.dbInUse.WithLabelValues(m.serviceName).Set(float64(inUse))
	m.dbIdle.WithLabelValues(m.serviceName).Set(float64(idle))
	m.dbWaitCount.WithLabelValues(m.serviceName).Set(float64(waitCount))
}

// ObserveGeneration фиксирует прогон генератора слотов
func (m *Metrics) ObserveGeneration(inserted, deleted int, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(m.serviceName).Observe(duration.Seconds())
	if err != nil {
		m.generationFailures.WithLabelValues(m.serviceName).Inc()
		return
	}
	m.slotsGenerated.WithLabelValues(m.serviceName).Add(float64(inserted))
	m.slotsRetired.WithLabelValues(m.serviceName).Add(float64(deleted))
}

// IncBookingsCreated увеличивает счетчик созданных бронирований
func (m *Metrics) IncBookingsCreated() {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(m.serviceName).Inc()
}

// IncBookingConflicts увеличивает счетчик конфликтов при бронировании
func (m *Metrics) IncBookingConflicts() {
	if m == nil {
		return
	}
	m.bookingConflicts.WithLabelValues(m.serviceName).Inc()
}

// IncBookingTransition фиксирует переход бронирования в статус to
func (m *Metrics) IncBookingTransition(to string) {
	if m == nil {
		return
	}
	m.bookingTransitions.WithLabelValues(m.serviceName, to).Inc()
}

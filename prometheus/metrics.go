package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Login attempts by outcome
	LoginCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_login_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"outcome"}, // "success", "invalid_credentials", "invalid_request"
	)

	// Explicit logouts. Sessions that simply expire are not counted.
	LogoutCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "familytree_admin_logout_total",
			Help: "Total number of admin logouts",
		},
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", "inactive_admin", "forbidden"
	)

	// Resource mutations
	ResourceOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_resource_operations_total",
			Help: "Total number of resource mutations",
		},
		[]string{"resource", "operation"},
	)

	// Relationship integrity rejections by rule
	IntegrityViolationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_integrity_violations_total",
			Help: "Total number of member link changes rejected by rule",
		},
		[]string{"rule"},
	)

	// Outbound mail
	EmailCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_emails_total",
			Help: "Total number of outbound emails by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// Calls to external services
	ExternalCallCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "familytree_admin_external_calls_total",
			Help: "Total number of calls to external services",
		},
		[]string{"service", "operation", "outcome"},
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "familytree_admin_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "familytree_admin_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// External call duration
	ExternalCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "familytree_admin_external_call_duration_seconds",
			Help:    "Duration of calls to external services in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
)

// Gauge metrics
var (
	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "familytree_admin_info",
			Help: "Information about the admin service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(LogoutCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(ResourceOperationCounter)
	prometheus.MustRegister(IntegrityViolationCounter)
	prometheus.MustRegister(EmailCounter)
	prometheus.MustRegister(ExternalCallCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)
	prometheus.MustRegister(ExternalCallDuration)

	prometheus.MustRegister(InfoGauge)
}

// SetVersion publishes the running version on the info gauge
func SetVersion(version string) {
	InfoGauge.Reset()
	InfoGauge.With(prometheus.Labels{"version": version}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(endTime.Sub(startTime).Seconds())
	}
}

// TrackExternalCall records the duration and outcome of a call to an external service.
// Use as: defer prometheus.TrackExternalCall("identity", "create")(&err)
func TrackExternalCall(service, operation string) func(*error) {
	startTime := time.Now()
	return func(errp *error) {
		ExternalCallDuration.With(prometheus.Labels{
			"service":   service,
			"operation": operation,
		}).Observe(time.Since(startTime).Seconds())

		outcome := "success"
		if errp != nil && *errp != nil {
			outcome = "failure"
		}
		ExternalCallCounter.With(prometheus.Labels{
			"service":   service,
			"operation": operation,
			"outcome":   outcome,
		}).Inc()
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			status := c.Response().Status
			if err != nil {
				// the error handler has not written the response yet
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			labels := prometheus.Labels{
				"endpoint": c.Path(),
				"method":   c.Request().Method,
				"status":   strconv.Itoa(status),
			}
			RequestDuration.With(labels).Observe(time.Since(start).Seconds())
			HTTPRequestCounter.With(labels).Inc()

			return err
		}
	}
}

// RecordLogin records a login attempt by outcome
func RecordLogin(outcome string) {
	LoginCounter.With(prometheus.Labels{"outcome": outcome}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordResourceOperation records a create/update/delete on a resource
func RecordResourceOperation(resource, operation string) {
	ResourceOperationCounter.With(prometheus.Labels{
		"resource":  resource,
		"operation": operation,
	}).Inc()
}

// RecordIntegrityViolation records a rejected member link change
func RecordIntegrityViolation(rule string) {
	IntegrityViolationCounter.With(prometheus.Labels{"rule": rule}).Inc()
}

// RecordEmail records an outbound email attempt
func RecordEmail(provider string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	EmailCounter.With(prometheus.Labels{"provider": provider, "outcome": outcome}).Inc()
}

// RecordLogout records an explicit logout
func RecordLogout() {
	LogoutCounter.Inc()
}

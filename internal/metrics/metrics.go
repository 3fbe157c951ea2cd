package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the application.
// It includes counters for commands received, messages sent,
// reservation outcomes, and histograms for query durations.
type Metrics struct {
	CommandReceived     *prometheus.CounterVec   // Counter for received commands
	SentMessages        *prometheus.CounterVec   // Counter for sent messages
	NewUsers            prometheus.Counter       // Counter for newly linked employees
	ReservationOutcomes *prometheus.CounterVec   // Counter for reservation decisions
	DBQueryDuration     *prometheus.HistogramVec // Histogram for database query durations
	ReportGeneration    prometheus.Histogram     // Histogram for report generation durations
}

// NewMetrics creates a new Metrics instance with the provided Prometheus Registerer.
// It initializes counters and histograms for tracking bot commands, reservation
// outcomes, and the latency of database and report operations.
//
// Parameters:
//   - reg: A Prometheus Registerer used to register the metrics.
//
// Returns:
//   - A pointer to the newly created Metrics instance.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		CommandReceived: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "canteen_commands_received_total",
			Help: "Total number of used commands",
		}, []string{"command"}), // command: /start, menu, reserve, cancel
		SentMessages: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "canteen_messages_sent_total",
			Help: "Output bot activity",
		}, []string{"type"}), // type: text, reply, error, document
		NewUsers: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "canteen_linked_employees_total",
			Help: "Total number of employees linked via contact sharing",
		}),
		ReservationOutcomes: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "canteen_reservation_outcomes_total",
			Help: "Reservation decisions by outcome and rejection reason",
		}, []string{"outcome", "reason"}), // outcome: created, edited, rejected
		DBQueryDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "canteen_db_query_duration_seconds",
			Help:    "Duration of database queries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"query_type"}), // query_type: 'get_menu', 'insert_reservation'
		ReportGeneration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name: "canteen_report_generation_duration_seconds",
			Help: "Duration of report excel generation.",
		}),
	}
}

package repositories

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zync-tools/zyncmon/internal/status"
)

const (
	metricsNamespace = "zync"

	resultApplied     = "applied"
	resultMalformed   = "malformed"
	resultUnknownFlag = "unknown_flag"
)

// Metrics exports the registry state. Status gauges carry the severity rank
// (0 ok, 1 needed, 2 no_dir, 3 failed).
type Metrics struct {
	repositoryStatus *prometheus.GaugeVec
	machineStatus    *prometheus.GaugeVec
	records          *prometheus.CounterVec
	droppedBytes     prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		repositoryStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "repository_status",
			Help:      "Aggregate sync status of a repository as severity rank.",
		}, []string{"repository"}),
		machineStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "machine_status",
			Help:      "Sync status of a machine within a repository as severity rank.",
		}, []string{"repository", "machine"}),
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Status records read from daemon output, by outcome.",
		}, []string{"result"}),
		droppedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_bytes_total",
			Help:      "Non-whitespace bytes of daemon output discarded outside any record.",
		}),
	}
}

func (m *Metrics) observe(repo status.Repository) {
	m.repositoryStatus.WithLabelValues(repo.Name).Set(float64(status.Aggregate(repo).Severity()))
	for _, mach := range repo.Machines {
		m.machineStatus.WithLabelValues(repo.Name, mach.Name).Set(float64(mach.Status.Severity()))
	}
}

func (m *Metrics) record(result string) {
	m.records.WithLabelValues(result).Inc()
}

func (m *Metrics) dropped(n int) {
	if n > 0 {
		m.droppedBytes.Add(float64(n))
	}
}

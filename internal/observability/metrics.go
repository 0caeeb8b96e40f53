package observability

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once
	registry     = prometheus.NewRegistry()

	taskRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devsum",
			Subsystem: "task",
			Name:      "runs_total",
			Help:      "Total task invocations.",
		},
		[]string{"task", "success"},
	)
	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "devsum",
			Subsystem: "task",
			Name:      "duration_seconds",
			Help:      "Task duration in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 180, 600},
		},
		[]string{"task", "success"},
	)
	taskLastSuccess = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "devsum",
			Subsystem: "task",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run per task.",
		},
		[]string{"task"},
	)
	commandRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "devsum",
			Subsystem: "command",
			Name:      "executions_total",
			Help:      "External command executions.",
		},
		[]string{"command", "exit_code"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		registry.MustRegister(taskRuns, taskDuration, taskLastSuccess, commandRuns)
	})
}

// Registry exposes the process registry for gathering in tests and writers.
func Registry() *prometheus.Registry {
	RegisterMetrics()
	return registry
}

func RecordTaskRun(task string, duration time.Duration, success bool) {
	RegisterMetrics()
	successLabel := strconv.FormatBool(success)
	taskRuns.WithLabelValues(task, successLabel).Inc()
	taskDuration.WithLabelValues(task, successLabel).Observe(duration.Seconds())
	if success {
		taskLastSuccess.WithLabelValues(task).SetToCurrentTime()
	}
}

func RecordCommand(command string, exitCode int32) {
	RegisterMetrics()
	commandRuns.WithLabelValues(command, strconv.FormatInt(int64(exitCode), 10)).Inc()
}

// WriteTextfile dumps the registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry()); err != nil {
		return fmt.Errorf("write metrics textfile path=%q: %w", path, err)
	}
	return nil
}

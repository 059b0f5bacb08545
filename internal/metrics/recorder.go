package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "avg_release"

// Stage names used for stage durations.
const (
	StageVersion  = "version"
	StageBuild    = "build"
	StageAssemble = "assemble"
	StageDeploy   = "deploy"
	StagePackage  = "package"
)

// Outcome is the final status of a run.
type Outcome string

// Run outcomes.
const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeCancel  Outcome = "canceled"
)

// Recorder collects metrics of one run.
type Recorder struct {
	registry      *prom.Registry
	buildDuration *prom.GaugeVec
	stageDuration *prom.GaugeVec
	runOutcome    *prom.CounterVec
	archiveSize   prom.Gauge
	lastRun       prom.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prom.NewRegistry(),
		buildDuration: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of the last build process per platform",
		}, []string{"platform", "result"}),
		stageDuration: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the release stages of the last run",
		}, []string{"stage"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Release runs by final status",
		}, []string{"outcome"}),
		archiveSize: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "archive_size_bytes",
			Help:      "Size of the last release archive",
		}),
		lastRun: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}

	r.registry.MustRegister(r.buildDuration, r.stageDuration, r.runOutcome, r.archiveSize, r.lastRun)

	return r
}

// ObserveBuild records a finished build.
func (r *Recorder) ObserveBuild(platform string, d time.Duration, success bool) {
	if r == nil {
		return
	}

	result := "failed"
	if success {
		result = "success"
	}

	r.buildDuration.WithLabelValues(platform, result).Set(d.Seconds())
}

// ObserveStage records the duration of a release stage.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}

	r.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// SetArchiveSize records the size of the written archive.
func (r *Recorder) SetArchiveSize(size int64) {
	if r == nil {
		return
	}

	r.archiveSize.Set(float64(size))
}

// Finish records the run outcome.
func (r *Recorder) Finish(outcome Outcome) {
	if r == nil {
		return
	}

	r.runOutcome.WithLabelValues(string(outcome)).Inc()
	r.lastRun.SetToCurrentTime()
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prom.Registry {
	if r == nil {
		return nil
	}

	return r.registry
}

// WriteTextfile writes the collected metrics in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}

	if err := prom.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}

	return nil
}

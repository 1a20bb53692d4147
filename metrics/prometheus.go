// Package metrics exposes segmentation pipeline metrics to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage names used for deeplab_stage_duration_seconds.
const (
	StagePreprocess = "preprocess"
	StagePredict    = "predict"
	StageDecode     = "decode"
	StageResize     = "resize"
)

// Pipeline holds the pipeline collectors. A nil *Pipeline records nothing.
type Pipeline struct {
	FramesProcessed *prometheus.CounterVec
	FrameDuration   *prometheus.HistogramVec
	StageDuration   *prometheus.HistogramVec
}

// NewPipeline registers the pipeline collectors on reg.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		FramesProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "deeplab_frames_processed_total",
			Help: "Total number of frames written, by pass",
		}, []string{"pass"}),

		FrameDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deeplab_frame_duration_seconds",
			Help:    "Time to transform one frame, by pass",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"pass"}),

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "deeplab_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stage"}),
	}
}

// ObserveFrame records one written frame of a pass.
func (p *Pipeline) ObserveFrame(pass string, d time.Duration) {
	if p == nil {
		return
	}
	p.FramesProcessed.WithLabelValues(pass).Inc()
	p.FrameDuration.WithLabelValues(pass).Observe(d.Seconds())
}

// ObserveStage records the time since start for a stage.
func (p *Pipeline) ObserveStage(stage string, start time.Time) {
	if p == nil {
		return
	}
	p.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

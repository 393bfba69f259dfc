package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/udisondev/castfx/internal/workpool"
)

// PromSink records pool and effect-delivery metrics in Prometheus collectors.
// It implements workpool.Recorder and effect.Recorder.
type PromSink struct {
	jobsQueued   *prometheus.CounterVec
	jobsFinished *prometheus.CounterVec
	jobWait      *prometheus.HistogramVec
	jobRun       *prometheus.HistogramVec
	workers      *prometheus.GaugeVec
	queueDepth   *prometheus.GaugeVec

	effectPackets *prometheus.CounterVec
	effectTargets prometheus.Histogram
	sendFailures  prometheus.Counter
}

// NewPromSink registers collectors on reg (the default registerer when nil).
// Collectors already registered by an earlier sink are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		jobsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workpool_jobs_queued_total",
			Help: "Jobs accepted into the pool queue",
		}, []string{"pool"}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workpool_jobs_finished_total",
			Help: "Jobs resolved, by outcome",
		}, []string{"pool", "outcome"}),
		jobWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workpool_job_wait_seconds",
			Help:    "Time a job spent queued before a worker picked it up",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"pool"}),
		jobRun: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "workpool_job_run_seconds",
			Help:    "Job execution time",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"pool"}),
		workers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workpool_workers",
			Help: "Running worker goroutines",
		}, []string{"pool"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "workpool_queue_depth",
			Help: "Jobs waiting for a worker",
		}, []string{"pool"}),
		effectPackets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "effect_packets_sent_total",
			Help: "Action effect packets delivered, by channel",
		}, []string{"channel"}),
		effectTargets: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "effect_targets_per_cast",
			Help:    "Distinct targets resolved per finalized action cast",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "effect_send_failures_total",
			Help: "Private effect packets that could not be queued on the caster connection",
		}),
	}

	var err error
	s.jobsQueued, err = register(reg, s.jobsQueued)
	if err != nil {
		return nil, err
	}
	if s.jobsFinished, err = register(reg, s.jobsFinished); err != nil {
		return nil, err
	}
	if s.jobWait, err = register(reg, s.jobWait); err != nil {
		return nil, err
	}
	if s.jobRun, err = register(reg, s.jobRun); err != nil {
		return nil, err
	}
	if s.workers, err = register(reg, s.workers); err != nil {
		return nil, err
	}
	if s.queueDepth, err = register(reg, s.queueDepth); err != nil {
		return nil, err
	}
	if s.effectPackets, err = register(reg, s.effectPackets); err != nil {
		return nil, err
	}
	if s.effectTargets, err = register(reg, s.effectTargets); err != nil {
		return nil, err
	}
	if s.sendFailures, err = register(reg, s.sendFailures); err != nil {
		return nil, err
	}
	return s, nil
}

// register registers c, returning the already registered collector on conflict.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// JobQueued implements workpool.Recorder.
func (s *PromSink) JobQueued(pool string) {
	s.jobsQueued.WithLabelValues(pool).Inc()
}

// JobFinished implements workpool.Recorder.
func (s *PromSink) JobFinished(pool string, outcome workpool.Outcome, wait, run time.Duration) {
	s.jobsFinished.WithLabelValues(pool, string(outcome)).Inc()
	switch outcome {
	case workpool.OutcomeOK, workpool.OutcomeError, workpool.OutcomePanic:
		s.jobWait.WithLabelValues(pool).Observe(wait.Seconds())
		s.jobRun.WithLabelValues(pool).Observe(run.Seconds())
	}
}

// WorkersChanged implements workpool.Recorder.
func (s *PromSink) WorkersChanged(pool string, workers int) {
	s.workers.WithLabelValues(pool).Set(float64(workers))
}

// QueueDepth implements workpool.Recorder.
func (s *PromSink) QueueDepth(pool string, depth int) {
	s.queueDepth.WithLabelValues(pool).Set(float64(depth))
}

// EffectsSent records one finalized cast: its target count and how many
// broadcast and private packets went out.
func (s *PromSink) EffectsSent(targets, broadcast, private int) {
	s.effectTargets.Observe(float64(targets))
	s.effectPackets.WithLabelValues("broadcast").Add(float64(broadcast))
	s.effectPackets.WithLabelValues("private").Add(float64(private))
}

// EffectSendFailed records a failed private delivery.
func (s *PromSink) EffectSendFailed() {
	s.sendFailures.Inc()
}

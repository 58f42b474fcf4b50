package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/config"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
	"github.com/couchcryptid/cubesat-wildfire-twin/internal/observability"
)

// ErrPositionProvider wraps any failure reading the platform sub-point.
var ErrPositionProvider = errors.New("position provider failure")

// SubPointProvider reports where the platform is right now.
type SubPointProvider interface {
	SubPoint(ctx context.Context) (domain.SubPoint, error)
}

// Synthesizer produces one thermal grid per step.
type Synthesizer interface {
	Synthesize() (domain.ThermalGrid, bool)
}

// FrameSink receives every raw grid. Implementations must not block.
type FrameSink interface {
	PublishFrame(ctx context.Context, grid domain.ThermalGrid, step int)
}

// DetectionSink receives the detection when the payout trigger fires.
type DetectionSink interface {
	PublishDetection(ctx context.Context, result domain.DetectionResult) error
}

// Options configures a Simulation.
type Options struct {
	Steps               int
	StepInterval        time.Duration
	GSDMeters           float64
	Thresholds          domain.Thresholds
	Eligibility         domain.EligibilityStrategy
	VegetationBaselineC float64
	PositionPolicy      config.PositionFailurePolicy
	PositionTimeout     time.Duration
}

// OptionsFromConfig maps service configuration onto simulation options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Steps:               cfg.Steps,
		StepInterval:        cfg.StepInterval,
		GSDMeters:           cfg.GSDMeters,
		Thresholds:          cfg.Thresholds,
		Eligibility:         cfg.Eligibility,
		VegetationBaselineC: cfg.VegetationBaselineC,
		PositionPolicy:      cfg.PositionPolicy,
		PositionTimeout:     cfg.PositionTimeout,
	}
}

// Simulation runs the fixed-length detect-and-trigger loop.
type Simulation struct {
	opts        Options
	position    SubPointProvider
	synthesizer Synthesizer
	enricher    *Enricher
	frames      FrameSink
	detections  []namedSink
	trigger     *domain.TriggerController
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	onStep      func(domain.StepReport)
}

// New creates a Simulation. frames and enricher may be nil.
func New(opts Options, position SubPointProvider, synthesizer Synthesizer, enricher *Enricher, frames FrameSink, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Simulation {
	return &Simulation{
		opts:        opts,
		position:    position,
		synthesizer: synthesizer,
		enricher:    enricher,
		frames:      frames,
		trigger:     domain.NewTriggerController(opts.GSDMeters),
		clock:       clock,
		logger:      logger,
		metrics:     metrics,
	}
}

type namedSink struct {
	name string
	sink DetectionSink
}

// AddDetectionSink registers a named sink for the trigger event. Sinks are
// called in registration order. Call before Run.
func (s *Simulation) AddDetectionSink(name string, sink DetectionSink) {
	s.detections = append(s.detections, namedSink{name: name, sink: sink})
}

// OnStep registers a callback invoked with every step report. Call before Run.
func (s *Simulation) OnStep(fn func(domain.StepReport)) {
	s.onStep = fn
}

// CheckReadiness returns nil once at least one step has completed.
func (s *Simulation) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("simulation has not completed a step yet")
	}
	return nil
}

// Trigger exposes the payout latch for inspection.
func (s *Simulation) Trigger() *domain.TriggerController { return s.trigger }

// Run executes the configured number of steps, waiting StepInterval between
// them. It returns early with nil when ctx is cancelled, and with an error on
// a fatal position failure or an invalid geolocation.
func (s *Simulation) Run(ctx context.Context) error {
	s.logger.Info("simulation started",
		"steps", s.opts.Steps,
		"eligibility", s.opts.Eligibility,
		"gsd_m", s.opts.GSDMeters,
	)
	s.metrics.SimulationRunning.Set(1)
	defer s.metrics.SimulationRunning.Set(0)

	for step := 0; step < s.opts.Steps; step++ {
		if ctx.Err() != nil {
			s.logger.Info("simulation stopping", "reason", ctx.Err(), "step", step)
			return nil
		}

		if err := s.runStep(ctx, step); err != nil {
			if ctx.Err() != nil {
				s.logger.Info("simulation stopping", "reason", ctx.Err(), "step", step)
				return nil
			}
			if errors.Is(err, ErrPositionProvider) && s.opts.PositionPolicy == config.PositionFailureSkip {
				s.logger.Warn("skipping step", "step", step, "error", err)
			} else {
				return err
			}
		}

		if step < s.opts.Steps-1 && !s.sleep(ctx, s.opts.StepInterval) {
			s.logger.Info("simulation stopping", "reason", ctx.Err(), "step", step)
			return nil
		}
	}

	s.logger.Info("simulation complete", "trigger_state", s.trigger.State())
	return nil
}

// runStep performs one sense-detect-decide cycle.
func (s *Simulation) runStep(ctx context.Context, step int) error {
	start := time.Now()

	sp, err := s.subPoint(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.metrics.PositionErrors.WithLabelValues(string(s.opts.PositionPolicy)).Inc()
		return fmt.Errorf("step %d: %w: %w", step, ErrPositionProvider, err)
	}

	grid, injected := s.synthesizer.Synthesize()
	veg := domain.AssessVegetation(grid, s.opts.VegetationBaselineC)
	ex := s.opts.Eligibility.Extract(grid, s.opts.Thresholds)
	confidence := domain.ScoreConfidence(len(ex.Eligible))
	area := domain.EstimateBurnArea(len(ex.Eligible), s.opts.GSDMeters)

	if s.frames != nil {
		s.frames.PublishFrame(ctx, grid, step)
	}

	detection, fired, err := s.trigger.Evaluate(step, sp, ex.Eligible, area)
	if err != nil {
		return err
	}

	report := domain.StepReport{
		Step:       step,
		SubPoint:   sp,
		Injected:   injected,
		Reported:   len(ex.Reported),
		HotCells:   len(ex.HotCells),
		Eligible:   len(ex.Eligible),
		Confidence: confidence,
		Area:       area,
		Vegetation: veg,
		State:      s.trigger.State(),
	}

	s.logger.Info("step complete",
		"step", step,
		"lat", sp.Lat,
		"lon", sp.Lon,
		"injected", injected,
		"reported_cells", report.Reported,
		"eligible_cells", report.Eligible,
		"confidence", confidence,
		"area_ha", area.Hectares,
		"recovery", area.Recovery,
		"vegetation_delta_c", veg.DeltaC,
		"vegetation_risk", veg.Risk,
	)

	if fired {
		detection = s.enricher.Enrich(ctx, detection)
		s.trigger.Enrich(detection)
		report.Detection = &detection
		s.logger.Info("wildfire confirmed",
			"detection_id", detection.ID,
			"lat", detection.Location.Lat,
			"lon", detection.Location.Lon,
			"confidence", detection.Confidence,
			"place", detection.FormattedAddress,
		)
		s.metrics.TriggersTotal.Inc()
		s.publish(ctx, detection)
	}

	s.metrics.StepsTotal.Inc()
	s.metrics.StepDuration.Observe(time.Since(start).Seconds())
	s.metrics.AnomalyCells.WithLabelValues("reported").Observe(float64(report.Reported))
	s.metrics.AnomalyCells.WithLabelValues("hot").Observe(float64(report.HotCells))
	s.metrics.AnomalyCells.WithLabelValues("eligible").Observe(float64(report.Eligible))
	s.metrics.Confidence.Set(float64(confidence))
	s.metrics.VegetationDelta.Set(veg.DeltaC)
	s.ready.Store(true)

	if s.onStep != nil {
		s.onStep(report)
	}
	return nil
}

// subPoint reads the provider with the configured timeout.
func (s *Simulation) subPoint(ctx context.Context) (domain.SubPoint, error) {
	if s.opts.PositionTimeout <= 0 {
		return s.position.SubPoint(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.PositionTimeout)
	defer cancel()
	return s.position.SubPoint(ctx)
}

// publish fans the detection out to every sink. Sink errors are logged and
// counted; they never fail the step.
func (s *Simulation) publish(ctx context.Context, r domain.DetectionResult) {
	for _, d := range s.detections {
		if err := d.sink.PublishDetection(ctx, r); err != nil {
			s.logger.Error("publish detection failed", "sink", d.name, "detection_id", r.ID, "error", err)
			s.metrics.PublishErrors.WithLabelValues(d.name).Inc()
		}
	}
}

// sleep waits d on the simulation clock. Returns false if ctx ended first.
func (s *Simulation) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}

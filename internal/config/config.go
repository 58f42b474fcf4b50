package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/cubesat-wildfire-twin/internal/domain"
)

// Reference TLE for the simulated platform (ISS orbital elements).
const (
	defaultTLEName  = "WILDFIRE_WATCH_1"
	defaultTLELine1 = "1 25544U 98067A   23001.50000000  .00000000  00000-0  00000-0 0  9991"
	defaultTLELine2 = "2 25544  51.6416  24.7712 0006703 130.5360 325.0288 15.50000000215751"
)

// PositionFailurePolicy decides what the simulation does when the sub-point
// provider errors.
type PositionFailurePolicy string

const (
	PositionFailureFatal PositionFailurePolicy = "fatal"
	PositionFailureSkip  PositionFailurePolicy = "skip"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Mission.
	Steps            int
	StepInterval     time.Duration
	Seed             uint64
	MissionBudgetUSD float64

	// Sensor and detection.
	Synthesizer         domain.SynthesizerConfig
	Thresholds          domain.Thresholds
	VegetationBaselineC float64
	GSDMeters           float64
	Eligibility         domain.EligibilityStrategy

	// Orbit.
	PositionPolicy  PositionFailurePolicy
	PositionTimeout time.Duration
	TLEName         string
	TLELine1        string
	TLELine2        string

	// Thermal map rendering.
	PlotEnabled   bool
	PlotOutputDir string

	// Kafka payout events.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaPayoutTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	steps, err := parsePositiveInt("SIM_STEPS", 10)
	if err != nil {
		return nil, err
	}
	stepInterval, err := parseDuration("SIM_STEP_INTERVAL", "1s", true)
	if err != nil {
		return nil, err
	}
	seed, err := parseSeed()
	if err != nil {
		return nil, err
	}
	budget, err := parseFloat("MISSION_BUDGET_USD", 2500)
	if err != nil {
		return nil, err
	}

	synth := domain.DefaultSynthesizerConfig()
	if synth.BaselineC, err = parseFloat("GRID_BASELINE_C", synth.BaselineC); err != nil {
		return nil, err
	}
	if synth.StdDevC, err = parseFloat("GRID_STDDEV_C", synth.StdDevC); err != nil {
		return nil, err
	}
	if synth.HotPatchIncrement, err = parseFloat("HOT_PATCH_INCREMENT_C", synth.HotPatchIncrement); err != nil {
		return nil, err
	}
	if synth.InjectProbability, err = parseFloat("HOT_PATCH_PROBABILITY", synth.InjectProbability); err != nil {
		return nil, err
	}

	th := domain.DefaultThresholds()
	if th.DetectionC, err = parseFloat("DETECTION_THRESHOLD_C", th.DetectionC); err != nil {
		return nil, err
	}
	if th.FireC, err = parseFloat("FIRE_THRESHOLD_C", th.FireC); err != nil {
		return nil, err
	}
	vegBaseline, err := parseFloat("VEGETATION_BASELINE_C", 25)
	if err != nil {
		return nil, err
	}
	gsd, err := parseFloat("SENSOR_GSD_M", 100)
	if err != nil {
		return nil, err
	}

	eligibility, err := domain.ParseEligibilityStrategy(sharedcfg.EnvOrDefault("ELIGIBILITY_STRATEGY", string(domain.EligibilityWindowed)))
	if err != nil {
		return nil, fmt.Errorf("invalid ELIGIBILITY_STRATEGY: %w", err)
	}

	policy := PositionFailurePolicy(sharedcfg.EnvOrDefault("POSITION_FAILURE_POLICY", string(PositionFailureFatal)))
	if policy != PositionFailureFatal && policy != PositionFailureSkip {
		return nil, fmt.Errorf("invalid POSITION_FAILURE_POLICY %q: want fatal or skip", policy)
	}
	positionTimeout, err := parseDuration("POSITION_TIMEOUT", "2s", false)
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", "5s", false)
	if err != nil {
		return nil, err
	}
	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Steps:            steps,
		StepInterval:     stepInterval,
		Seed:             seed,
		MissionBudgetUSD: budget,

		Synthesizer:         synth,
		Thresholds:          th,
		VegetationBaselineC: vegBaseline,
		GSDMeters:           gsd,
		Eligibility:         eligibility,

		PositionPolicy:  policy,
		PositionTimeout: positionTimeout,
		TLEName:         sharedcfg.EnvOrDefault("TLE_NAME", defaultTLEName),
		TLELine1:        sharedcfg.EnvOrDefault("TLE_LINE1", defaultTLELine1),
		TLELine2:        sharedcfg.EnvOrDefault("TLE_LINE2", defaultTLELine2),

		PlotEnabled:   sharedcfg.EnvOrDefault("PLOT_ENABLED", "true") == "true",
		PlotOutputDir: sharedcfg.EnvOrDefault("PLOT_OUTPUT_DIR", "outputs"),

		KafkaEnabled:     sharedcfg.EnvOrDefault("KAFKA_ENABLED", "false") == "true",
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaPayoutTopic: sharedcfg.EnvOrDefault("KAFKA_PAYOUT_TOPIC", "wildfire-payouts"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.GSDMeters <= 0 {
		return errors.New("SENSOR_GSD_M must be positive")
	}
	if c.Synthesizer.StdDevC < 0 {
		return errors.New("GRID_STDDEV_C must not be negative")
	}
	if p := c.Synthesizer.InjectProbability; p < 0 || p > 1 {
		return errors.New("HOT_PATCH_PROBABILITY must be between 0 and 1")
	}
	if c.TLELine1 == "" || c.TLELine2 == "" {
		return errors.New("TLE_LINE1 and TLE_LINE2 are required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.KafkaEnabled && c.KafkaPayoutTopic == "" {
		return errors.New("KAFKA_PAYOUT_TOPIC is required when KAFKA_ENABLED is true")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s: must be a finite number", key)
	}
	return v, nil
}

// parseDuration reads a duration; allowZero permits "0s".
func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseSeed returns the RNG seed; 0 means derive one from the wall clock.
func parseSeed() (uint64, error) {
	s := os.Getenv("SIM_SEED")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid SIM_SEED: %w", err)
	}
	return v, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}

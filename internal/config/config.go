// Package config loads civitas configuration.
// Priority: environment > file > profile defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/example/civitas/internal/core/building"
	"github.com/example/civitas/internal/core/city"
	"github.com/example/civitas/internal/core/economy"
)

// Profile names.
const (
	ProfileProduction = "production"
	ProfileDev        = "dev"
	ProfileTest       = "test"
)

// Config is the complete civitas configuration.
type Config struct {
	Env        string           `yaml:"env"`
	Store      StoreConfig      `yaml:"store"`
	Governance GovernanceConfig `yaml:"governance"`
	Economy    EconomyConfig    `yaml:"economy"`
	Cycle      CycleConfig      `yaml:"cycle"`
	Retry      RetryConfig      `yaml:"retry"`
	Events     EventsConfig     `yaml:"events"`
	Log        LogConfig        `yaml:"log"`
}

// StoreConfig selects the database driver and file.
type StoreConfig struct {
	Driver string `yaml:"driver" split_words:"true"` // "sqlite3" (cgo) or "sqlite" (pure Go)
	Path   string `yaml:"path" split_words:"true"`
}

// GovernanceConfig holds beacon and focus rules.
type GovernanceConfig struct {
	BeaconWindowHours  int   `yaml:"beaconWindowHours" split_words:"true"`
	FocusChangeCost    int64 `yaml:"focusChangeCost" split_words:"true"`
	FocusCooldownHours int   `yaml:"focusCooldownHours" split_words:"true"`
}

// BuildingConfig is one row of the building table.
type BuildingConfig struct {
	Resource         string  `yaml:"resource"`
	Output           int64   `yaml:"output"`
	EnergyCost       int64   `yaml:"energyCost"`
	BaseUpgradeHours float64 `yaml:"baseUpgradeHours"`
}

// EconomyConfig holds the simulator and upgrade tables.
type EconomyConfig struct {
	StorageBase            int64                         `yaml:"storageBase" split_words:"true"`
	StoragePerFoundryLevel int64                         `yaml:"storagePerFoundryLevel" split_words:"true"`
	MaterialsPerLevel      int64                         `yaml:"materialsPerLevel" split_words:"true"`
	EnergyPerLevel         int64                         `yaml:"energyPerLevel" split_words:"true"`
	KnowledgeDivisor       float64                       `yaml:"knowledgeDivisor" split_words:"true"`
	MaxKnowledgeReduction  float64                       `yaml:"maxKnowledgeReduction" split_words:"true"`
	Buildings              map[string]BuildingConfig     `yaml:"buildings" ignored:"true"`
	FocusModifiers         map[string]map[string]float64 `yaml:"focusModifiers" ignored:"true"`
}

// CycleConfig holds world cycle scheduling.
type CycleConfig struct {
	IntervalMinutes    int `yaml:"intervalMinutes" split_words:"true"`
	CityTimeoutSeconds int `yaml:"cityTimeoutSeconds" split_words:"true"`
	Parallelism        int `yaml:"parallelism" split_words:"true"`
}

// RetryConfig bounds the optimistic concurrency retry loop.
type RetryConfig struct {
	MaxAttempts     int `yaml:"maxAttempts" split_words:"true"`
	BaseDelayMillis int `yaml:"baseDelayMillis" split_words:"true"`
}

// EventsConfig configures the optional Kafka event mirror.
type EventsConfig struct {
	KafkaBrokers []string `yaml:"kafkaBrokers" split_words:"true"`
	KafkaTopic   string   `yaml:"kafkaTopic" split_words:"true"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" split_words:"true"`
	Format string `yaml:"format" split_words:"true"` // "text" or "json"
}

// DefaultConfig returns the defaults for a profile.
// Unknown profiles fall back to production values.
func DefaultConfig(profile string) *Config {
	if profile == "" {
		profile = ProfileProduction
	}
	tuning := economy.DefaultTuning()
	rules := building.DefaultRules()

	buildings := make(map[string]BuildingConfig, len(building.AllTypes))
	for _, bt := range building.AllTypes {
		out := tuning.Buildings[bt]
		buildings[string(bt)] = BuildingConfig{
			Resource:         string(out.Resource),
			Output:           out.Output,
			EnergyCost:       out.EnergyCost,
			BaseUpgradeHours: rules.BaseHours[bt],
		}
	}
	modifiers := make(map[string]map[string]float64, len(tuning.FocusModifiers))
	for focus, mods := range tuning.FocusModifiers {
		m := make(map[string]float64, len(mods))
		for r, v := range mods {
			m[string(r)] = v
		}
		modifiers[string(focus)] = m
	}

	interval := 24 * 60
	if profile == ProfileDev || profile == ProfileTest {
		interval = 5
	}

	return &Config{
		Env: profile,
		Store: StoreConfig{
			Driver: "sqlite3",
			Path:   defaultStorePath(),
		},
		Governance: GovernanceConfig{
			BeaconWindowHours:  24,
			FocusChangeCost:    50,
			FocusCooldownHours: 24,
		},
		Economy: EconomyConfig{
			StorageBase:            tuning.StorageBase,
			StoragePerFoundryLevel: tuning.StoragePerFoundryLevel,
			MaterialsPerLevel:      rules.MaterialsPerLevel,
			EnergyPerLevel:         rules.EnergyPerLevel,
			KnowledgeDivisor:       rules.KnowledgeDivisor,
			MaxKnowledgeReduction:  rules.MaxKnowledgeReduction,
			Buildings:              buildings,
			FocusModifiers:         modifiers,
		},
		Cycle: CycleConfig{
			IntervalMinutes:    interval,
			CityTimeoutSeconds: 30,
			Parallelism:        4,
		},
		Retry: RetryConfig{
			MaxAttempts:     5,
			BaseDelayMillis: 10,
		},
		Events: EventsConfig{
			KafkaTopic: "civitas.world-events",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "civitas.db"
	}
	return filepath.Join(home, ".civitas", "civitas.db")
}

// Load builds the configuration for the profile named by CIVITAS_ENV.
// path (or CIVITAS_CONFIG when path is empty) names an optional YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig(os.Getenv("CIVITAS_ENV"))

	if path == "" {
		path = os.Getenv("CIVITAS_CONFIG")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	groups := []struct {
		prefix string
		spec   any
	}{
		{"CIVITAS_STORE", &cfg.Store},
		{"CIVITAS_GOVERNANCE", &cfg.Governance},
		{"CIVITAS_ECONOMY", &cfg.Economy},
		{"CIVITAS_CYCLE", &cfg.Cycle},
		{"CIVITAS_RETRY", &cfg.Retry},
		{"CIVITAS_EVENTS", &cfg.Events},
		{"CIVITAS_LOG", &cfg.Log},
	}
	for _, g := range groups {
		if err := envconfig.Process(g.prefix, g.spec); err != nil {
			return nil, fmt.Errorf("failed to read %s environment: %w", g.prefix, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Store.Driver != "sqlite3" && c.Store.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("store.driver must be sqlite3 or sqlite, got %q", c.Store.Driver))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Governance.BeaconWindowHours <= 0 {
		errs = append(errs, errors.New("governance.beaconWindowHours must be positive"))
	}
	if c.Governance.FocusChangeCost < 0 {
		errs = append(errs, errors.New("governance.focusChangeCost must not be negative"))
	}
	if c.Governance.FocusCooldownHours < 0 {
		errs = append(errs, errors.New("governance.focusCooldownHours must not be negative"))
	}
	if c.Cycle.IntervalMinutes <= 0 {
		errs = append(errs, errors.New("cycle.intervalMinutes must be positive"))
	}
	if c.Cycle.CityTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("cycle.cityTimeoutSeconds must be positive"))
	}
	if c.Cycle.Parallelism <= 0 {
		errs = append(errs, errors.New("cycle.parallelism must be positive"))
	}
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("retry.maxAttempts must be positive"))
	}
	if len(c.Events.KafkaBrokers) > 0 && c.Events.KafkaTopic == "" {
		errs = append(errs, errors.New("events.kafkaTopic is required when brokers are set"))
	}
	if _, err := c.Tuning(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.BuildingRules(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Tuning converts the economy tables into simulator tuning.
func (c *Config) Tuning() (economy.Tuning, error) {
	t := economy.Tuning{
		Buildings:              make(map[building.Type]economy.BuildingOutput, len(c.Economy.Buildings)),
		FocusModifiers:         make(map[city.Focus]map[economy.Resource]float64, len(c.Economy.FocusModifiers)),
		StorageBase:            c.Economy.StorageBase,
		StoragePerFoundryLevel: c.Economy.StoragePerFoundryLevel,
	}
	for name, b := range c.Economy.Buildings {
		bt, ok := building.ParseType(name)
		if !ok {
			return economy.Tuning{}, fmt.Errorf("economy.buildings: unknown building type %q", name)
		}
		res, ok := economy.ParseResource(b.Resource)
		if !ok {
			return economy.Tuning{}, fmt.Errorf("economy.buildings.%s: unknown resource %q", name, b.Resource)
		}
		t.Buildings[bt] = economy.BuildingOutput{Resource: res, Output: b.Output, EnergyCost: b.EnergyCost}
	}
	for name, mods := range c.Economy.FocusModifiers {
		focus, ok := city.ParseFocus(name)
		if !ok {
			return economy.Tuning{}, fmt.Errorf("economy.focusModifiers: unknown focus %q", name)
		}
		m := make(map[economy.Resource]float64, len(mods))
		for rname, v := range mods {
			res, ok := economy.ParseResource(rname)
			if !ok {
				return economy.Tuning{}, fmt.Errorf("economy.focusModifiers.%s: unknown resource %q", name, rname)
			}
			m[res] = v
		}
		t.FocusModifiers[focus] = m
	}
	if err := t.Validate(); err != nil {
		return economy.Tuning{}, err
	}
	return t, nil
}

// BuildingRules converts the upgrade tables into scheduler rules.
func (c *Config) BuildingRules() (building.Rules, error) {
	r := building.Rules{
		MaterialsPerLevel:     c.Economy.MaterialsPerLevel,
		EnergyPerLevel:        c.Economy.EnergyPerLevel,
		BaseHours:             make(map[building.Type]float64, len(c.Economy.Buildings)),
		KnowledgeDivisor:      c.Economy.KnowledgeDivisor,
		MaxKnowledgeReduction: c.Economy.MaxKnowledgeReduction,
	}
	for name, b := range c.Economy.Buildings {
		bt, ok := building.ParseType(name)
		if !ok {
			return building.Rules{}, fmt.Errorf("economy.buildings: unknown building type %q", name)
		}
		if b.BaseUpgradeHours <= 0 {
			return building.Rules{}, fmt.Errorf("economy.buildings.%s: baseUpgradeHours must be positive", name)
		}
		r.BaseHours[bt] = b.BaseUpgradeHours
	}
	if r.MaterialsPerLevel < 0 || r.EnergyPerLevel < 0 {
		return building.Rules{}, errors.New("economy: upgrade costs must not be negative")
	}
	if r.KnowledgeDivisor <= 0 {
		return building.Rules{}, errors.New("economy.knowledgeDivisor must be positive")
	}
	if r.MaxKnowledgeReduction < 0 || r.MaxKnowledgeReduction >= 1 {
		return building.Rules{}, errors.New("economy.maxKnowledgeReduction must be in [0, 1)")
	}
	return r, nil
}

// BeaconWindow returns the beacon window as a duration.
func (c *Config) BeaconWindow() time.Duration {
	return time.Duration(c.Governance.BeaconWindowHours) * time.Hour
}

// FocusCooldown returns the focus cooldown as a duration.
func (c *Config) FocusCooldown() time.Duration {
	return time.Duration(c.Governance.FocusCooldownHours) * time.Hour
}

// CycleInterval returns the minimum spacing between world cycles.
func (c *Config) CycleInterval() time.Duration {
	return time.Duration(c.Cycle.IntervalMinutes) * time.Minute
}

// CityTimeout returns the per-city bound for cycle steps.
func (c *Config) CityTimeout() time.Duration {
	return time.Duration(c.Cycle.CityTimeoutSeconds) * time.Second
}

// RetryBaseDelay returns the first backoff delay of the retry loop.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Retry.BaseDelayMillis) * time.Millisecond
}

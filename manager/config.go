package manager

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/orion-udf/core/errs"
	"github.com/orion-udf/core/udf"
)

// Config is the Manager's construction-time configuration: the ordered UDF
// chain plus the sizing of its worker pool and queues.
type Config struct {
	Chain               []udf.Spec `yaml:"chain"`
	Workers             int        `yaml:"workers"`
	QueueCapacity       int        `yaml:"queue_capacity"`
	OutputQueueCapacity int        `yaml:"output_queue_capacity"`
	MaxJobs             int        `yaml:"max_jobs"`
	TargetEncType       string     `yaml:"target_enc_type"`
	TargetEncLvl        int        `yaml:"target_enc_lvl"`
	IdleThresholdS      int        `yaml:"idle_threshold_s"`
}

// Load reads and parses a YAML manager configuration from path, then
// validates it, matching orion-prototipe/internal/config.Load's
// read-then-parse-then-validate shape.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.New(errs.ConfigInvalid, fmt.Sprintf("read config file %s", path), err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errs.New(errs.ConfigInvalid, "parse manager config yaml", err)
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = 64
	}
	if cfg.OutputQueueCapacity <= 0 {
		cfg.OutputQueueCapacity = 64
	}
	if cfg.MaxJobs <= 0 {
		cfg.MaxJobs = cfg.Workers * 2
	}
	if cfg.IdleThresholdS <= 0 {
		cfg.IdleThresholdS = 30
	}
}

// Validate checks invariants Load cannot repair with a default: at least
// one chain entry, and every entry carrying both a type and a name.
func Validate(cfg *Config) error {
	if len(cfg.Chain) == 0 {
		return errs.New(errs.ConfigInvalid, "manager config has an empty udf chain", nil)
	}
	for i, spec := range cfg.Chain {
		if spec.Type == "" {
			return errs.New(errs.ConfigInvalid, fmt.Sprintf("chain[%d] missing type", i), nil)
		}
		if spec.Name == "" {
			return errs.New(errs.ConfigInvalid, fmt.Sprintf("chain[%d] missing name", i), nil)
		}
	}
	return nil
}

package solver

import (
	"time"

	"github.com/dlemos/amekit/internal/ame"
)

type BackendConfig struct {
	Backend        Backend       `yaml:"backend" json:"backend"`
	Command        string        `yaml:"command" json:"command"`
	Args           []string      `yaml:"args,omitempty" json:"args,omitempty"`
	Enabled        bool          `yaml:"enabled" json:"enabled"`
	InitTimeout    time.Duration `yaml:"init_timeout" json:"init_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	MaxRestarts    int           `yaml:"max_restarts" json:"max_restarts"`
}

type ManagerConfig struct {
	Enabled        bool                      `yaml:"enabled" json:"enabled"`
	AutoStart      bool                      `yaml:"auto_start" json:"auto_start"`
	IdleTimeout    time.Duration             `yaml:"idle_timeout" json:"idle_timeout"`
	RequestTimeout time.Duration             `yaml:"request_timeout" json:"request_timeout"`
	MaxConcurrent  int                       `yaml:"max_concurrent" json:"max_concurrent"`
	Backends       map[Backend]BackendConfig `yaml:"backends" json:"backends"`
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Enabled:        true,
		AutoStart:      false,
		IdleTimeout:    10 * time.Minute,
		RequestTimeout: 30 * time.Second,
		MaxConcurrent:  2,
		Backends: map[Backend]BackendConfig{
			BackendStandard: {
				Backend:        BackendStandard,
				Command:        "amerun",
				Args:           []string{"--stdio"},
				Enabled:        true,
				InitTimeout:    10 * time.Second,
				RequestTimeout: 30 * time.Second,
				MaxRestarts:    3,
			},
			BackendFixedStep: {
				Backend:        BackendFixedStep,
				Command:        "amerun-fixed",
				Args:           []string{"--stdio"},
				Enabled:        true,
				InitTimeout:    10 * time.Second,
				RequestTimeout: 30 * time.Second,
				MaxRestarts:    3,
			},
		},
	}
}

// BackendFor picks the backend matching the run options integrator.
func BackendFor(opt *ame.RunOptions) Backend {
	if opt != nil && opt.IntegratorType == ame.IntegratorFixed {
		return BackendFixedStep
	}
	return BackendStandard
}

func (c *ManagerConfig) GetEnabledBackends() []Backend {
	var backends []Backend
	for backend, cfg := range c.Backends {
		if cfg.Enabled {
			backends = append(backends, backend)
		}
	}
	return backends
}

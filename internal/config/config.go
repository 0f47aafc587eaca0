package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/prabalesh/osdash/internal/memory"
	"github.com/prabalesh/osdash/internal/scheduler"
)

// defaults
const (
	DefaultTickInterval = 500 * time.Millisecond
	DefaultQuantum      = 4
	DefaultMemoryTotal  = 1000
	DefaultProcRoot     = "/proc"
	DefaultMaxProcesses = 8
)

type Config struct {
	TickInterval time.Duration `yaml:"tick_interval"`
	Scheduler    Scheduler     `yaml:"scheduler"`
	Memory       Memory        `yaml:"memory"`
	Log          Log           `yaml:"log"`
	Collector    Collector     `yaml:"collector"`
	Scenario     Scenario      `yaml:"scenario"`
}

type Scheduler struct {
	Policy  string `yaml:"policy"`
	Quantum int    `yaml:"quantum"`
}

type Memory struct {
	Total    int    `yaml:"total"`
	Strategy string `yaml:"strategy"`
}

type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Collector struct {
	ProcRoot     string `yaml:"proc_root"`
	MaxProcesses int    `yaml:"max_processes"`
}

// Scenario is an optional preset applied to the engines at startup.
type Scenario struct {
	Processes   []ProcessSpec    `yaml:"processes"`
	Allocations []AllocationSpec `yaml:"allocations"`
	Resources   []ResourceSpec   `yaml:"resources"`
	Holders     []string         `yaml:"holders"`
	Operations  []OperationSpec  `yaml:"operations"`
}

type ProcessSpec struct {
	ID      string `yaml:"id"`
	Arrival int    `yaml:"arrival"`
	Burst   int    `yaml:"burst"`
}

type AllocationSpec struct {
	PID      string `yaml:"pid"`
	Size     int    `yaml:"size"`
	Strategy string `yaml:"strategy"`
}

type ResourceSpec struct {
	ID        string `yaml:"id"`
	Instances int    `yaml:"instances"`
}

// OperationSpec is one of request, allocate or release.
type OperationSpec struct {
	Op       string `yaml:"op"`
	PID      string `yaml:"pid"`
	RID      string `yaml:"rid"`
	Quantity int    `yaml:"qty"`
}

func Default() Config {
	return Config{
		TickInterval: DefaultTickInterval,
		Scheduler:    Scheduler{Policy: "fcfs", Quantum: DefaultQuantum},
		Memory:       Memory{Total: DefaultMemoryTotal, Strategy: "first-fit"},
		Log:          Log{Level: "info", File: "osdash.log"},
		Collector:    Collector{ProcRoot: DefaultProcRoot, MaxProcesses: DefaultMaxProcesses},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval))
	}
	if c.Scheduler.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.quantum must be positive, got %d", c.Scheduler.Quantum))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if c.Memory.Total <= 0 {
		errs = append(errs, fmt.Errorf("memory.total must be positive, got %d", c.Memory.Total))
	}
	if _, err := c.Strategy(); err != nil {
		errs = append(errs, err)
	}
	if c.Collector.MaxProcesses <= 0 {
		errs = append(errs, fmt.Errorf("collector.max_processes must be positive, got %d", c.Collector.MaxProcesses))
	}
	for _, op := range c.Scenario.Operations {
		switch op.Op {
		case "request", "allocate", "release":
		default:
			errs = append(errs, fmt.Errorf("scenario operation %q is not request, allocate or release", op.Op))
		}
	}
	return errors.Join(errs...)
}

func (c Config) Policy() (scheduler.Policy, error) {
	return scheduler.ParsePolicy(c.Scheduler.Policy, c.Scheduler.Quantum)
}

func (c Config) Strategy() (memory.Strategy, error) {
	return memory.ParseStrategy(c.Memory.Strategy)
}

package analysis

import (
	"fmt"
	"runtime"
)

// -------------------- Enums --------------------

type OutputOrder int

const (
	// Zero value keeps results deterministic
	OrderBySource OutputOrder = iota
	OrderByRule
)

func (o OutputOrder) String() string {
	switch o {
	case OrderBySource:
		return "BySource"
	case OrderByRule:
		return "ByRule"
	default:
		return fmt.Sprintf("OutputOrder(%d)", int(o))
	}
}

// -------------------- Config --------------------

type Config struct {
	// Number of files analysed concurrently
	Workers int `json:"workers"`

	// Charset used to decode file bytes (htmlindex name, e.g. "utf-8", "windows-1252")
	Charset string `json:"charset"`

	// Skip regex evaluation for texts missing a required literal
	EnablePrefilter bool `json:"enable_prefilter"`

	// Files larger than this are skipped (0 = no limit)
	MaxFileBytes int64 `json:"max_file_bytes"`

	// Ordering of issues returned by AnalyzePaths
	Order OutputOrder `json:"order"`
}

func DefaultConfig() Config {
	return Config{
		Workers:         runtime.NumCPU(),
		Charset:         "utf-8",
		EnablePrefilter: true,
		MaxFileBytes:    16 * 1024 * 1024, // 16MB
		Order:           OrderBySource,
	}
}

// ProductionConfig favours throughput on large trees.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 2 * runtime.NumCPU()
	cfg.MaxFileBytes = 64 * 1024 * 1024 // 64MB
	return cfg
}

// DevelopmentConfig runs serially without the prefilter, so every rule is
// evaluated on every file.
func DevelopmentConfig() Config {
	return Config{
		Workers:         1,
		Charset:         "utf-8",
		EnablePrefilter: false,
		MaxFileBytes:    0,
		Order:           OrderBySource,
	}
}

func (c Config) WithWorkers(n int) Config {
	c.Workers = n
	return c
}

func (c Config) WithCharset(name string) Config {
	c.Charset = name
	return c
}

func (c Config) WithPrefilter(enable bool) Config {
	c.EnablePrefilter = enable
	return c
}

func (c Config) WithMaxFileBytes(n int64) Config {
	c.MaxFileBytes = n
	return c
}

func (c Config) WithOrder(o OutputOrder) Config {
	c.Order = o
	return c
}

func (c Config) workers() int {
	if c.Workers < 1 {
		return 1
	}
	return c.Workers
}

package numgo

import (
	"log/slog"

	"github.com/hupe1980/numgo/codec"
	"github.com/hupe1980/numgo/snapshot"
)

type options struct {
	configFile       string
	config           *Config         // explicit full config, wins over configFile
	configFns        []func(*Config) // per-field overrides, applied last in order
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	memoryLimitBytes int64
	ioLimitPerSec    int64
	maxBackground    int64
}

// Option configures Router constructor behavior.
//
// Per-field options always win over WithConfig/WithConfigFile, regardless
// of argument order.
type Option func(*options)

// WithConfig replaces the entire configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		c := cfg
		o.config = &c
	}
}

// WithConfigFile loads the configuration from a JSON file at construction.
// See Config for the file format.
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFile = path
	}
}

// WithISA requests a specific instruction set (e.g. "avx2", "neon") and
// disables auto-detection. If the set is unavailable on the host, the
// fallback order applies.
func WithISA(isa string) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *Config) {
			c.PreferredISA = isa
			c.AutoDetect = false
		})
	}
}

// WithAccelerationDisabled forces every operation onto the baseline
// scalar kernels. Useful for producing reference results.
func WithAccelerationDisabled() Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *Config) {
			c.Enabled = false
		})
	}
}

// WithWorkers bounds the scheduler's worker goroutines. Values above the
// logical core count are clamped; 0 means logical cores.
func WithWorkers(workers int) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *Config) {
			c.Workers = workers
		})
	}
}

// WithParallelThreshold sets the work size below which operations run
// inline on the calling goroutine.
func WithParallelThreshold(threshold int) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *Config) {
			c.ParallelThreshold = threshold
		})
	}
}

// WithCompression selects the payload compression for snapshots written
// by this router.
func WithCompression(comp snapshot.Compression) Option {
	return func(o *options) {
		o.configFns = append(o.configFns, func(c *Config) {
			c.Compression = comp.String()
		})
	}
}

// WithCodec configures the codec used for snapshot metadata sections.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithMemoryLimit sets a hard budget in bytes for buffers allocated by
// the router. Allocations beyond the budget fail with ErrAllocation.
// 0 disables the budget.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimitBytes = bytes
	}
}

// WithIORateLimit caps snapshot read/write throughput in bytes per
// second. 0 disables the limit.
func WithIORateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimitPerSec = bytesPerSec
	}
}

// WithMaxBackgroundJobs bounds concurrent background work such as
// benchmark runs. 0 defaults to 1.
func WithMaxBackgroundJobs(jobs int64) Option {
	return func(o *options) {
		o.maxBackground = jobs
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &numgo.BasicMetricsCollector{}
//	ng, _ := numgo.New(numgo.WithMetricsCollector(metrics))
//	// ... use ng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Ops: %d, Avg latency: %dns\n", stats.OpCount, stats.OpAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := numgo.NewJSONLogger(slog.LevelInfo)
//	ng, _ := numgo.New(numgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            nil,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

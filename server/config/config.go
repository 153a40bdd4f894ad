package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/vigilglc/sortid/server/idgen"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	ErrInvalidServiceAddr = errors.New("config: invalid service address")
	ErrInvalidMetricsAddr = errors.New("config: invalid metrics address")
	ErrInvalidMaxBatch    = errors.New("config: maxBatch must be positive")
	ErrInvalidLogLevel    = errors.New("config: unknown log level")
)

const (
	defaultServiceAddr = "127.0.0.1:7410"
	defaultMaxBatch    = 1024
	defaultLogLevel    = "info"
)

type ServerConfig struct {
	Name string `toml:"name" json:"name"`
	// node is embedded verbatim in every id, operators must keep it unique across processes.
	Node uint32 `toml:"node" json:"node"`
	// transport
	ServiceAddr string `toml:"serviceAddr" json:"serviceAddr"`
	MetricsAddr string `toml:"metricsAddr,omitempty" json:"metricsAddr,omitempty"` // empty disables /metrics
	MaxBatch    uint32 `toml:"maxBatch" json:"maxBatch"`                               // most ids one request may ask for
	// generator
	SpinYield bool `toml:"spinYield,omitempty" json:"spinYield,omitempty"` // yield the processor while waiting for the next tick
	// logger
	lgMu           sync.Mutex
	lg             *zap.Logger
	Development    bool     `toml:"development,omitempty" json:"development,omitempty"`
	LogLevel       string   `toml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogOutputPaths []string `toml:"logOutputPaths,omitempty" json:"logOutputPaths,omitempty"`
}

var strMapZapLevel = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zap.PanicLevel,
	"fatal": zap.FatalLevel,
}

func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Name:        "sortid",
		ServiceAddr: defaultServiceAddr,
		MaxBatch:    defaultMaxBatch,
		LogLevel:    defaultLogLevel,
	}
}

// ReadServerConfig decodes the toml file at path on top of DefaultServerConfig.
func ReadServerConfig(path string) (*ServerConfig, error) {
	cfg := DefaultServerConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func Validate(cfg *ServerConfig) error {
	if _, _, err := net.SplitHostPort(cfg.ServiceAddr); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidServiceAddr, cfg.ServiceAddr, err)
	}
	if len(cfg.MetricsAddr) != 0 {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidMetricsAddr, cfg.MetricsAddr, err)
		}
	}
	if cfg.MaxBatch == 0 {
		return ErrInvalidMaxBatch
	}
	if len(cfg.LogLevel) != 0 {
		if _, ok := strMapZapLevel[strings.ToLower(cfg.LogLevel)]; !ok {
			return fmt.Errorf("%w %q", ErrInvalidLogLevel, cfg.LogLevel)
		}
	}
	return nil
}

// MakeLogger drops the cached logger so the next GetLogger picks up changed log settings.
func (cfg *ServerConfig) MakeLogger() {
	cfg.lgMu.Lock()
	defer cfg.lgMu.Unlock()
	if cfg.lg != nil {
		_ = cfg.lg.Sync()
	}
	cfg.lg = nil
}

func (cfg *ServerConfig) GetLogger() *zap.Logger {
	var err error
	cfg.lgMu.Lock()
	defer cfg.lgMu.Unlock()
	if cfg.lg != nil {
		return cfg.lg
	}
	logLevel := zapcore.InfoLevel
	if lv, ok := strMapZapLevel[strings.ToLower(cfg.LogLevel)]; ok {
		logLevel = lv
	}
	logOutputPaths := cfg.LogOutputPaths
	if len(logOutputPaths) == 0 {
		logOutputPaths = []string{"stderr"}
	}
	cfg.lg, err = zap.Config{
		Level:       zap.NewAtomicLevelAt(logLevel),
		Development: cfg.Development,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      logOutputPaths,
		ErrorOutputPaths: logOutputPaths,
	}.Build()
	if err != nil {
		panic("server config failed to create logger")
	}
	cfg.lg = cfg.lg.With(zap.String("name", cfg.Name), zap.Uint32("node", cfg.Node))
	return cfg.lg
}

// GetGeneratorOptions translates generator settings into idgen options.
func (cfg *ServerConfig) GetGeneratorOptions() (opts []idgen.Option) {
	if cfg.SpinYield {
		opts = append(opts, idgen.WithSpinYield(runtime.Gosched))
	}
	return
}

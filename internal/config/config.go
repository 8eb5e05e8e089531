// Package config resolves application configuration from the process
// environment, optionally overlaid on a local .env file, and produces an
// immutable Config. It centralizes database connectivity, network binding,
// diagnostics, HTTP hardening and observability settings.
//
// Resolution order: values from the .env file are loaded first and superseded
// by environment variables of the same key. The result is built once in main
// and passed explicitly to every component that needs it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/tbourn/go-mongo-skeleton/internal/sysutil"
)

// ErrConfig is wrapped by every resolution failure.
var ErrConfig = errors.New("configuration error")

// Run modes. RunModeTest switches the logical database to TEST_DBNAME.
const (
	RunModeProduction = "production"
	RunModeTest       = "test"
)

// DefaultTestDBName is used in test mode when TEST_DBNAME is unset.
const DefaultTestDBName = "testdb"

// mongoURIOptions is appended to every assembled connection string.
const mongoURIOptions = "/?retryWrites=true&w=majority&authSource=admin"

// Database holds document store connectivity settings.
type Database struct {
	URI         string // derived from DBUSER/DBPASS/DBHOST/DBPORT
	MaxPoolSize uint64 // 0 = driver default
	Name        string // logical database
}

// Network holds listener settings.
type Network struct {
	Addr    string // 0.0.0.0:<HTTP_PORT>
	Threads int    // 0 = runtime default
}

// Diagnostics holds logging verbosity settings.
type Diagnostics struct {
	LogLevel  string // debug|info|warn|error|fatal|panic
	Backtrace uint8  // non-zero attaches stack traces to fatal logs and panics
	LogPretty bool   // console writer instead of JSON lines
}

// HTTPConfig holds transport hardening settings for the gin engine and
// http.Server.
type HTTPConfig struct {
	GinMode           string        // debug|release|test
	ReadHeaderTimeout time.Duration // e.g. 10s
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	RateRPS           float64 // tokens per second, 0 disables the limiter
	RateBurst         int
	AllowedOrigins    []string
	EnableHSTS        bool
	HSTSMaxAge        time.Duration
	Gzip              bool
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// Config is the resolved configuration. Treat it as read-only.
type Config struct {
	RunMode     string
	Database    Database
	Network     Network
	Diagnostics Diagnostics
	HTTP        HTTPConfig
	OTEL        OTELConfig
}

// raw mirrors the environment one field per key.
type raw struct {
	RunMode string `env:"RUN_MODE" envDefault:"production" validate:"oneof=production test"`

	HTTPPort string `env:"HTTP_PORT,required,notEmpty"`
	Threads  int    `env:"THREADS" validate:"gte=0"`

	DBUser      string `env:"DBUSER,required,notEmpty"`
	DBPass      string `env:"DBPASS,required,notEmpty"`
	DBHost      string `env:"DBHOST" envDefault:"localhost"`
	DBPort      string `env:"DBPORT" envDefault:"27017"`
	DBName      string `env:"DBNAME,required,notEmpty"`
	TestDBName  string `env:"TEST_DBNAME" envDefault:"testdb"`
	MaxPoolSize uint64 `env:"MAX_POOL_SIZE"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"error" validate:"oneof=debug info warn error fatal panic"`
	Backtrace uint8  `env:"BACKTRACE" envDefault:"0"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`

	GinMode           string        `env:"GIN_MODE" envDefault:"release"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"15s" validate:"gt=0"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"20s" validate:"gt=0"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s" validate:"gt=0"`
	MaxHeaderBytes    int           `env:"MAX_HEADER_BYTES" envDefault:"1048576" validate:"gt=0"`
	RateRPS           float64       `env:"RATE_RPS" envDefault:"0" validate:"gte=0"`
	RateBurst         int           `env:"RATE_BURST" envDefault:"10" validate:"gte=1"`
	AllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	EnableHSTS        bool          `env:"ENABLE_HSTS" envDefault:"false"`
	HSTSMaxAge        time.Duration `env:"HSTS_MAX_AGE" envDefault:"4320h" validate:"gte=0"`
	Gzip              bool          `env:"HTTP_GZIP" envDefault:"false"`

	OTELEnabled     bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint    string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELInsecure    bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELServiceName string  `env:"OTEL_SERVICE_NAME" envDefault:"go-mongo-skeleton"`
	OTELSampleRatio float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"1" validate:"gte=0,lte=1"`
}

// MustLoad loads the configuration and panics if resolution fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the override file named by ENV_FILE (default ".env"), overlays
// the process environment and resolves the result. A missing override file
// is not an error.
func Load() (Config, error) {
	environ := env.ToMap(os.Environ())

	path := environ["ENV_FILE"]
	if path == "" {
		path = ".env"
	}
	fileVals, err := readEnvFile(path)
	if err != nil {
		return Config{}, err
	}
	return Resolve(Overlay(fileVals, environ))
}

// Overlay merges maps left to right; later maps win on duplicate keys.
func Overlay(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Resolve turns a flat key/value mapping into a Config. It performs no I/O.
func Resolve(vars map[string]string) (Config, error) {
	var r raw
	if err := env.ParseWithOptions(&r, env.Options{Environment: vars}); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	normalize(&r)

	if err := validator.New().Struct(&r); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	if err := checkPort("HTTP_PORT", r.HTTPPort); err != nil {
		return Config{}, err
	}
	if r.DBPort != "" {
		if err := checkPort("DBPORT", r.DBPort); err != nil {
			return Config{}, err
		}
	}

	dbName := r.DBName
	if r.RunMode == RunModeTest {
		dbName = sysutil.FirstNonEmpty(r.TestDBName, DefaultTestDBName)
	}
	host := sysutil.FirstNonEmpty(r.DBHost, "localhost")
	dbPort := sysutil.FirstNonEmpty(r.DBPort, "27017")

	return Config{
		RunMode: r.RunMode,
		Database: Database{
			URI:         MongoURI(r.DBUser, r.DBPass, host, dbPort),
			MaxPoolSize: r.MaxPoolSize,
			Name:        dbName,
		},
		Network: Network{
			Addr:    "0.0.0.0:" + r.HTTPPort,
			Threads: r.Threads,
		},
		Diagnostics: Diagnostics{
			LogLevel:  r.LogLevel,
			Backtrace: r.Backtrace,
			LogPretty: r.LogPretty,
		},
		HTTP: HTTPConfig{
			GinMode:           r.GinMode,
			ReadHeaderTimeout: r.ReadHeaderTimeout,
			ReadTimeout:       r.ReadTimeout,
			WriteTimeout:      r.WriteTimeout,
			IdleTimeout:       r.IdleTimeout,
			MaxHeaderBytes:    r.MaxHeaderBytes,
			RateRPS:           r.RateRPS,
			RateBurst:         r.RateBurst,
			AllowedOrigins:    r.AllowedOrigins,
			EnableHSTS:        r.EnableHSTS,
			HSTSMaxAge:        r.HSTSMaxAge,
			Gzip:              r.Gzip,
		},
		OTEL: OTELConfig{
			Enabled:     r.OTELEnabled,
			Endpoint:    r.OTELEndpoint,
			Insecure:    r.OTELInsecure,
			ServiceName: r.OTELServiceName,
			SampleRatio: r.OTELSampleRatio,
		},
	}, nil
}

// MongoURI assembles a MongoDB connection string. Credentials are inserted
// as given.
func MongoURI(user, pass, host, port string) string {
	return "mongodb://" + user + ":" + pass + "@" + host + ":" + port + mongoURIOptions
}

// ---- helpers ----

func readEnvFile(path string) (map[string]string, error) {
	vals, err := godotenv.Read(path)
	if err == nil {
		return vals, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: read %s: %w", ErrConfig, path, err)
}

func normalize(r *raw) {
	r.RunMode = strings.ToLower(strings.TrimSpace(r.RunMode))
	r.LogLevel = strings.ToLower(strings.TrimSpace(r.LogLevel))
	if r.LogLevel == "warning" {
		r.LogLevel = "warn"
	}
	r.GinMode = strings.ToLower(r.GinMode)
	switch r.GinMode {
	case "debug", "release", "test":
	default:
		r.GinMode = "release"
	}
	r.AllowedOrigins = trimCSV(r.AllowedOrigins)
}

func checkPort(key, v string) error {
	if _, err := strconv.ParseUint(v, 10, 16); err != nil {
		return fmt.Errorf("%w: %s must be a port number, got %q", ErrConfig, key, v)
	}
	return nil
}

func trimCSV(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package acousticbpm

import (
	"runtime"
	"time"

	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/audio"
	"github.com/himanishpuri/AcousticBPM/pkg/acousticbpm/tempo"
)

type Config struct {
	DBPath         string
	DisableStorage bool
	Workers        int
	FileTimeout    time.Duration
	Recursive      bool
	Extensions     []string
	Params         tempo.Params
	Decoder        audio.DecodeFunc
	Logger         Logger
	Storage        Storage
	Sink           Sink
}

// DefaultFileTimeout bounds the time one file may hold a worker.
const DefaultFileTimeout = 5 * time.Minute

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

// WithoutStorage turns off result persistence.
func WithoutStorage() Option {
	return func(c *Config) {
		c.DisableStorage = true
	}
}

// WithWorkers bounds the number of files analysed in parallel.
// Values below 1 select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

// WithFileTimeout gives up on a file whose decode and analysis take longer
// than d, reporting it as timed out so its worker can take the next file.
// Zero disables the limit.
func WithFileTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.FileTimeout = d
	}
}

func WithRecursive(recursive bool) Option {
	return func(c *Config) {
		c.Recursive = recursive
	}
}

// WithExtensions replaces the recognized extension set (e.g. ".wav").
func WithExtensions(exts ...string) Option {
	return func(c *Config) {
		c.Extensions = exts
	}
}

func WithParams(p tempo.Params) Option {
	return func(c *Config) {
		c.Params = p
	}
}

func WithDecoder(dec audio.DecodeFunc) Option {
	return func(c *Config) {
		c.Decoder = dec
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithSink(sink Sink) Option {
	return func(c *Config) {
		c.Sink = sink
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:      "acousticbpm.sqlite3",
		Workers:     runtime.NumCPU(),
		FileTimeout: DefaultFileTimeout,
		Extensions:  audio.Extensions(),
		Params:      tempo.DefaultParams(),
		Decoder:     audio.Decode,
	}
}

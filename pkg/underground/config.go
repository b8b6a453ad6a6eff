package underground

import "time"

type Config struct {
	DataDir    string
	MediaDir   string
	SessionTTL time.Duration
	LikeWindow time.Duration
	Logger     Logger
	Storage    Storage
	Now        func() time.Time
}

type Option func(*Config)

func WithDataDir(dir string) Option {
	return func(c *Config) {
		c.DataDir = dir
	}
}

func WithMediaDir(dir string) Option {
	return func(c *Config) {
		c.MediaDir = dir
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.SessionTTL = ttl
	}
}

func WithLikeWindow(window time.Duration) Option {
	return func(c *Config) {
		c.LikeWindow = window
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

// WithClock overrides the time source, used by tests to control session
// expiry and like-window behavior.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

func defaultConfig() *Config {
	return &Config{
		DataDir:    "data",
		MediaDir:   ".",
		SessionTTL: time.Hour,
		LikeWindow: 24 * time.Hour,
		Now:        time.Now,
	}
}

package hpserver

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/jpillora/requestlog"
	cron "github.com/robfig/cron/v3"

	"github.com/hostpulse/hostpulse/monitor"
	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/share/logger"
)

const (
	DefaultAPIAddress      = "0.0.0.0:5000"
	DefaultDataDirectory   = "./data"
	DefaultMaxRequestBytes = 10 * 1024 // 10 KB

	DefaultRefreshInterval = 5 * time.Second
	DefaultSamplingWindow  = 100 * time.Millisecond
	DefaultSpecsCacheTTL   = 30 * time.Second
	DefaultRetentionDays   = 30
	DefaultCleanupSchedule = "@daily"

	MinRefreshInterval = time.Second

	telemetryDBName = "hostpulse.db"
)

type APIConfig struct {
	Address       string   `mapstructure:"address"`
	CORSOrigins   []string `mapstructure:"cors_origins"`
	CertFile      string   `mapstructure:"cert_file"`
	KeyFile       string   `mapstructure:"key_file"`
	AccessLogFile string   `mapstructure:"access_log_file"`
}

type LogConfig struct {
	LogOutput logger.LogOutput `mapstructure:"log_file"`
	LogLevel  logger.LogLevel  `mapstructure:"log_level"`
}

type ServerConfig struct {
	DataDir         string `mapstructure:"data_dir"`
	DeviceID        string `mapstructure:"device_id"`
	SqliteWAL       bool   `mapstructure:"sqlite_wal"`
	MaxRequestBytes int64  `mapstructure:"max_request_bytes"`
}

type MonitoringConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	SamplingWindow   time.Duration `mapstructure:"sampling_window"`
	PingTarget       string        `mapstructure:"ping_target"`
	GeoAPIURL        string        `mapstructure:"geo_api_url"`
	GeoCacheTTL      time.Duration `mapstructure:"geo_cache_ttl"`
	BenchmarkTimeout time.Duration `mapstructure:"benchmark_timeout"`
	SpecsCacheTTL    time.Duration `mapstructure:"specs_cache_ttl"`
	RetentionDays    int64         `mapstructure:"retention_days"`
	CleanupSchedule  string        `mapstructure:"cleanup_schedule"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LogConfig        `mapstructure:"logging"`
	API        APIConfig        `mapstructure:"api"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

func (c *Config) TelemetryDBPath() string {
	return path.Join(c.Server.DataDir, telemetryDBName)
}

func (c *Config) InitRequestLogOptions() *requestlog.Options {
	o := requestlog.DefaultOptions
	o.Writer = c.Logging.LogOutput.File
	o.Filter = func(r *http.Request, code int, duration time.Duration, size int64) bool {
		return c.Logging.LogLevel == logger.LogLevelInfo || c.Logging.LogLevel == logger.LogLevelDebug
	}
	return &o
}

// MonitorConfig maps the monitoring section onto the collection engine.
func (c *Config) MonitorConfig() monitor.Config {
	return monitor.Config{
		Interval:    c.Monitoring.Interval,
		PingTarget:  c.Monitoring.PingTarget,
		GeoAPIURL:   c.Monitoring.GeoAPIURL,
		GeoCacheTTL: c.Monitoring.GeoCacheTTL,
	}
}

func (c *Config) ParseAndValidate() error {
	if c.API.Address == "" {
		c.API.Address = DefaultAPIAddress
	}
	if c.Server.DataDir == "" {
		return errors.New("'data directory path' cannot be empty")
	}
	if c.Server.MaxRequestBytes <= 0 {
		c.Server.MaxRequestBytes = DefaultMaxRequestBytes
	}
	if (c.API.CertFile == "") != (c.API.KeyFile == "") {
		return errors.New("API cert_file and key_file must be set together")
	}

	if c.Monitoring.Interval == 0 {
		c.Monitoring.Interval = DefaultRefreshInterval
	}
	if c.Monitoring.Interval < MinRefreshInterval {
		return fmt.Errorf("expected monitoring interval of at least %v, actual: %v", MinRefreshInterval, c.Monitoring.Interval)
	}
	if c.Monitoring.SamplingWindow <= 0 {
		c.Monitoring.SamplingWindow = DefaultSamplingWindow
	}
	if c.Monitoring.GeoCacheTTL <= 0 {
		c.Monitoring.GeoCacheTTL = monitor.DefaultGeoCacheTTL
	}
	if c.Monitoring.BenchmarkTimeout <= 0 {
		c.Monitoring.BenchmarkTimeout = bandwidth.DefaultTimeout
	}
	if c.Monitoring.SpecsCacheTTL <= 0 {
		c.Monitoring.SpecsCacheTTL = DefaultSpecsCacheTTL
	}
	if c.Monitoring.RetentionDays < 0 {
		return fmt.Errorf("retention_days cannot be negative, actual: %d", c.Monitoring.RetentionDays)
	}
	if c.Monitoring.CleanupSchedule == "" {
		c.Monitoring.CleanupSchedule = DefaultCleanupSchedule
	}
	if _, err := cron.ParseStandard(c.Monitoring.CleanupSchedule); err != nil {
		return fmt.Errorf("invalid cleanup_schedule %q: %v", c.Monitoring.CleanupSchedule, err)
	}

	return nil
}

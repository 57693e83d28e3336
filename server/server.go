package hpserver

import (
	"context"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
	cron "github.com/robfig/cron/v3"

	"github.com/hostpulse/hostpulse/db/sqlite"
	"github.com/hostpulse/hostpulse/monitor"
	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/monitor/probes"
	"github.com/hostpulse/hostpulse/server/store"
	hpshare "github.com/hostpulse/hostpulse/share"
	"github.com/hostpulse/hostpulse/share/logger"
)

// Server wires the telemetry store, the collection engine and the HTTP API
// for one monitored host.
type Server struct {
	*logger.Logger
	config      *Config
	provider    store.DBProvider
	service     store.Service
	monitor     *monitor.Monitor
	apiListener *APIListener
	cron        *cron.Cron
}

// NewServer creates and returns a new telemetry server. A store that cannot
// be opened is fatal; the daemon has nothing to serve without it.
func NewServer(config *Config) (*Server, error) {
	l := logger.NewLogger("server", config.Logging.LogOutput, config.Logging.LogLevel)

	deviceID := deviceIdentity(config, l)
	l.Infof("Device ID %s", deviceID)

	if err := os.MkdirAll(config.Server.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("cannot create data directory %q: %v", config.Server.DataDir, err)
	}

	provider, err := store.NewSqliteProvider(
		config.TelemetryDBPath(),
		sqlite.DataSourceOptions{WALEnabled: config.Server.SqliteWAL},
		l,
	)
	if err != nil {
		return nil, err
	}
	service := store.NewService(provider, deviceID)

	runner := bandwidth.NewSpeedtestRunner(l, config.Monitoring.BenchmarkTimeout)
	m := monitor.NewMonitor(l, config.MonitorConfig(), probes.NewSystemInfo(), service, runner)

	apiListener, err := NewAPIListener(config, m, service)
	if err != nil {
		return nil, err
	}
	SetAPIResponsesErrorLog(apiListener.Logger)

	return &Server{
		Logger:      l,
		config:      config,
		provider:    provider,
		service:     service,
		monitor:     m,
		apiListener: apiListener,
		cron:        cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger))),
	}, nil
}

// deviceIdentity resolves the stable document key of this host: a configured
// override, else the OS machine id, else the hostname.
func deviceIdentity(config *Config, l *logger.Logger) string {
	if config.Server.DeviceID != "" {
		return config.Server.DeviceID
	}

	id, err := machineid.ID()
	if err == nil {
		return id
	}
	l.Errorf("Cannot derive machine id, falling back to hostname: %v", err)

	host, err := os.Hostname()
	if err != nil {
		return "unknown-device"
	}
	return host
}

// Run is responsible for starting the hostpulse service
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	return s.Wait()
}

// Start registers the device document, launches the collection loop and the
// retention schedule, then brings up the API.
func (s *Server) Start() error {
	ctx := context.Background()

	created, err := s.service.EnsureDeviceSpecs(ctx, s.monitor.Inventory().Collect(ctx))
	if err != nil {
		return fmt.Errorf("cannot register device specs: %v", err)
	}
	if created {
		s.Infof("Device specs registered")
	}

	s.monitor.Start(ctx)

	if s.config.Monitoring.RetentionDays > 0 {
		task := store.NewCleanupTask(s.Fork("cleanup"), s.service, s.config.Monitoring.RetentionDays)
		_, err := s.cron.AddFunc(s.config.Monitoring.CleanupSchedule, func() {
			if err := task.Run(context.Background()); err != nil {
				s.Errorf("Cleanup task finished with an error: %v", err)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid cleanup schedule %q: %v", s.config.Monitoring.CleanupSchedule, err)
		}
		s.cron.Start()
	}

	return s.apiListener.Start(s.config.API.Address)
}

func (s *Server) Wait() error {
	return s.apiListener.Wait()
}

func (s *Server) Close() error {
	s.monitor.Stop()
	cronCtx := s.cron.Stop()

	return hpshare.SyncCall(
		s.apiListener.Close,
		s.provider.Close,
		func() error {
			<-cronCtx.Done()
			return nil
		},
	)
}

package hpserver

import (
	"io"
	"os"

	"github.com/gorilla/mux"
	"github.com/jpillora/requestlog"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"

	"github.com/hostpulse/hostpulse/monitor"
	"github.com/hostpulse/hostpulse/server/store"
	hpshare "github.com/hostpulse/hostpulse/share"
	"github.com/hostpulse/hostpulse/share/logger"
)

// APIListener serves the telemetry HTTP API in front of one collection
// engine and its store.
type APIListener struct {
	*logger.Logger

	config            *Config
	monitor           *monitor.Monitor
	store             store.Service
	router            *mux.Router
	httpServer        *hpshare.HTTPServer
	requestLogOptions *requestlog.Options
	accessLogFile     io.WriteCloser
	specsCache        *gocache.Cache
}

func NewAPIListener(config *Config, m *monitor.Monitor, svc store.Service) (*APIListener, error) {
	l := logger.NewLogger("api-listener", config.Logging.LogOutput, config.Logging.LogLevel)

	var serverOptions []hpshare.ServerOption
	if config.API.CertFile != "" && config.API.KeyFile != "" {
		serverOptions = append(serverOptions, hpshare.WithTLS(config.API.CertFile, config.API.KeyFile, nil))
	}

	al := &APIListener{
		Logger:            l,
		config:            config,
		monitor:           m,
		store:             svc,
		httpServer:        hpshare.NewHTTPServer(int(config.Server.MaxRequestBytes), l, serverOptions...),
		requestLogOptions: config.InitRequestLogOptions(),
		specsCache:        gocache.New(config.Monitoring.SpecsCacheTTL, 2*config.Monitoring.SpecsCacheTTL),
	}

	if config.API.AccessLogFile != "" {
		accessLogFile, err := os.OpenFile(config.API.AccessLogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		al.accessLogFile = accessLogFile
	}

	al.initRouter()

	return al, nil
}

func (al *APIListener) Start(addr string) error {
	al.Infof("API Listening on %s...", addr)

	return al.httpServer.GoListenAndServe(addr, al.router)
}

func (al *APIListener) Wait() error {
	if al.httpServer == nil {
		return nil
	}
	return al.httpServer.Wait()
}

func (al *APIListener) Close() error {
	g := &errgroup.Group{}
	if al.httpServer != nil {
		g.Go(al.httpServer.Close)
	}
	if al.accessLogFile != nil {
		g.Go(al.accessLogFile.Close)
	}

	return g.Wait()
}

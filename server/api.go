package hpserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jpillora/requestlog"
	"github.com/rs/cors"

	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/server/api"
	errors2 "github.com/hostpulse/hostpulse/server/api/errors"
	"github.com/hostpulse/hostpulse/server/api/middleware"
	hpshare "github.com/hostpulse/hostpulse/share"
	"github.com/hostpulse/hostpulse/share/models"
)

const (
	ErrCodeSpeedtestRunning = "ERR_CODE_SPEEDTEST_RUNNING"

	specsCacheKey = "device-report"
)

func (al *APIListener) initRouter() {
	r := mux.NewRouter()
	sub := r.PathPrefix("/api/v1").Subrouter()
	sub.HandleFunc("/status", al.handleGetStatus).Methods(http.MethodGet)
	sub.HandleFunc("/device-specs", al.handleGetDeviceSpecs).Methods(http.MethodGet)
	sub.HandleFunc("/network-metrics", al.handleGetNetworkMetrics).Methods(http.MethodGet)
	sub.HandleFunc("/run-speedtest", al.handlePostRunSpeedtest).Methods(http.MethodPost)

	// dashboards deployed before the version prefix still call /api directly
	legacy := r.PathPrefix("/api").Subrouter()
	legacy.HandleFunc("/device-specs", al.handleGetDeviceSpecs).Methods(http.MethodGet)
	legacy.HandleFunc("/network-metrics", al.handleGetNetworkMetrics).Methods(http.MethodGet)
	legacy.HandleFunc("/run-speedtest", al.handlePostRunSpeedtest).Methods(http.MethodPost)

	// add max bytes middleware
	maxBytes := func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		route.HandlerFunc(middleware.MaxBytes(route.GetHandler(), al.config.Server.MaxRequestBytes))
		return nil
	}
	_ = sub.Walk(maxBytes)
	_ = legacy.Walk(maxBytes)

	c := cors.New(cors.Options{
		AllowedOrigins:   al.config.API.CORSOrigins,
		AllowCredentials: true,
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
	})
	r.Use(c.Handler)

	r.Use(func(next http.Handler) http.Handler { return requestlog.WrapWith(next, *al.requestLogOptions) })
	if al.accessLogFile != nil {
		r.Use(func(next http.Handler) http.Handler { return handlers.CombinedLoggingHandler(al.accessLogFile, next) })
	}
	r.Use(handlers.CompressHandler)
	r.Use(handlers.RecoveryHandler(
		handlers.PrintRecoveryStack(true),
		handlers.RecoveryLogger(middleware.NewRecoveryLogger(al.Logger)),
	))

	al.router = r
}

func (al *APIListener) handleGetStatus(w http.ResponseWriter, req *http.Request) {
	al.writeJSONResponse(w, http.StatusOK, api.NewSuccessPayload(map[string]interface{}{
		"version":   hpshare.BuildVersion,
		"device_id": al.store.DeviceID(),
	}))
}

// handleGetDeviceSpecs serves the hardware inventory with the live link and
// power state. Collecting the inventory shells out to vendor tools, so one
// report is memoized for a short interval.
func (al *APIListener) handleGetDeviceSpecs(w http.ResponseWriter, req *http.Request) {
	if cached, found := al.specsCache.Get(specsCacheKey); found {
		al.writeJSONResponse(w, http.StatusOK, api.NewSuccessPayload(cached))
		return
	}

	report := al.monitor.DescribeDevice(req.Context())
	al.specsCache.SetDefault(specsCacheKey, report)

	al.writeJSONResponse(w, http.StatusOK, api.NewSuccessPayload(report))
}

// handleGetNetworkMetrics serves one freshly assembled snapshot. The
// assembler backfills neutral values for failing probes, so this endpoint
// always answers 200 with a complete body.
func (al *APIListener) handleGetNetworkMetrics(w http.ResponseWriter, req *http.Request) {
	snapshot := al.monitor.Assemble(req.Context(), al.config.Monitoring.SamplingWindow)
	al.writeJSONResponse(w, http.StatusOK, api.NewSuccessPayload(snapshot))
}

type speedtestResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	*models.BandwidthRecord
}

// handlePostRunSpeedtest runs the benchmark synchronously and answers with
// the persisted record, which carries the failure sentinels when the
// benchmark itself failed. An overlapping run leaves the trigger armed for
// the poll loop and answers 409.
func (al *APIListener) handlePostRunSpeedtest(w http.ResponseWriter, req *http.Request) {
	record, err := al.monitor.Trigger().RunDirect(req.Context())
	if err != nil {
		if errors.Is(err, bandwidth.ErrBenchmarkBusy) {
			al.jsonError(w, errors2.NewAPIError(http.StatusConflict, ErrCodeSpeedtestRunning, "a speed test is already running, request queued", err))
			return
		}
		al.jsonError(w, err)
		return
	}

	al.writeJSONResponse(w, http.StatusOK, api.NewSuccessPayload(speedtestResponse{
		Status:          "success",
		Message:         "Speed test completed.",
		BandwidthRecord: record,
	}))
}

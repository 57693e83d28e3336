// Package bandwidth runs full ISP bandwidth benchmarks. A benchmark
// saturates the uplink for its whole duration, so at most one run is allowed
// at a time; concurrent callers get ErrBenchmarkBusy instead of queueing.
package bandwidth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/showwin/speedtest-go/speedtest"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

var ErrBenchmarkBusy = errors.New("bandwidth benchmark already running")

const DefaultTimeout = 2 * time.Minute

// Result is one finished benchmark run. Speeds are as reported against the
// test server, unscaled.
type Result struct {
	DownloadMbps float64
	UploadMbps   float64
	PingMs       float64
	ISPName      string
	ServerName   string
}

// Record converts the run into its persisted form.
func (res *Result) Record(deviceID string, timestamp int64) *models.BandwidthRecord {
	return &models.BandwidthRecord{
		DeviceID:     deviceID,
		DownloadMbps: res.DownloadMbps,
		UploadMbps:   res.UploadMbps,
		PingMs:       res.PingMs,
		ISPName:      res.ISPName,
		ServerName:   res.ServerName,
		Timestamp:    timestamp,
	}
}

// Runner executes a full bandwidth benchmark.
type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

type SpeedtestRunner struct {
	logger  *logger.Logger
	timeout time.Duration

	mu   sync.Mutex
	busy bool
}

func NewSpeedtestRunner(l *logger.Logger, timeout time.Duration) *SpeedtestRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SpeedtestRunner{
		logger:  l.Fork("speedtest"),
		timeout: timeout,
	}
}

// Run executes ping, download and upload against the closest test server.
func (r *SpeedtestRunner) Run(ctx context.Context) (*Result, error) {
	if !r.tryAcquire() {
		return nil, ErrBenchmarkBusy
	}
	defer r.release()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	client := speedtest.New()

	ispName := models.ISPNameUnknown
	user, err := client.FetchUserInfoContext(ctx)
	if err == nil && user.Isp != "" {
		ispName = user.Isp
	} else {
		r.logger.Debugf("Cannot fetch user info: %v", err)
	}

	servers, err := client.FetchServersContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch speedtest servers")
	}
	targets, err := servers.FindServer([]int{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to pick a speedtest server")
	}
	if len(targets) == 0 {
		return nil, errors.New("no speedtest server available")
	}
	server := targets[0]
	r.logger.Debugf("benchmarking against %s (%s)", server.Name, server.Host)

	if err := server.PingTestContext(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "ping test failed")
	}
	if err := server.DownloadTestContext(ctx); err != nil {
		return nil, errors.Wrap(err, "download test failed")
	}
	if err := server.UploadTestContext(ctx); err != nil {
		return nil, errors.Wrap(err, "upload test failed")
	}

	result := &Result{
		DownloadMbps: helper.RoundToTwoDecimalPlaces(server.DLSpeed.Mbps()),
		UploadMbps:   helper.RoundToTwoDecimalPlaces(server.ULSpeed.Mbps()),
		PingMs:       helper.RoundToTwoDecimalPlaces(float64(server.Latency) / float64(time.Millisecond)),
		ISPName:      ispName,
		ServerName:   serverLabel(server),
	}
	r.logger.Infof("benchmark done: down %.2f Mbps, up %.2f Mbps, ping %.2f ms", result.DownloadMbps, result.UploadMbps, result.PingMs)
	return result, nil
}

func (r *SpeedtestRunner) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.busy {
		return false
	}
	r.busy = true
	return true
}

func (r *SpeedtestRunner) release() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

func serverLabel(server *speedtest.Server) string {
	if server.Sponsor == "" {
		return server.Name
	}
	return fmt.Sprintf("%s (%s)", server.Sponsor, server.Name)
}

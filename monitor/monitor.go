// Package monitor is the collection engine of the daemon: it derives
// throughput rates from OS counters, reconciles them against bandwidth
// benchmarks, serves on-demand metrics snapshots and executes the stored
// benchmark trigger.
package monitor

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/jpillora/backoff"
	"golang.org/x/sync/errgroup"

	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/monitor/probes"
	"github.com/hostpulse/hostpulse/server/store"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

// DefaultSamplingWindow is the CPU measurement window used when the caller
// does not request one.
const DefaultSamplingWindow = time.Second

// maxRefreshBackoff caps the retry delay of the refresh loop after repeated
// failures.
const maxRefreshBackoff = 5 * time.Minute

// Config controls the collection engine.
type Config struct {
	// Interval is the cadence of the background refresh loop, which keeps
	// the counter baseline warm and polls the benchmark trigger.
	Interval time.Duration
	// PingTarget receives the packet-loss/jitter echo burst.
	PingTarget string
	// GeoAPIURL overrides the public-IP/geo lookup endpoint.
	GeoAPIURL string
	// GeoCacheTTL bounds the age of one geo lookup.
	GeoCacheTTL time.Duration
}

type Monitor struct {
	stopFn func()

	logger     *logger.Logger
	config     Config
	systemInfo probes.SysInfo

	tracker    *Tracker
	reconciler *Reconciler
	trigger    *TriggerRunner

	gpu       *probes.GPUProbe
	wifi      *probes.WifiProbe
	battery   *probes.BatteryProbe
	ping      *probes.PingProbe
	inventory *probes.InventoryProbe
}

func NewMonitor(l *logger.Logger, config Config, systemInfo probes.SysInfo, svc store.Service, runner bandwidth.Runner) *Monitor {
	mLogger := l.Fork("monitor")
	reconciler := NewReconciler(mLogger, svc, runner, config.GeoAPIURL, config.GeoCacheTTL)
	gpu := probes.NewGPUProbe(mLogger)
	return &Monitor{
		logger:     mLogger,
		config:     config,
		systemInfo: systemInfo,
		tracker:    NewTracker(),
		reconciler: reconciler,
		trigger:    NewTriggerRunner(mLogger, svc, runner, reconciler),
		gpu:        gpu,
		wifi:       probes.NewWifiProbe(mLogger),
		battery:    probes.NewBatteryProbe(mLogger),
		ping:       probes.NewPingProbe(mLogger, config.PingTarget),
		inventory:  probes.NewInventoryProbe(mLogger, systemInfo, gpu),
	}
}

// Trigger exposes the benchmark trigger for the API's direct path.
func (m *Monitor) Trigger() *TriggerRunner {
	return m.trigger
}

// Inventory exposes the hardware inventory probe for the one-time specs
// registration at startup.
func (m *Monitor) Inventory() *probes.InventoryProbe {
	return m.inventory
}

func (m *Monitor) Start(ctx context.Context) {
	ctx, m.stopFn = context.WithCancel(ctx)

	go m.refreshLoop(ctx)
	m.logger.Debugf("Monitor started")
}

func (m *Monitor) Stop() {
	if m.stopFn == nil {
		return
	}

	m.stopFn()
	m.logger.Debugf("Monitor stopped")
}

func (m *Monitor) refreshLoop(ctx context.Context) {
	b := &backoff.Backoff{
		Min:    m.config.Interval,
		Max:    maxRefreshBackoff,
		Factor: 2,
	}

	for {
		wait := m.config.Interval
		if err := m.refresh(ctx); err != nil {
			wait = b.Duration()
			m.logger.Errorf("Refresh round failed, next in %s: %v", wait, err)
		} else {
			b.Reset()
		}

		select {
		case <-ctx.Done():
			m.logger.Errorf("Monitoring ended by context.Done")
			return
		case <-time.After(wait):
		}
	}
}

// refresh advances the counter baseline and serves an armed trigger. Keeping
// the baseline warm bounds the measurement window of the next on-demand
// snapshot to at most one interval.
func (m *Monitor) refresh(ctx context.Context) error {
	var result *multierror.Error

	sample, err := probes.SampleCounters(ctx, m.systemInfo)
	if err != nil {
		result = multierror.Append(result, err)
	} else {
		m.tracker.Derive(sample)
	}

	if _, err := m.trigger.PollAndExecute(ctx); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

// Assemble builds one complete metrics snapshot. Probes run concurrently;
// each failing probe contributes its neutral default instead of aborting the
// round, so the snapshot always comes back fully populated. The CPU reading
// blocks for samplingWindow, which bounds the latency of the whole call.
func (m *Monitor) Assemble(ctx context.Context, samplingWindow time.Duration) *models.MetricsSnapshot {
	if samplingWindow <= 0 {
		samplingWindow = DefaultSamplingWindow
	}

	snapshot := &models.MetricsSnapshot{
		ISPName:     models.ISPNameNA,
		Region:      "N/A",
		Country:     "N/A",
		PublicIP:    "N/A",
		GeoCity:     "N/A",
		GeoCountry:  "N/A",
		WifiSSID:    "N/A",
		CollectedAt: time.Now().UTC(),
	}

	var g errgroup.Group

	g.Go(func() error {
		cpuPercent, err := m.systemInfo.CPUPercent(ctx, samplingWindow)
		if err == nil {
			snapshot.CPULoadPercent = cpuPercent
		} else {
			m.logger.Debugf("Cannot measure cpu_load_percent: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		memStats, err := m.systemInfo.MemoryStats(ctx)
		if err == nil {
			snapshot.RAMUsedPercent = memStats.UsedPercent
		} else {
			m.logger.Debugf("Cannot measure ram_used_percent: %v", err)
		}

		diskUsage, err := m.systemInfo.RootDiskUsage(ctx)
		if err == nil {
			snapshot.DiskUsagePercent = diskUsage.UsedPercent
		} else {
			m.logger.Debugf("Cannot measure disk_usage_percent: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		summary := m.reconciler.Summary(ctx)
		snapshot.SpeedtestDownloadMbps = summary.DownloadMbps
		snapshot.SpeedtestUploadMbps = summary.UploadMbps
		snapshot.ISPName = summary.ISPName
		snapshot.Region = summary.Region
		snapshot.Country = summary.Country

		sample, err := probes.SampleCounters(ctx, m.systemInfo)
		if err != nil {
			m.logger.Debugf("Cannot sample io counters: %v", err)
			return nil
		}
		rates := m.reconciler.Reconcile(ctx, m.tracker.Derive(sample))
		snapshot.ActualDownloadMbps = rates.DownloadMbps
		snapshot.ActualUploadMbps = rates.UploadMbps
		snapshot.DiskReadMBps = rates.DiskReadMBps
		snapshot.DiskWriteMBps = rates.DiskWriteMBps
		return nil
	})

	g.Go(func() error {
		if geo := m.reconciler.Geo(ctx); geo != nil {
			snapshot.PublicIP = geo.IP
			snapshot.GeoCity = geo.City
			snapshot.GeoCountry = geo.Country
		}
		return nil
	})

	g.Go(func() error {
		batteryStats := m.battery.Stats()
		snapshot.BatteryPercent = batteryStats.Percent
		snapshot.PowerPlugged = batteryStats.Plugged
		return nil
	})

	g.Go(func() error {
		pingStats, err := m.ping.Stats(ctx)
		if err == nil {
			snapshot.PacketLossPercent = pingStats.PacketLossPercent
			snapshot.NetworkJitterMs = pingStats.JitterMs
		} else {
			m.logger.Debugf("Cannot measure packet loss and jitter: %v", err)
		}
		return nil
	})

	g.Go(func() error {
		wifiInfo := m.wifi.Info()
		snapshot.WifiSSID = wifiInfo.SSID
		snapshot.WifiSignalPercent = wifiInfo.SignalPercent
		snapshot.WifiLinkSpeedMbps = wifiInfo.LinkSpeedMbps
		return nil
	})

	_ = g.Wait()

	// The GPU estimate substitutes CPU load when no vendor tool answers,
	// so it has to run after the CPU reading.
	gpuStats := m.gpu.Stats(snapshot.CPULoadPercent)
	snapshot.GPUUtilizationPercent = gpuStats.UtilizationPercent
	snapshot.GPUMemoryUsedPercent = gpuStats.MemoryUsedPercent

	return snapshot
}

// DescribeDevice collects a fresh hardware inventory and enriches it with the
// semi-static link and power state the specs view shows next to it.
func (m *Monitor) DescribeDevice(ctx context.Context) *models.DeviceReport {
	report := &models.DeviceReport{DeviceSpecs: m.inventory.Collect(ctx)}

	wifiInfo := m.wifi.Info()
	report.WifiSSID = wifiInfo.SSID
	report.WifiSignalPercent = wifiInfo.SignalPercent
	report.WifiLinkSpeedMbps = wifiInfo.LinkSpeedMbps

	report.GPUMemoryUsedPercent = m.gpu.Stats(0).MemoryUsedPercent

	batteryStats := m.battery.Stats()
	report.BatteryPercent = batteryStats.Percent
	report.PowerPlugged = batteryStats.Plugged

	return report
}

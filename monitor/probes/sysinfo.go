// Package probes collects the raw host readings the snapshot assembler works
// from: gopsutil counters and gauges, vendor tools (nvidia-smi, netsh, iw),
// the battery state and the public-IP geo lookup. Every probe degrades to a
// neutral value instead of failing the collection round.
package probes

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gopsutilnet "github.com/shirou/gopsutil/v3/net"
)

type CPUInfo struct {
	CPUs       []cpu.InfoStat
	NumCores   int
	NumThreads int
}

type SysInfo interface {
	Hostname() (string, error)
	HostInfo(ctx context.Context) (*host.InfoStat, error)
	CPUInfo(ctx context.Context) (CPUInfo, error)
	CPUPercent(ctx context.Context, window time.Duration) (float64, error)
	MemoryStats(ctx context.Context) (*mem.VirtualMemoryStat, error)
	RootDiskUsage(ctx context.Context) (*disk.UsageStat, error)
	NetIOCounters(ctx context.Context) (*gopsutilnet.IOCountersStat, error)
	DiskIOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error)
	Interfaces(ctx context.Context) ([]gopsutilnet.InterfaceStat, error)
	SystemTime() time.Time
}

type realSystemInfo struct{}

func NewSystemInfo() SysInfo {
	return &realSystemInfo{}
}

func (s *realSystemInfo) Hostname() (string, error) {
	return os.Hostname()
}

func (s *realSystemInfo) HostInfo(ctx context.Context) (*host.InfoStat, error) {
	return host.InfoWithContext(ctx)
}

func (s *realSystemInfo) CPUInfo(ctx context.Context) (CPUInfo, error) {
	cpuInfo := CPUInfo{
		CPUs: []cpu.InfoStat{},
	}
	errs := make([]string, 0, 3)

	cpuInfos, err := cpu.InfoWithContext(ctx)
	if err == nil {
		cpuInfo.CPUs = cpuInfos
	} else {
		errs = append(errs, err.Error())
	}

	physical, err := cpu.CountsWithContext(ctx, false)
	if err == nil {
		cpuInfo.NumCores = physical
	} else {
		errs = append(errs, err.Error())
	}

	logical, err := cpu.CountsWithContext(ctx, true)
	if err == nil {
		cpuInfo.NumThreads = logical
	} else {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return cpuInfo, errors.New(strings.Join(errs, ", "))
	}

	return cpuInfo, nil
}

// CPUPercent blocks for the given window and returns overall utilization
// measured across it. A zero window falls back to the delta since the
// previous call.
func (s *realSystemInfo) CPUPercent(ctx context.Context, window time.Duration) (float64, error) {
	percentCPU := 0.0
	percents, err := cpu.PercentWithContext(ctx, window, false)
	if err != nil {
		return percentCPU, err
	}

	if len(percents) == 1 {
		percentCPU = percents[0]
	}
	return percentCPU, err
}

func (s *realSystemInfo) MemoryStats(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return mem.VirtualMemoryWithContext(ctx)
}

func (s *realSystemInfo) RootDiskUsage(ctx context.Context) (*disk.UsageStat, error) {
	return disk.UsageWithContext(ctx, rootMountpoint)
}

// NetIOCounters returns the machine-wide transmit/receive counters summed
// over all interfaces.
func (s *realSystemInfo) NetIOCounters(ctx context.Context) (*gopsutilnet.IOCountersStat, error) {
	counters, err := gopsutilnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(counters) == 0 {
		return nil, errors.New("no network counters available")
	}
	return &counters[0], nil
}

func (s *realSystemInfo) DiskIOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error) {
	return disk.IOCountersWithContext(ctx)
}

func (s *realSystemInfo) Interfaces(ctx context.Context) ([]gopsutilnet.InterfaceStat, error) {
	return gopsutilnet.InterfacesWithContext(ctx)
}

func (s *realSystemInfo) SystemTime() time.Time {
	return time.Now()
}

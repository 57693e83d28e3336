package probes

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gopsutilnet "github.com/shirou/gopsutil/v3/net"
)

type MockSystemInfo struct {
	ReturnHostname            string
	ReturnHostnameError       error
	ReturnHostInfo            *host.InfoStat
	ReturnHostInfoError       error
	ReturnCPUInfo             CPUInfo
	ReturnCPUInfoError        error
	ReturnCPUPercent          float64
	ReturnCPUPercentError     error
	ReturnMemoryStat          *mem.VirtualMemoryStat
	ReturnMemoryError         error
	ReturnRootDiskUsage       *disk.UsageStat
	ReturnRootDiskUsageError  error
	ReturnNetIOCounters       *gopsutilnet.IOCountersStat
	ReturnNetIOCountersError  error
	ReturnDiskIOCounters      map[string]disk.IOCountersStat
	ReturnDiskIOCountersError error
	ReturnInterfaces          []gopsutilnet.InterfaceStat
	ReturnInterfacesError     error
	ReturnSystemTime          time.Time
}

func (s *MockSystemInfo) Hostname() (string, error) {
	return s.ReturnHostname, s.ReturnHostnameError
}

func (s *MockSystemInfo) HostInfo(ctx context.Context) (*host.InfoStat, error) {
	return s.ReturnHostInfo, s.ReturnHostInfoError
}

func (s *MockSystemInfo) CPUInfo(ctx context.Context) (CPUInfo, error) {
	return s.ReturnCPUInfo, s.ReturnCPUInfoError
}

func (s *MockSystemInfo) CPUPercent(ctx context.Context, window time.Duration) (float64, error) {
	return s.ReturnCPUPercent, s.ReturnCPUPercentError
}

func (s *MockSystemInfo) MemoryStats(ctx context.Context) (*mem.VirtualMemoryStat, error) {
	return s.ReturnMemoryStat, s.ReturnMemoryError
}

func (s *MockSystemInfo) RootDiskUsage(ctx context.Context) (*disk.UsageStat, error) {
	return s.ReturnRootDiskUsage, s.ReturnRootDiskUsageError
}

func (s *MockSystemInfo) NetIOCounters(ctx context.Context) (*gopsutilnet.IOCountersStat, error) {
	return s.ReturnNetIOCounters, s.ReturnNetIOCountersError
}

func (s *MockSystemInfo) DiskIOCounters(ctx context.Context) (map[string]disk.IOCountersStat, error) {
	return s.ReturnDiskIOCounters, s.ReturnDiskIOCountersError
}

func (s *MockSystemInfo) Interfaces(ctx context.Context) ([]gopsutilnet.InterfaceStat, error) {
	return s.ReturnInterfaces, s.ReturnInterfacesError
}

func (s *MockSystemInfo) SystemTime() time.Time {
	return s.ReturnSystemTime
}

package probes

import (
	"context"

	"github.com/hostpulse/hostpulse/share/models"
)

// SampleCounters reads the cumulative network and disk byte counters in one
// shot. Disk counters are summed over all block devices so the sample carries
// a single machine-wide figure per direction.
func SampleCounters(ctx context.Context, systemInfo SysInfo) (*models.CounterSample, error) {
	netCounters, err := systemInfo.NetIOCounters(ctx)
	if err != nil {
		return nil, err
	}

	diskCounters, err := systemInfo.DiskIOCounters(ctx)
	if err != nil {
		return nil, err
	}

	sample := &models.CounterSample{
		BytesSent: netCounters.BytesSent,
		BytesRecv: netCounters.BytesRecv,
		Timestamp: systemInfo.SystemTime(),
	}
	for _, counters := range diskCounters {
		sample.DiskReadBytes += counters.ReadBytes
		sample.DiskWriteBytes += counters.WriteBytes
	}
	return sample, nil
}

package probes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	gopsutilnet "github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleCounters(t *testing.T) {
	now := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)
	systemInfo := &MockSystemInfo{
		ReturnNetIOCounters: &gopsutilnet.IOCountersStat{
			Name:      "all",
			BytesSent: 1_000_000,
			BytesRecv: 5_000_000,
		},
		ReturnDiskIOCounters: map[string]disk.IOCountersStat{
			"sda": {ReadBytes: 300, WriteBytes: 700},
			"sdb": {ReadBytes: 200, WriteBytes: 100},
		},
		ReturnSystemTime: now,
	}

	sample, err := SampleCounters(context.Background(), systemInfo)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_000, sample.BytesSent)
	assert.EqualValues(t, 5_000_000, sample.BytesRecv)
	assert.EqualValues(t, 500, sample.DiskReadBytes)
	assert.EqualValues(t, 800, sample.DiskWriteBytes)
	assert.Equal(t, now, sample.Timestamp)
}

func TestSampleCountersNetFailure(t *testing.T) {
	wantErr := errors.New("counters unavailable")
	systemInfo := &MockSystemInfo{ReturnNetIOCountersError: wantErr}

	_, err := SampleCounters(context.Background(), systemInfo)
	assert.ErrorIs(t, err, wantErr)
}

func TestSampleCountersDiskFailure(t *testing.T) {
	wantErr := errors.New("disk counters unavailable")
	systemInfo := &MockSystemInfo{
		ReturnNetIOCounters:       &gopsutilnet.IOCountersStat{},
		ReturnDiskIOCountersError: wantErr,
	}

	_, err := SampleCounters(context.Background(), systemInfo)
	assert.ErrorIs(t, err, wantErr)
}

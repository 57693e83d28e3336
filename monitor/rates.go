package monitor

import (
	"sync"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/models"
)

// speedScalingFactor adjusts counter-derived network rates. Disk rates are
// deliberately left unscaled.
const speedScalingFactor = 0.5

const bytesPerMB = 1 << 20

// Tracker derives instantaneous rates from consecutive counter samples. It
// owns the previous sample; the mutex keeps concurrent assemblies from
// interleaving baseline reads and writes.
type Tracker struct {
	mu       sync.Mutex
	previous *models.CounterSample
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Derive computes the rates between the stored baseline and sample. The
// baseline is always replaced with sample, even when no rates can be
// computed, so a zero-elapsed call costs the next window its reference
// point.
func (t *Tracker) Derive(sample *models.CounterSample) models.RateEstimate {
	t.mu.Lock()
	defer t.mu.Unlock()

	previous := t.previous
	t.previous = sample

	if previous == nil {
		return models.RateEstimate{}
	}

	elapsed := sample.Timestamp.Sub(previous.Timestamp).Seconds()
	if elapsed <= 0 {
		return models.RateEstimate{}
	}

	downloadMbps := float64(counterDelta(sample.BytesRecv, previous.BytesRecv)) * 8 / (elapsed * bytesPerMB) * speedScalingFactor
	uploadMbps := float64(counterDelta(sample.BytesSent, previous.BytesSent)) * 8 / (elapsed * bytesPerMB) * speedScalingFactor
	diskReadMBps := float64(counterDelta(sample.DiskReadBytes, previous.DiskReadBytes)) / (elapsed * bytesPerMB)
	diskWriteMBps := float64(counterDelta(sample.DiskWriteBytes, previous.DiskWriteBytes)) / (elapsed * bytesPerMB)

	return models.RateEstimate{
		DownloadMbps:  helper.RoundToTwoDecimalPlaces(downloadMbps),
		UploadMbps:    helper.RoundToTwoDecimalPlaces(uploadMbps),
		DiskReadMBps:  helper.RoundToTwoDecimalPlaces(diskReadMBps),
		DiskWriteMBps: helper.RoundToTwoDecimalPlaces(diskWriteMBps),
	}
}

// counterDelta treats a counter that moved backwards (reset or wrap) as no
// traffic for the window.
func counterDelta(current, previous uint64) uint64 {
	if current < previous {
		return 0
	}
	return current - previous
}

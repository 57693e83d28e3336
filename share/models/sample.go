package models

import "time"

// CounterSample is one reading of the cumulative OS I/O counters.
// Immutable once captured; the previous sample is owned by the rate tracker.
type CounterSample struct {
	BytesSent      uint64    `json:"bytes_sent"`
	BytesRecv      uint64    `json:"bytes_recv"`
	DiskReadBytes  uint64    `json:"disk_read_bytes"`
	DiskWriteBytes uint64    `json:"disk_write_bytes"`
	Timestamp      time.Time `json:"timestamp"`
}

// RateEstimate holds instantaneous throughput derived from two counter
// samples. Values are rounded to two decimals and never persisted.
type RateEstimate struct {
	DownloadMbps  float64 `json:"download_mbps"`
	UploadMbps    float64 `json:"upload_mbps"`
	DiskReadMBps  float64 `json:"disk_read_mb_s"`
	DiskWriteMBps float64 `json:"disk_write_mb_s"`
}

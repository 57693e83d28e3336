package models

// ISP names a benchmark can report that mark its record unusable as a
// reconciliation ceiling.
const (
	ISPNameNA      = "N/A"
	ISPNameFailure = "FAILURE"
	ISPNameUnknown = "Unknown ISP"
)

// FailedBenchmarkPingMs is the sentinel latency stored when a benchmark
// could not run.
const FailedBenchmarkPingMs = 9999.0

// BandwidthRecord is one completed (or failed) bandwidth benchmark,
// appended to the network_tests collection.
type BandwidthRecord struct {
	ID           string  `json:"id" db:"id"`
	DeviceID     string  `json:"device_id" db:"device_id"`
	DownloadMbps float64 `json:"download_mbps" db:"download_mbps"`
	UploadMbps   float64 `json:"upload_mbps" db:"upload_mbps"`
	PingMs       float64 `json:"ping_latency_ms" db:"ping_latency_ms"`
	ISPName      string  `json:"isp_name" db:"isp_name"`
	ServerName   string  `json:"test_server" db:"test_server"`
	Timestamp    int64   `json:"timestamp" db:"timestamp"`
}

// Valid reports whether the record can serve as a reconciliation ceiling.
// Failed benchmarks are stored with sentinel ISP names so that the next
// lookup treats them as absent and tries again.
func (r *BandwidthRecord) Valid() bool {
	if r == nil {
		return false
	}
	switch r.ISPName {
	case "", ISPNameNA, ISPNameFailure, ISPNameUnknown:
		return false
	}
	return true
}

// NewFailedBandwidthRecord builds the sentinel record persisted when a
// benchmark fails: zero speeds, a fixed large ping and FAILURE markers.
func NewFailedBandwidthRecord(deviceID string, ts int64) *BandwidthRecord {
	return &BandwidthRecord{
		DeviceID:     deviceID,
		DownloadMbps: 0.0,
		UploadMbps:   0.0,
		PingMs:       FailedBenchmarkPingMs,
		ISPName:      ISPNameFailure,
		ServerName:   ISPNameFailure,
		Timestamp:    ts,
	}
}

// SpeedSummary is the reconciliation view of the most recent benchmark:
// ISP-reported speeds (already scaled at capture) plus provider/geo names.
type SpeedSummary struct {
	DownloadMbps float64 `json:"download_speed_mbps"`
	UploadMbps   float64 `json:"upload_speed_mbps"`
	ISPName      string  `json:"isp_name"`
	Region       string  `json:"region"`
	Country      string  `json:"country"`
}

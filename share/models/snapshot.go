package models

import "time"

// MetricsSnapshot is one full metrics record, assembled fresh per call.
// Every field is populated even when individual probes fail; failed probes
// contribute their neutral defaults. JSON keys are kept stable because the
// snapshot is the /network-metrics response body.
type MetricsSnapshot struct {
	CPULoadPercent   float64 `json:"cpu_load_percent"`
	RAMUsedPercent   float64 `json:"ram_used_percent"`
	DiskUsagePercent float64 `json:"disk_usage_percent"`

	GPUUtilizationPercent float64  `json:"gpu_utilization_percent"`
	GPUMemoryUsedPercent  *float64 `json:"gpu_memory_used_percent"`

	SpeedtestDownloadMbps float64 `json:"speedtest_download_mbps"`
	SpeedtestUploadMbps   float64 `json:"speedtest_upload_mbps"`
	ISPName               string  `json:"isp_name"`
	Region                string  `json:"region"`
	Country               string  `json:"country"`

	ActualDownloadMbps float64 `json:"actual_download_mbps"`
	ActualUploadMbps   float64 `json:"actual_upload_mbps"`
	DiskReadMBps       float64 `json:"disk_read_mb_s"`
	DiskWriteMBps      float64 `json:"disk_write_mb_s"`

	BatteryPercent *float64 `json:"battery_percent"`
	PowerPlugged   *bool    `json:"power_plugged"`

	PacketLossPercent float64 `json:"packet_loss_percent"`
	NetworkJitterMs   float64 `json:"network_jitter_ms"`

	PublicIP   string `json:"public_ip"`
	GeoCity    string `json:"geo_city"`
	GeoCountry string `json:"geo_country"`

	WifiSSID          string `json:"wifi_ssid"`
	WifiSignalPercent int    `json:"wifi_signal_percent"`
	WifiLinkSpeedMbps int    `json:"wifi_link_speed_mbps"`

	CollectedAt time.Time `json:"collected_at"`
}

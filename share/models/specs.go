package models

// DeviceSpecs is the static hardware/OS inventory of the monitored host.
// It is written to the devices collection once, when absent, and never
// mutated by this engine afterwards.
type DeviceSpecs struct {
	DeviceModel          string  `json:"device_model"`
	ProcessorModel       string  `json:"processor_model"`
	CPUCores             int     `json:"cpu_cores"`
	CPUThreads           int     `json:"cpu_threads"`
	GPUModel             string  `json:"gpu_model"`
	GPUTotalMemoryGB     float64 `json:"gpu_total_memory_gb"`
	RAMTotalGB           float64 `json:"ram_total_gb"`
	NetworkInterfaceName string  `json:"network_interface_name"`
	PrivateIPAddress     string  `json:"private_ip_address"`
	MACAddress           string  `json:"mac_address"`
	CPUTDPWatts          int     `json:"cpu_tdp_watts"`
	OSName               string  `json:"os_name"`
	OSVersion            string  `json:"os_version"`
	BIOSVendor           string  `json:"bios_vendor"`
	BIOSVersion          string  `json:"bios_version"`
}

// DeviceReport is the device-specs response body: the hardware inventory
// plus the semi-static wireless, GPU memory and battery state. The device ID
// stays internal and is deliberately absent.
type DeviceReport struct {
	*DeviceSpecs

	WifiSSID             string   `json:"wifi_ssid"`
	WifiSignalPercent    int      `json:"wifi_signal_percent"`
	WifiLinkSpeedMbps    int      `json:"wifi_link_speed_mbps"`
	GPUMemoryUsedPercent *float64 `json:"gpu_memory_used_percent"`
	BatteryPercent       *float64 `json:"battery_percent"`
	PowerPlugged         *bool    `json:"power_plugged"`
}

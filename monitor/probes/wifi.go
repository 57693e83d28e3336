package probes

import (
	"strconv"
	"strings"
	"time"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/logger"
)

const wifiQueryTimeout = 5 * time.Second

// WifiInfo carries the wireless link state. SSID "N/A" with zero figures
// means there is no wireless link or no way to inspect it on this platform.
type WifiInfo struct {
	SSID          string
	SignalPercent int
	LinkSpeedMbps int
}

func defaultWifiInfo() *WifiInfo {
	return &WifiInfo{SSID: "N/A"}
}

type WifiProbe struct {
	logger     *logger.Logger
	runCommand commandRunner
}

func NewWifiProbe(l *logger.Logger) *WifiProbe {
	return &WifiProbe{logger: l.Fork("wifi"), runCommand: helper.RunCommandWithTimeout}
}

func (p *WifiProbe) Info() *WifiInfo {
	info, err := p.collectWifiInfo()
	if err != nil {
		p.logger.Debugf("Cannot read wifi link state: %v", err)
		return defaultWifiInfo()
	}
	return info
}

// parseNetshInterfaces scans `netsh wlan show interfaces` output. Lines are
// `key : value` pairs; the BSSID line would also match a substring check for
// SSID, hence the exact key comparison.
func parseNetshInterfaces(out string) *WifiInfo {
	info := defaultWifiInfo()
	for _, line := range strings.Split(out, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch {
		case key == "SSID":
			info.SSID = value
		case key == "Signal":
			if percent, err := strconv.Atoi(strings.TrimSuffix(value, "%")); err == nil {
				info.SignalPercent = percent
			}
		case strings.HasPrefix(key, "Receive rate"), strings.HasPrefix(key, "Transmit rate"):
			if info.LinkSpeedMbps != 0 {
				continue
			}
			if rate, err := strconv.ParseFloat(value, 64); err == nil {
				info.LinkSpeedMbps = int(rate)
			}
		}
	}
	return info
}

// parseIwDevInterface returns the first wireless interface name from
// `iw dev` output.
func parseIwDevInterface(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if name := strings.TrimPrefix(line, "Interface "); name != line {
			return name
		}
	}
	return ""
}

// parseIwLink scans `iw dev <if> link` output. A disconnected interface
// prints "Not connected." and yields the defaults.
func parseIwLink(out string) *WifiInfo {
	info := defaultWifiInfo()
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "SSID:"):
			info.SSID = strings.TrimSpace(strings.TrimPrefix(line, "SSID:"))
		case strings.HasPrefix(line, "signal:"):
			value := strings.TrimSpace(strings.TrimPrefix(line, "signal:"))
			value = strings.TrimSuffix(value, " dBm")
			if dbm, err := strconv.ParseFloat(value, 64); err == nil {
				info.SignalPercent = signalPercentFromDBm(dbm)
			}
		case strings.HasPrefix(line, "tx bitrate:"):
			fields := strings.Fields(strings.TrimPrefix(line, "tx bitrate:"))
			if len(fields) == 0 {
				continue
			}
			if rate, err := strconv.ParseFloat(fields[0], 64); err == nil {
				info.LinkSpeedMbps = int(rate)
			}
		}
	}
	return info
}

// signalPercentFromDBm maps the -100..-50 dBm range onto 0..100.
func signalPercentFromDBm(dbm float64) int {
	percent := int(2 * (dbm + 100))
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

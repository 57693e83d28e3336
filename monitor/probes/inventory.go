package probes

import (
	"context"
	"net"
	"os"
	"runtime"
	"strings"
	"time"

	gopsutilnet "github.com/shirou/gopsutil/v3/net"
	"github.com/sirupsen/logrus"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

const inventoryQueryTimeout = 10 * time.Second

// defaultCPUTDPWatts is stored in the specs document. TDP is not exposed by
// any OS interface, so a desktop-class default stands in.
const defaultCPUTDPWatts = 65

const unknownDeviceModel = "Unknown Model"

type InventoryProbe struct {
	logger     *logger.Logger
	systemInfo SysInfo
	gpu        *GPUProbe
	runCommand commandRunner
	readFile   func(name string) ([]byte, error)
}

func NewInventoryProbe(l *logger.Logger, systemInfo SysInfo, gpu *GPUProbe) *InventoryProbe {
	return &InventoryProbe{
		logger:     l.Fork("inventory"),
		systemInfo: systemInfo,
		gpu:        gpu,
		runCommand: helper.RunCommandWithTimeout,
		readFile:   os.ReadFile,
	}
}

// Collect gathers the static hardware/OS inventory. Individual probe
// failures leave their fields at neutral values; Collect itself never fails.
func (p *InventoryProbe) Collect(ctx context.Context) *models.DeviceSpecs {
	specs := &models.DeviceSpecs{
		DeviceModel: unknownDeviceModel,
		CPUTDPWatts: defaultCPUTDPWatts,
	}

	if model := p.deviceModel(); model != "" {
		specs.DeviceModel = model
	}

	cpuInfo, err := p.systemInfo.CPUInfo(ctx)
	if err != nil {
		p.logger.Debugf("Cannot read cpu info: %v", err)
	}
	if len(cpuInfo.CPUs) > 0 {
		specs.ProcessorModel = cpuInfo.CPUs[0].ModelName
	}
	specs.CPUCores = cpuInfo.NumCores
	specs.CPUThreads = cpuInfo.NumThreads

	specs.GPUModel, specs.GPUTotalMemoryGB = p.gpu.Model()

	memStats, err := p.systemInfo.MemoryStats(ctx)
	if err == nil {
		specs.RAMTotalGB = helper.RoundToTwoDecimalPlaces(float64(memStats.Total) / (1 << 30))
	} else {
		p.logger.Debugf("Cannot read memory stats: %v", err)
	}

	p.fillNetworkInterface(ctx, specs)

	hostInfo, err := p.systemInfo.HostInfo(ctx)
	if err == nil {
		specs.OSName = hostInfo.OS
		specs.OSVersion = strings.TrimSpace(hostInfo.Platform + " " + hostInfo.PlatformVersion)
	} else {
		p.logger.Debugf("Cannot read host info: %v", err)
	}

	specs.BIOSVendor, specs.BIOSVersion = p.biosInfo()

	return specs
}

// fillNetworkInterface records the first connected non-loopback interface
// carrying an IPv4 address, the one end users recognise as "the" NIC.
func (p *InventoryProbe) fillNetworkInterface(ctx context.Context, specs *models.DeviceSpecs) {
	interfaces, err := p.systemInfo.Interfaces(ctx)
	if err != nil {
		p.logger.Debugf("Cannot list network interfaces: %v", err)
		return
	}

	for _, iface := range interfaces {
		if !interfaceHasFlag(iface, "up") || interfaceHasFlag(iface, "loopback") {
			continue
		}
		ipv4 := firstIPv4(iface)
		if ipv4 == "" {
			continue
		}

		specs.NetworkInterfaceName = iface.Name
		specs.PrivateIPAddress = ipv4
		specs.MACAddress = iface.HardwareAddr
		return
	}
}

func interfaceHasFlag(iface gopsutilnet.InterfaceStat, flag string) bool {
	for _, f := range iface.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

func firstIPv4(iface gopsutilnet.InterfaceStat) string {
	for _, addr := range iface.Addrs {
		ipStr := addr.Addr
		if idx := strings.IndexByte(ipStr, '/'); idx >= 0 {
			ipStr = ipStr[:idx]
		}
		ip := net.ParseIP(ipStr)
		if ip == nil {
			logrus.Warnf("Failed to parse IP address %s on %s", addr.Addr, iface.Name)
			continue
		}
		if ip.To4() == nil {
			continue
		}
		return ip.String()
	}
	return ""
}

func (p *InventoryProbe) deviceModel() string {
	switch runtime.GOOS {
	case "windows":
		out, err := p.runCommand(inventoryQueryTimeout, "wmic", "csproduct", "get", "name")
		if err != nil {
			p.logger.Debugf("Cannot query device model: %v", err)
			return ""
		}
		return parseWmicTable(out)
	case "darwin":
		out, err := p.runCommand(inventoryQueryTimeout, "sysctl", "-n", "hw.model")
		if err != nil {
			p.logger.Debugf("Cannot query device model: %v", err)
			return ""
		}
		return firstLine(out)
	default:
		out, err := p.readFile("/sys/class/dmi/id/product_name")
		if err != nil {
			p.logger.Debugf("Cannot read device model: %v", err)
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}

func (p *InventoryProbe) biosInfo() (vendor, version string) {
	if runtime.GOOS == "windows" {
		out, err := p.runCommand(inventoryQueryTimeout, "wmic", "bios", "get", "manufacturer,version", "/format:list")
		if err != nil {
			p.logger.Debugf("Cannot query bios info: %v", err)
			return "", ""
		}
		return parseWmicBiosList(out)
	}

	// Non-DMI platforms (darwin among them) simply miss these files.
	if vendorBytes, err := p.readFile("/sys/class/dmi/id/bios_vendor"); err == nil {
		vendor = strings.TrimSpace(string(vendorBytes))
	}
	if versionBytes, err := p.readFile("/sys/class/dmi/id/bios_version"); err == nil {
		version = strings.TrimSpace(string(versionBytes))
	}
	return vendor, version
}

// parseWmicTable returns the first value row of tabular wmic output, which
// starts with a header line.
func parseWmicTable(out []byte) string {
	lines := strings.Split(string(out), "\n")
	if len(lines) < 2 {
		return ""
	}
	for _, line := range lines[1:] {
		if value := strings.TrimSpace(line); value != "" {
			return value
		}
	}
	return ""
}

func parseWmicBiosList(out []byte) (vendor, version string) {
	for _, line := range strings.Split(string(out), "\n") {
		key, value, found := strings.Cut(strings.TrimSpace(line), "=")
		if !found {
			continue
		}
		switch key {
		case "Manufacturer":
			vendor = value
		case "Version":
			version = value
		}
	}
	return vendor, version
}

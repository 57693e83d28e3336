package probes

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/ptr"
)

const (
	gpuQueryTimeout = 5 * time.Second

	// estimatedGPULoadFactor approximates GPU load from CPU load on hosts
	// where the vendor tool is unavailable.
	estimatedGPULoadFactor = 0.6

	unknownGPUModel = "Integrated / Unknown"
)

type GPUStats struct {
	UtilizationPercent float64
	MemoryUsedPercent  *float64
}

type commandRunner func(timeout time.Duration, name string, arg ...string) ([]byte, error)

type GPUProbe struct {
	logger     *logger.Logger
	runCommand commandRunner
}

func NewGPUProbe(l *logger.Logger) *GPUProbe {
	return &GPUProbe{
		logger:     l.Fork("gpu"),
		runCommand: helper.RunCommandWithTimeout,
	}
}

// Stats returns the current GPU utilization and memory usage. Without a
// working nvidia-smi the utilization is estimated from the CPU load and the
// memory figure stays unknown.
func (p *GPUProbe) Stats(cpuLoadPercent float64) *GPUStats {
	out, err := p.runCommand(gpuQueryTimeout, "nvidia-smi",
		"--query-gpu=utilization.gpu,memory.used,memory.total",
		"--format=csv,noheader,nounits")
	if err == nil {
		stats, parseErr := parseGPUStats(out)
		if parseErr == nil {
			return stats
		}
		err = parseErr
	}

	p.logger.Debugf("Cannot query gpu stats: %v", err)
	return &GPUStats{
		UtilizationPercent: helper.RoundToTwoDecimalPlaces(cpuLoadPercent * estimatedGPULoadFactor),
	}
}

func parseGPUStats(out []byte) (*GPUStats, error) {
	line := firstLine(out)
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return nil, errors.Errorf("unexpected nvidia-smi output: %q", line)
	}

	values := make([]float64, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "unexpected nvidia-smi field %q", field)
		}
		values[i] = v
	}

	stats := &GPUStats{UtilizationPercent: values[0]}
	memoryUsedPercent := 0.0
	if values[2] > 0 {
		memoryUsedPercent = helper.RoundToTwoDecimalPlaces(values[1] / values[2] * 100)
	}
	stats.MemoryUsedPercent = ptr.Float64(memoryUsedPercent)
	return stats, nil
}

// Model returns the GPU name and total memory in GB for the specs inventory.
func (p *GPUProbe) Model() (name string, totalMemoryGB float64) {
	out, err := p.runCommand(gpuQueryTimeout, "nvidia-smi",
		"--query-gpu=name,memory.total",
		"--format=csv,noheader,nounits")
	if err != nil {
		p.logger.Debugf("Cannot query gpu model: %v", err)
		return unknownGPUModel, 0.0
	}

	line := firstLine(out)
	idx := strings.LastIndex(line, ",")
	if idx < 0 {
		p.logger.Debugf("Cannot parse gpu model from %q", line)
		return unknownGPUModel, 0.0
	}

	memoryMB, err := strconv.ParseFloat(strings.TrimSpace(line[idx+1:]), 64)
	if err != nil {
		p.logger.Debugf("Cannot parse gpu memory from %q: %v", line, err)
		return unknownGPUModel, 0.0
	}

	return strings.TrimSpace(line[:idx]), helper.RoundToTwoDecimalPlaces(memoryMB / 1024)
}

func firstLine(out []byte) string {
	line := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = strings.TrimSpace(line[:idx])
	}
	return line
}

package probes

import (
	"context"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/logger"
)

const (
	defaultPingTarget  = "8.8.8.8"
	defaultPingCount   = 5
	defaultPingTimeout = 10 * time.Second
)

type PingStats struct {
	PacketLossPercent float64
	JitterMs          float64
}

type PingProbe struct {
	logger  *logger.Logger
	target  string
	count   int
	timeout time.Duration
}

func NewPingProbe(l *logger.Logger, target string) *PingProbe {
	if target == "" {
		target = defaultPingTarget
	}
	return &PingProbe{
		logger:  l.Fork("ping"),
		target:  target,
		count:   defaultPingCount,
		timeout: defaultPingTimeout,
	}
}

// Stats sends a short unprivileged echo burst to the probe target. Jitter is
// the spread between the fastest and the slowest reply of the burst.
func (p *PingProbe) Stats(ctx context.Context) (*PingStats, error) {
	pinger, err := probing.NewPinger(p.target)
	if err != nil {
		return nil, err
	}
	pinger.Count = p.count
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(false)

	if err := pinger.RunWithContext(ctx); err != nil {
		return nil, err
	}

	stats := pinger.Statistics()
	result := &PingStats{}
	if stats.PacketsSent > 0 {
		result.PacketLossPercent = helper.RoundToTwoDecimalPlaces(stats.PacketLoss)
	}
	if stats.PacketsRecv > 1 {
		result.JitterMs = helper.RoundToTwoDecimalPlaces(float64(stats.MaxRtt-stats.MinRtt) / float64(time.Millisecond))
	}
	return result, nil
}

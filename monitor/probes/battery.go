package probes

import (
	"github.com/distatus/battery"

	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/ptr"
)

type BatteryStats struct {
	Percent *float64
	Plugged *bool
}

type BatteryProbe struct {
	logger *logger.Logger
	getAll func() ([]*battery.Battery, error)
}

func NewBatteryProbe(l *logger.Logger) *BatteryProbe {
	return &BatteryProbe{logger: l.Fork("battery"), getAll: battery.GetAll}
}

// Stats reports the charge level and charger presence of the first usable
// battery. Hosts without one report both fields as unknown, which keeps
// desktop machines distinguishable from an empty battery.
func (p *BatteryProbe) Stats() *BatteryStats {
	batteries, err := p.getAll()
	if err != nil {
		// GetAll reports partial failures; usable entries may still be present.
		p.logger.Debugf("Cannot read battery state: %v", err)
	}

	for _, b := range batteries {
		if b == nil || b.Full <= 0 {
			continue
		}
		plugged := b.State == battery.Charging || b.State == battery.Full
		return &BatteryStats{
			Percent: ptr.Float64(helper.RoundToTwoDecimalPlaces(b.Current / b.Full * 100)),
			Plugged: ptr.Bool(plugged),
		}
	}

	return &BatteryStats{}
}

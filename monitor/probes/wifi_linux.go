//go:build linux
// +build linux

package probes

import (
	"github.com/pkg/errors"
)

func (p *WifiProbe) collectWifiInfo() (*WifiInfo, error) {
	out, err := p.runCommand(wifiQueryTimeout, "iw", "dev")
	if err != nil {
		return nil, errors.Wrap(err, "iw dev query failed")
	}

	iface := parseIwDevInterface(string(out))
	if iface == "" {
		return defaultWifiInfo(), nil
	}

	out, err = p.runCommand(wifiQueryTimeout, "iw", "dev", iface, "link")
	if err != nil {
		return nil, errors.Wrapf(err, "iw link query for %s failed", iface)
	}
	return parseIwLink(string(out)), nil
}

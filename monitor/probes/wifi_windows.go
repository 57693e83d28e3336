//go:build windows
// +build windows

package probes

import (
	"github.com/pkg/errors"
)

func (p *WifiProbe) collectWifiInfo() (*WifiInfo, error) {
	out, err := p.runCommand(wifiQueryTimeout, "netsh", "wlan", "show", "interfaces")
	if err != nil {
		return nil, errors.Wrap(err, "netsh query failed")
	}
	return parseNetshInterfaces(string(out)), nil
}

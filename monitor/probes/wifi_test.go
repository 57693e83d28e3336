package probes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const netshOutput = `
There is 1 interface on the system:

    Name                   : Wi-Fi
    Description            : Intel(R) Wi-Fi 6 AX201 160MHz
    GUID                   : 8a3eab10-4f2d-4a44-9c3b-1f0d2b7e6c5a
    Physical address       : aa:bb:cc:dd:ee:ff
    State                  : connected
    SSID                   : HomeNet
    BSSID                  : 11:22:33:44:55:66
    Network type           : Infrastructure
    Radio type             : 802.11ax
    Authentication         : WPA2-Personal
    Cipher                 : CCMP
    Connection mode        : Auto Connect
    Channel                : 44
    Receive rate (Mbps)    : 866.7
    Transmit rate (Mbps)   : 866.7
    Signal                 : 87%
`

func TestParseNetshInterfaces(t *testing.T) {
	info := parseNetshInterfaces(netshOutput)

	assert.Equal(t, "HomeNet", info.SSID)
	assert.Equal(t, 87, info.SignalPercent)
	assert.Equal(t, 866, info.LinkSpeedMbps)
}

func TestParseNetshInterfacesDisconnected(t *testing.T) {
	out := `
    Name                   : Wi-Fi
    State                  : disconnected
`
	info := parseNetshInterfaces(out)

	assert.Equal(t, "N/A", info.SSID)
	assert.Equal(t, 0, info.SignalPercent)
	assert.Equal(t, 0, info.LinkSpeedMbps)
}

func TestParseIwDevInterface(t *testing.T) {
	out := `phy#0
	Interface wlp3s0
		ifindex 3
		wdev 0x1
		addr aa:bb:cc:dd:ee:ff
		ssid HomeNet
		type managed
`
	assert.Equal(t, "wlp3s0", parseIwDevInterface(out))
	assert.Equal(t, "", parseIwDevInterface("phy#0\n"))
}

func TestParseIwLink(t *testing.T) {
	out := `Connected to 11:22:33:44:55:66 (on wlp3s0)
	SSID: HomeNet
	freq: 5220
	RX: 123456789 bytes (456 packets)
	TX: 12345678 bytes (56 packets)
	signal: -58 dBm
	rx bitrate: 866.7 MBit/s VHT-MCS 9 80MHz short GI VHT-NSS 2
	tx bitrate: 780.0 MBit/s VHT-MCS 8 80MHz short GI VHT-NSS 2
`
	info := parseIwLink(out)

	assert.Equal(t, "HomeNet", info.SSID)
	assert.Equal(t, 84, info.SignalPercent)
	assert.Equal(t, 780, info.LinkSpeedMbps)
}

func TestParseIwLinkNotConnected(t *testing.T) {
	info := parseIwLink("Not connected.\n")

	assert.Equal(t, "N/A", info.SSID)
	assert.Equal(t, 0, info.SignalPercent)
}

func TestSignalPercentFromDBm(t *testing.T) {
	testCases := []struct {
		dbm  float64
		want int
	}{
		{-30, 100},
		{-50, 100},
		{-75, 50},
		{-100, 0},
		{-110, 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, signalPercentFromDBm(tc.dbm), "dbm=%v", tc.dbm)
	}
}

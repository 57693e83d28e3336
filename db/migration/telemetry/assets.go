// Package telemetry holds the schema migrations for the telemetry store.
// They are exposed through the go-bindata accessor pair that db/sqlite
// expects, with the SQL kept inline so schema changes stay reviewable.
package telemetry

import (
	"fmt"
	"sort"
)

var assets = map[string]string{
	"001_init.up.sql": `
CREATE TABLE IF NOT EXISTS devices (
    device_id TEXT PRIMARY KEY NOT NULL,
    specs TEXT NOT NULL,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS network_tests (
    id TEXT PRIMARY KEY NOT NULL,
    device_id TEXT NOT NULL REFERENCES devices (device_id),
    download_mbps REAL NOT NULL,
    upload_mbps REAL NOT NULL,
    ping_latency_ms REAL NOT NULL,
    isp_name TEXT NOT NULL,
    test_server TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_network_tests_device_timestamp
    ON network_tests (device_id, timestamp DESC);

CREATE TABLE IF NOT EXISTS commands (
    name TEXT PRIMARY KEY NOT NULL,
    status TEXT NOT NULL,
    timestamp INTEGER NOT NULL
);
`,
	"001_init.down.sql": `
DROP TABLE IF EXISTS commands;
DROP INDEX IF EXISTS idx_network_tests_device_timestamp;
DROP TABLE IF EXISTS network_tests;
DROP TABLE IF EXISTS devices;
`,
}

func AssetNames() []string {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Asset(name string) ([]byte, error) {
	sql, ok := assets[name]
	if !ok {
		return nil, fmt.Errorf("asset %q not found", name)
	}
	return []byte(sql), nil
}

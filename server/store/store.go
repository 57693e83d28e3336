package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/hostpulse/hostpulse/db/migration/telemetry"
	"github.com/hostpulse/hostpulse/db/sqlite"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

type DBProvider interface {
	EnsureDeviceSpecs(ctx context.Context, deviceID string, specs *models.DeviceSpecs) (created bool, err error)
	GetDeviceSpecs(ctx context.Context, deviceID string) (*models.DeviceSpecs, error)
	CreateBandwidthRecord(ctx context.Context, record *models.BandwidthRecord) error
	GetLatestBandwidthRecord(ctx context.Context, deviceID string) (*models.BandwidthRecord, error)
	GetCommandState(ctx context.Context, name string) (*models.CommandState, error)
	SetCommandStatus(ctx context.Context, name string, status models.CommandStatus, timestamp int64) error
	ClaimCommand(ctx context.Context, name string, from, to models.CommandStatus, timestamp int64) (bool, error)
	DeleteBandwidthRecordsBefore(ctx context.Context, compare int64) (int64, error)
	Close() error
	DB() *sqlx.DB
}

type SqliteProvider struct {
	db     *sqlx.DB
	logger *logger.Logger
}

func NewSqliteProvider(dbPath string, dataSourceOptions sqlite.DataSourceOptions, l *logger.Logger) (DBProvider, error) {
	db, err := sqlite.New(dbPath, telemetry.AssetNames(), telemetry.Asset, dataSourceOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create telemetry DB instance: %v", err)
	}

	l.Infof("initialized telemetry database at %s", dbPath)

	return &SqliteProvider{db: db, logger: l}, nil
}

type deviceRow struct {
	DeviceID  string `db:"device_id"`
	Specs     string `db:"specs"`
	CreatedAt int64  `db:"created_at"`
}

// EnsureDeviceSpecs stores the specs document once per device. An existing
// row is left untouched, so the stored hardware profile reflects the first
// boot even when components were swapped later.
func (p *SqliteProvider) EnsureDeviceSpecs(ctx context.Context, deviceID string, specs *models.DeviceSpecs) (bool, error) {
	blob, err := json.Marshal(specs)
	if err != nil {
		return false, fmt.Errorf("failed to encode device specs: %v", err)
	}

	result, err := p.db.NamedExecContext(
		ctx,
		"INSERT INTO devices (device_id, specs, created_at) VALUES (:device_id, :specs, :created_at) "+
			"ON CONFLICT (device_id) DO NOTHING",
		deviceRow{DeviceID: deviceID, Specs: string(blob), CreatedAt: time.Now().Unix()},
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (p *SqliteProvider) GetDeviceSpecs(ctx context.Context, deviceID string) (*models.DeviceSpecs, error) {
	var row deviceRow
	err := p.db.GetContext(ctx, &row, "SELECT device_id, specs, created_at FROM devices WHERE device_id = ?", deviceID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	specs := &models.DeviceSpecs{}
	if err := json.Unmarshal([]byte(row.Specs), specs); err != nil {
		return nil, fmt.Errorf("failed to decode device specs: %v", err)
	}
	return specs, nil
}

func (p *SqliteProvider) CreateBandwidthRecord(ctx context.Context, record *models.BandwidthRecord) error {
	_, err := p.db.NamedExecContext(
		ctx,
		"INSERT INTO network_tests (id, device_id, download_mbps, upload_mbps, ping_latency_ms, isp_name, test_server, timestamp) "+
			"VALUES (:id, :device_id, :download_mbps, :upload_mbps, :ping_latency_ms, :isp_name, :test_server, :timestamp)",
		record,
	)
	if err != nil {
		typeErr, ok := err.(sqlite3.Error)
		if ok && typeErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("bandwidth record %s rejected, device %s is not registered", record.ID, record.DeviceID)
		}
		return err
	}
	return nil
}

func (p *SqliteProvider) GetLatestBandwidthRecord(ctx context.Context, deviceID string) (*models.BandwidthRecord, error) {
	var record models.BandwidthRecord
	err := p.db.GetContext(
		ctx,
		&record,
		"SELECT * FROM network_tests WHERE device_id = ? ORDER BY timestamp DESC LIMIT 1",
		deviceID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (p *SqliteProvider) GetCommandState(ctx context.Context, name string) (*models.CommandState, error) {
	var state models.CommandState
	err := p.db.GetContext(ctx, &state, "SELECT name, status, timestamp FROM commands WHERE name = ?", name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// SetCommandStatus merges status and timestamp into the command document,
// creating it when missing.
func (p *SqliteProvider) SetCommandStatus(ctx context.Context, name string, status models.CommandStatus, timestamp int64) error {
	_, err := p.db.ExecContext(
		ctx,
		"INSERT INTO commands (name, status, timestamp) VALUES (?, ?, ?) "+
			"ON CONFLICT (name) DO UPDATE SET status = excluded.status, timestamp = excluded.timestamp",
		name, status, timestamp,
	)
	return err
}

// ClaimCommand moves the command from one status to another only if it still
// holds the expected status. It reports whether the row was claimed.
func (p *SqliteProvider) ClaimCommand(ctx context.Context, name string, from, to models.CommandStatus, timestamp int64) (bool, error) {
	result, err := p.db.ExecContext(
		ctx,
		"UPDATE commands SET status = ?, timestamp = ? WHERE name = ? AND status = ?",
		to, timestamp, name, from,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteBandwidthRecordsBefore removes benchmark history older than the given
// unix timestamp. Only the latest record feeds the reconciler, so trimming the
// tail never changes served metrics.
func (p *SqliteProvider) DeleteBandwidthRecordsBefore(ctx context.Context, compare int64) (int64, error) {
	result, err := p.db.ExecContext(ctx, "DELETE FROM network_tests WHERE timestamp < ?", compare)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (p *SqliteProvider) Close() error {
	return p.db.Close()
}

func (p *SqliteProvider) DB() *sqlx.DB {
	return p.db
}

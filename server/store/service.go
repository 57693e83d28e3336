package store

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hostpulse/hostpulse/share/models"
)

// Service is the persistence surface the collector and the API work against.
// All lookups return nil without error when the document does not exist yet.
type Service interface {
	DeviceID() string
	EnsureDeviceSpecs(ctx context.Context, specs *models.DeviceSpecs) (created bool, err error)
	DeviceSpecs(ctx context.Context) (*models.DeviceSpecs, error)
	SaveBandwidthRecord(ctx context.Context, record *models.BandwidthRecord) error
	LatestBandwidthRecord(ctx context.Context) (*models.BandwidthRecord, error)
	CommandState(ctx context.Context, name string) (*models.CommandState, error)
	SetCommandStatus(ctx context.Context, name string, status models.CommandStatus) error
	ClaimCommand(ctx context.Context, name string, from, to models.CommandStatus) (bool, error)
	DeleteBandwidthRecordsOlderThanDays(ctx context.Context, days int64) (int64, error)
}

type telemetryService struct {
	provider DBProvider
	deviceID string
}

// NewService binds the provider to the device this daemon runs on.
func NewService(provider DBProvider, deviceID string) Service {
	return &telemetryService{provider: provider, deviceID: deviceID}
}

func (s *telemetryService) DeviceID() string {
	return s.deviceID
}

func (s *telemetryService) EnsureDeviceSpecs(ctx context.Context, specs *models.DeviceSpecs) (bool, error) {
	return s.provider.EnsureDeviceSpecs(ctx, s.deviceID, specs)
}

func (s *telemetryService) DeviceSpecs(ctx context.Context) (*models.DeviceSpecs, error) {
	return s.provider.GetDeviceSpecs(ctx, s.deviceID)
}

// SaveBandwidthRecord fills in the record identity before persisting: the
// daemon's device ID, the capture time when unset, and a ULID derived from
// that time so IDs sort the same way the timestamp column does.
func (s *telemetryService) SaveBandwidthRecord(ctx context.Context, record *models.BandwidthRecord) error {
	if record.DeviceID == "" {
		record.DeviceID = s.deviceID
	}
	if record.Timestamp == 0 {
		record.Timestamp = time.Now().Unix()
	}
	if record.ID == "" {
		record.ID = newRecordID(record.Timestamp)
	}
	return s.provider.CreateBandwidthRecord(ctx, record)
}

func (s *telemetryService) LatestBandwidthRecord(ctx context.Context) (*models.BandwidthRecord, error) {
	return s.provider.GetLatestBandwidthRecord(ctx, s.deviceID)
}

func (s *telemetryService) CommandState(ctx context.Context, name string) (*models.CommandState, error) {
	return s.provider.GetCommandState(ctx, name)
}

func (s *telemetryService) SetCommandStatus(ctx context.Context, name string, status models.CommandStatus) error {
	return s.provider.SetCommandStatus(ctx, name, status, time.Now().Unix())
}

func (s *telemetryService) ClaimCommand(ctx context.Context, name string, from, to models.CommandStatus) (bool, error) {
	return s.provider.ClaimCommand(ctx, name, from, to, time.Now().Unix())
}

func (s *telemetryService) DeleteBandwidthRecordsOlderThanDays(ctx context.Context, days int64) (int64, error) {
	compare := time.Now().Unix() - (days * 24 * 3600)
	return s.provider.DeleteBandwidthRecordsBefore(ctx, compare)
}

func newRecordID(timestamp int64) string {
	return ulid.MustNew(ulid.Timestamp(time.Unix(timestamp, 0)), ulid.DefaultEntropy()).String()
}

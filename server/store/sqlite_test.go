package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/hostpulse/db/sqlite"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

var testLog = logger.NewLogger("store", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)

const testDeviceID = "test-device-1"

var testSpecs = models.DeviceSpecs{
	DeviceModel:    "ThinkPad X1 Carbon Gen 9",
	ProcessorModel: "11th Gen Intel(R) Core(TM) i7-1185G7",
	CPUCores:       4,
	CPUThreads:     8,
	RAMTotalGB:     16,
	OSName:         "linux",
	OSVersion:      "ubuntu 22.04",
}

func newTestProvider(t *testing.T) DBProvider {
	provider, err := NewSqliteProvider(":memory:", sqlite.DataSourceOptions{}, testLog)
	require.NoError(t, err)
	t.Cleanup(func() {
		provider.Close()
	})
	return provider
}

func TestEnsureDeviceSpecsIsWriteOnce(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)

	created, err := provider.EnsureDeviceSpecs(ctx, testDeviceID, &testSpecs)
	require.NoError(t, err)
	assert.True(t, created)

	changed := testSpecs
	changed.RAMTotalGB = 32
	created, err = provider.EnsureDeviceSpecs(ctx, testDeviceID, &changed)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := provider.GetDeviceSpecs(ctx, testDeviceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, testSpecs, *got)
}

func TestGetDeviceSpecsAbsent(t *testing.T) {
	provider := newTestProvider(t)

	got, err := provider.GetDeviceSpecs(context.Background(), "unknown-device")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLatestBandwidthRecord(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)

	got, err := provider.GetLatestBandwidthRecord(ctx, testDeviceID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = provider.EnsureDeviceSpecs(ctx, testDeviceID, &testSpecs)
	require.NoError(t, err)

	older := &models.BandwidthRecord{
		ID:           "01H8XGJWBWBAQ4NF0000000001",
		DeviceID:     testDeviceID,
		DownloadMbps: 87.5,
		UploadMbps:   23.1,
		PingMs:       14.2,
		ISPName:      "Deutsche Telekom AG",
		ServerName:   "Frankfurt",
		Timestamp:    1_700_000_000,
	}
	newer := &models.BandwidthRecord{
		ID:           "01H8XGJWBWBAQ4NF0000000002",
		DeviceID:     testDeviceID,
		DownloadMbps: 91.0,
		UploadMbps:   25.8,
		PingMs:       12.9,
		ISPName:      "Deutsche Telekom AG",
		ServerName:   "Frankfurt",
		Timestamp:    1_700_000_600,
	}
	require.NoError(t, provider.CreateBandwidthRecord(ctx, older))
	require.NoError(t, provider.CreateBandwidthRecord(ctx, newer))

	got, err = provider.GetLatestBandwidthRecord(ctx, testDeviceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, newer, got)
}

func TestCommandStateLifecycle(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)

	state, err := provider.GetCommandState(ctx, models.SpeedTestTriggerCommand)
	require.NoError(t, err)
	assert.Nil(t, state)

	require.NoError(t, provider.SetCommandStatus(ctx, models.SpeedTestTriggerCommand, models.CommandStatusPending, 1_700_000_000))

	claimed, err := provider.ClaimCommand(ctx, models.SpeedTestTriggerCommand, models.CommandStatusPending, models.CommandStatusRunning, 1_700_000_001)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = provider.ClaimCommand(ctx, models.SpeedTestTriggerCommand, models.CommandStatusPending, models.CommandStatusRunning, 1_700_000_002)
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, provider.SetCommandStatus(ctx, models.SpeedTestTriggerCommand, models.CommandStatusComplete, 1_700_000_060))

	state, err = provider.GetCommandState(ctx, models.SpeedTestTriggerCommand)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, models.CommandStatusComplete, state.Status)
	assert.EqualValues(t, 1_700_000_060, state.Timestamp)
}

func TestDeleteBandwidthRecordsBefore(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)

	_, err := provider.EnsureDeviceSpecs(ctx, testDeviceID, &testSpecs)
	require.NoError(t, err)

	stale := &models.BandwidthRecord{
		ID:        "01H8XGJWBWBAQ4NF0000000003",
		DeviceID:  testDeviceID,
		ISPName:   "Vodafone",
		Timestamp: 1_600_000_000,
	}
	fresh := &models.BandwidthRecord{
		ID:        "01H8XGJWBWBAQ4NF0000000004",
		DeviceID:  testDeviceID,
		ISPName:   "Vodafone",
		Timestamp: 1_700_000_000,
	}
	require.NoError(t, provider.CreateBandwidthRecord(ctx, stale))
	require.NoError(t, provider.CreateBandwidthRecord(ctx, fresh))

	deleted, err := provider.DeleteBandwidthRecordsBefore(ctx, 1_650_000_000)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	got, err := provider.GetLatestBandwidthRecord(ctx, testDeviceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fresh.ID, got.ID)

	deleted, err = provider.DeleteBandwidthRecordsBefore(ctx, 1_650_000_000)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestCleanupTaskAppliesRetention(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)
	service := NewService(provider, testDeviceID)

	_, err := service.EnsureDeviceSpecs(ctx, &testSpecs)
	require.NoError(t, err)

	ancient := &models.BandwidthRecord{
		ID:        "01H8XGJWBWBAQ4NF0000000005",
		DeviceID:  testDeviceID,
		ISPName:   "Vodafone",
		Timestamp: 1_000_000,
	}
	require.NoError(t, provider.CreateBandwidthRecord(ctx, ancient))

	current := &models.BandwidthRecord{ISPName: "Vodafone"}
	require.NoError(t, service.SaveBandwidthRecord(ctx, current))

	task := NewCleanupTask(testLog, service, 30)
	require.NoError(t, task.Run(ctx))

	got, err := service.LatestBandwidthRecord(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, current.ID, got.ID)

	deleted, err := provider.DeleteBandwidthRecordsBefore(ctx, 1_000_001)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestServiceAssignsRecordIdentity(t *testing.T) {
	ctx := context.Background()
	provider := newTestProvider(t)
	service := NewService(provider, testDeviceID)

	_, err := service.EnsureDeviceSpecs(ctx, &testSpecs)
	require.NoError(t, err)

	record := &models.BandwidthRecord{
		DownloadMbps: 42.0,
		UploadMbps:   11.0,
		PingMs:       20.0,
		ISPName:      "Vodafone",
		ServerName:   "Berlin",
	}
	require.NoError(t, service.SaveBandwidthRecord(ctx, record))

	assert.Len(t, record.ID, 26)
	assert.Equal(t, testDeviceID, record.DeviceID)
	assert.NotZero(t, record.Timestamp)

	got, err := service.LatestBandwidthRecord(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record.ID, got.ID)
}

func TestCreateBandwidthRecordRequiresRegisteredDevice(t *testing.T) {
	provider := newTestProvider(t)

	err := provider.CreateBandwidthRecord(context.Background(), &models.BandwidthRecord{
		ID:           "01H8XGJWBWBAQ4NF0000000009",
		DeviceID:     "never-registered",
		DownloadMbps: 10,
		UploadMbps:   5,
		PingMs:       20,
		ISPName:      "Comcast",
		ServerName:   "Example",
		Timestamp:    1600000000,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not registered")
}

package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/share/models"
)

func TestSummaryUsesStoredRecordAndGeoNames(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)
	seedValidRecord(t, svc, 100.0, 50.0)

	runner := &stubRunner{}
	r := NewReconciler(testLog, svc, runner, geoServer.URL, time.Hour)

	summary := r.Summary(context.Background())

	assert.Equal(t, 50.0, summary.DownloadMbps)
	assert.Equal(t, 25.0, summary.UploadMbps)
	assert.Equal(t, "AS203 Example ISP", summary.ISPName)
	assert.Equal(t, "Berlin", summary.Region)
	assert.Equal(t, "DE", summary.Country)
	assert.Equal(t, 0, runner.callCount())
}

func TestSummaryFallsBackToLiveBenchmark(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)

	runner := &stubRunner{result: &bandwidth.Result{
		DownloadMbps: 80.0,
		UploadMbps:   40.0,
		PingMs:       11.0,
		ISPName:      "Comcast",
		ServerName:   "Example (Berlin)",
	}}
	r := NewReconciler(testLog, svc, runner, geoServer.URL, time.Hour)

	summary := r.Summary(context.Background())

	assert.Equal(t, 40.0, summary.DownloadMbps)
	assert.Equal(t, 20.0, summary.UploadMbps)
	assert.Equal(t, 1, runner.callCount())

	// The live reading is used for reconciliation only: nothing was
	// persisted and the trigger document was never touched.
	latest, err := svc.LatestBandwidthRecord(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
	state, err := svc.CommandState(context.Background(), models.SpeedTestTriggerCommand)
	require.NoError(t, err)
	assert.Nil(t, state)

	// A valid live reading stays cached, so the benchmark does not rerun.
	r.Summary(context.Background())
	assert.Equal(t, 1, runner.callCount())
}

func TestSummaryRetriesAfterFailedLiveBenchmark(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)

	runner := &stubRunner{err: assert.AnError}
	r := NewReconciler(testLog, svc, runner, geoServer.URL, time.Hour)

	summary := r.Summary(context.Background())
	assert.Equal(t, 0.0, summary.DownloadMbps)
	assert.Equal(t, 0.0, summary.UploadMbps)
	// the geo names survive a failed benchmark
	assert.Equal(t, "AS203 Example ISP", summary.ISPName)

	r.Summary(context.Background())
	assert.Equal(t, 2, runner.callCount())
}

func TestSummaryTreatsSentinelRecordAsAbsent(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)

	_, err := svc.EnsureDeviceSpecs(context.Background(), &models.DeviceSpecs{DeviceModel: "TestBox"})
	require.NoError(t, err)
	require.NoError(t, svc.SaveBandwidthRecord(context.Background(),
		models.NewFailedBandwidthRecord("device-under-test", 1600000000)))

	runner := &stubRunner{result: &bandwidth.Result{
		DownloadMbps: 60.0,
		UploadMbps:   30.0,
		PingMs:       14.0,
		ISPName:      "Comcast",
		ServerName:   "Example (Berlin)",
	}}
	r := NewReconciler(testLog, svc, runner, geoServer.URL, time.Hour)

	summary := r.Summary(context.Background())

	assert.Equal(t, 30.0, summary.DownloadMbps)
	assert.Equal(t, 1, runner.callCount())
}

func TestReconcileClampsAgainstCeiling(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)
	seedValidRecord(t, svc, 100.0, 50.0)

	r := NewReconciler(testLog, svc, &stubRunner{}, geoServer.URL, time.Hour)

	rates := r.Reconcile(context.Background(), models.RateEstimate{
		DownloadMbps:  500.0,
		UploadMbps:    1.0,
		DiskReadMBps:  7.5,
		DiskWriteMBps: 3.25,
	})

	// ceilings: 50 * 1.5 and 25 * 1.5
	assert.Equal(t, 75.0, rates.DownloadMbps)
	assert.Equal(t, 1.0, rates.UploadMbps)
	assert.Equal(t, 7.5, rates.DiskReadMBps)
	assert.Equal(t, 3.25, rates.DiskWriteMBps)
}

func TestReconcileZeroCeilingZeroesRates(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)

	// A valid record with zero speeds yields a zero ceiling.
	_, err := svc.EnsureDeviceSpecs(context.Background(), &models.DeviceSpecs{DeviceModel: "TestBox"})
	require.NoError(t, err)
	require.NoError(t, svc.SaveBandwidthRecord(context.Background(), &models.BandwidthRecord{
		ISPName:    "Comcast",
		ServerName: "Example (Berlin)",
		Timestamp:  1600000000,
	}))

	r := NewReconciler(testLog, svc, &stubRunner{}, geoServer.URL, time.Hour)

	rates := r.Reconcile(context.Background(), models.RateEstimate{DownloadMbps: 12.5, UploadMbps: 8.0})

	assert.Equal(t, 0.0, rates.DownloadMbps)
	assert.Equal(t, 0.0, rates.UploadMbps)
}

func TestInvalidateBandwidthRereadsStore(t *testing.T) {
	geoServer := newGeoServer(t)
	svc := newTestService(t)
	seedValidRecord(t, svc, 100.0, 50.0)

	runner := &stubRunner{}
	r := NewReconciler(testLog, svc, runner, geoServer.URL, time.Hour)

	summary := r.Summary(context.Background())
	assert.Equal(t, 50.0, summary.DownloadMbps)

	require.NoError(t, svc.SaveBandwidthRecord(context.Background(), &models.BandwidthRecord{
		DownloadMbps: 200.0,
		UploadMbps:   90.0,
		PingMs:       10.0,
		ISPName:      "Telekom",
		ServerName:   "Example (Hamburg)",
		Timestamp:    1650000000,
	}))

	// the cached record still answers until it is dropped
	summary = r.Summary(context.Background())
	assert.Equal(t, 50.0, summary.DownloadMbps)

	r.InvalidateBandwidth()
	summary = r.Summary(context.Background())
	assert.Equal(t, 100.0, summary.DownloadMbps)
	assert.Equal(t, 0, runner.callCount())
}

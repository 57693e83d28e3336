package monitor

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/monitor/helper"
	"github.com/hostpulse/hostpulse/monitor/probes"
	"github.com/hostpulse/hostpulse/server/store"
	"github.com/hostpulse/hostpulse/share/cache"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

// ceilingSlack widens the benchmark ceiling before counter rates are clamped
// against it. Counter deltas over short windows legitimately overshoot the
// measured link speed.
const ceilingSlack = 1.5

// DefaultGeoCacheTTL is how long one public-IP/geo lookup stays fresh.
const DefaultGeoCacheTTL = 3600 * time.Second

// Reconciler bounds counter-derived network rates by the most recent
// bandwidth benchmark and serves the benchmark summary for snapshots. Both
// external lookups sit behind caches: the geo lookup ages out by TTL, the
// benchmark record stays until a valid one replaces it.
type Reconciler struct {
	logger *logger.Logger
	store  store.Service
	runner bandwidth.Runner

	geo    *cache.Cache[*models.GeoInfo]
	record *cache.Cache[*models.BandwidthRecord]
}

func NewReconciler(l *logger.Logger, svc store.Service, runner bandwidth.Runner, geoAPIURL string, geoTTL time.Duration) *Reconciler {
	if geoAPIURL == "" {
		geoAPIURL = probes.DefaultGeoAPIURL
	}
	if geoTTL <= 0 {
		geoTTL = DefaultGeoCacheTTL
	}

	r := &Reconciler{
		logger: l.Fork("reconcile"),
		store:  svc,
		runner: runner,
	}
	r.geo = cache.New(geoTTL, func(ctx context.Context) (*models.GeoInfo, error) {
		return probes.FetchGeoInfo(ctx, geoAPIURL)
	})
	r.record = cache.NewValidated((*models.BandwidthRecord).Valid, r.refreshRecord)
	return r
}

// refreshRecord resolves the benchmark record the reconciliation works from.
// A valid stored record wins; otherwise one live benchmark supplies the
// reading for this round only. The live result is not persisted and the
// trigger state machine is untouched, so a later stored record replaces it
// naturally.
func (r *Reconciler) refreshRecord(ctx context.Context) (*models.BandwidthRecord, error) {
	latest, err := r.store.LatestBandwidthRecord(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "lookup latest bandwidth record")
	}
	if latest.Valid() {
		return latest, nil
	}

	r.logger.Debugf("No valid bandwidth record stored, benchmarking live")
	res, err := r.runner.Run(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "live bandwidth benchmark")
	}
	return res.Record(r.store.DeviceID(), time.Now().Unix()), nil
}

// Summary is the reconciliation view of the most recent benchmark: record
// speeds scaled down at capture, provider and place names from the geo
// lookup. It never fails; a missing record or geo entry degrades to the
// neutral values.
func (r *Reconciler) Summary(ctx context.Context) models.SpeedSummary {
	summary := models.SpeedSummary{
		ISPName: models.ISPNameNA,
		Region:  "N/A",
		Country: "N/A",
	}

	record, err := r.record.Get(ctx)
	if err != nil && err != cache.ErrServedStale {
		r.logger.Debugf("Cannot resolve bandwidth record: %v", err)
	}
	if record != nil {
		summary.DownloadMbps = helper.RoundToTwoDecimalPlaces(record.DownloadMbps * speedScalingFactor)
		summary.UploadMbps = helper.RoundToTwoDecimalPlaces(record.UploadMbps * speedScalingFactor)
	}

	if geo := r.Geo(ctx); geo != nil {
		if geo.Org != "" {
			summary.ISPName = geo.Org
		}
		if geo.City != "" {
			// the region slot carries the city name
			summary.Region = geo.City
		}
		if geo.Country != "" {
			summary.Country = geo.Country
		}
	}
	return summary
}

// Reconcile clamps counter-derived network rates to 1.5x the benchmark
// ceiling. Both sides of the comparison already carry the capture-time
// scaling, so no factor is applied here. Disk rates pass through untouched.
func (r *Reconciler) Reconcile(ctx context.Context, raw models.RateEstimate) models.RateEstimate {
	summary := r.Summary(ctx)
	raw.DownloadMbps = helper.RoundToTwoDecimalPlaces(math.Min(raw.DownloadMbps, summary.DownloadMbps*ceilingSlack))
	raw.UploadMbps = helper.RoundToTwoDecimalPlaces(math.Min(raw.UploadMbps, summary.UploadMbps*ceilingSlack))
	return raw
}

// Geo returns the cached public-IP lookup, refreshing it when aged out. A
// stale entry is still served when the refresh fails; with nothing cached
// yet the return is nil.
func (r *Reconciler) Geo(ctx context.Context) *models.GeoInfo {
	geo, err := r.geo.Get(ctx)
	if err == cache.ErrServedStale {
		r.logger.Debugf("Geo lookup failed, serving stale entry")
		return geo
	}
	if err != nil {
		r.logger.Debugf("Cannot resolve public IP and geo: %v", err)
		return nil
	}
	return geo
}

// InvalidateBandwidth drops the cached benchmark record so the next summary
// reads the store again. The trigger calls this after persisting a record.
func (r *Reconciler) InvalidateBandwidth() {
	r.record.Invalidate()
}

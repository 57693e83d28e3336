package monitor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/hostpulse/hostpulse/monitor/bandwidth"
	"github.com/hostpulse/hostpulse/server/store"
	"github.com/hostpulse/hostpulse/share/logger"
	"github.com/hostpulse/hostpulse/share/models"
)

// TriggerRunner executes the stored benchmark-trigger command. An external
// actor arms the trigger by writing pending; the poll loop claims it and runs
// the benchmark. Every executed trigger ends with a persisted record and a
// complete status, failures included.
//
// TODO: expire stale running states; a crash between claim and completion
// wedges the trigger until someone rewrites the document.
type TriggerRunner struct {
	logger     *logger.Logger
	store      store.Service
	runner     bandwidth.Runner
	reconciler *Reconciler
}

func NewTriggerRunner(l *logger.Logger, svc store.Service, runner bandwidth.Runner, reconciler *Reconciler) *TriggerRunner {
	return &TriggerRunner{
		logger:     l.Fork("trigger"),
		store:      svc,
		runner:     runner,
		reconciler: reconciler,
	}
}

// PollAndExecute runs the benchmark when the trigger is armed. It reports
// true when a benchmark executed this call, false when the trigger was not
// pending, the claim was lost to a concurrent poller, or the runner was busy
// and the trigger stayed armed for a later poll.
func (t *TriggerRunner) PollAndExecute(ctx context.Context) (bool, error) {
	state, err := t.store.CommandState(ctx, models.SpeedTestTriggerCommand)
	if err != nil {
		return false, errors.Wrap(err, "read trigger state")
	}
	if state == nil || state.Status != models.CommandStatusPending {
		return false, nil
	}

	claimed, err := t.store.ClaimCommand(ctx, models.SpeedTestTriggerCommand, models.CommandStatusPending, models.CommandStatusRunning)
	if err != nil {
		return false, errors.Wrap(err, "claim trigger")
	}
	if !claimed {
		return false, nil
	}

	t.logger.Infof("Benchmark trigger claimed, running speed test")
	res, runErr := t.runner.Run(ctx)
	if runErr == bandwidth.ErrBenchmarkBusy {
		return false, t.rearm(ctx)
	}

	_, err = t.finish(ctx, res, runErr)
	return true, err
}

// RunDirect drives the trigger through its full lifecycle for one external
// request, without waiting for a poll cycle. The resulting record (sentinel
// on benchmark failure) is returned to the caller. When another benchmark
// holds the runner the request stays armed for the poll loop and
// ErrBenchmarkBusy is returned.
func (t *TriggerRunner) RunDirect(ctx context.Context) (*models.BandwidthRecord, error) {
	if err := t.setStatus(ctx, models.CommandStatusPending); err != nil {
		return nil, errors.Wrap(err, "arm trigger")
	}
	if err := t.setStatus(ctx, models.CommandStatusRunning); err != nil {
		return nil, errors.Wrap(err, "claim trigger")
	}

	res, runErr := t.runner.Run(ctx)
	if runErr == bandwidth.ErrBenchmarkBusy {
		if err := t.rearm(ctx); err != nil {
			return nil, err
		}
		return nil, runErr
	}

	return t.finish(ctx, res, runErr)
}

// finish persists the benchmark outcome and drives the trigger to complete.
// A persistence failure is logged but does not stop the complete write; the
// trigger document must not stay in running longer than necessary.
func (t *TriggerRunner) finish(ctx context.Context, res *bandwidth.Result, runErr error) (*models.BandwidthRecord, error) {
	var record *models.BandwidthRecord
	if runErr != nil {
		t.logger.Errorf("Bandwidth benchmark failed: %v", runErr)
		record = models.NewFailedBandwidthRecord(t.store.DeviceID(), time.Now().Unix())
	} else {
		record = res.Record(t.store.DeviceID(), time.Now().Unix())
	}

	if err := t.store.SaveBandwidthRecord(ctx, record); err != nil {
		t.logger.Errorf("Cannot persist bandwidth record: %v", err)
	} else {
		t.logger.Infof("Bandwidth record %s persisted", record.ID)
		t.reconciler.InvalidateBandwidth()
	}

	if err := t.setStatus(ctx, models.CommandStatusComplete); err != nil {
		return record, errors.Wrap(err, "complete trigger")
	}
	return record, nil
}

// rearm puts a claimed trigger back to pending so a later poll executes it
// once the runner frees up.
func (t *TriggerRunner) rearm(ctx context.Context) error {
	t.logger.Debugf("Benchmark runner busy, trigger stays armed")
	if err := t.setStatus(ctx, models.CommandStatusPending); err != nil {
		return errors.Wrap(err, "re-arm trigger")
	}
	return nil
}

func (t *TriggerRunner) setStatus(ctx context.Context, status models.CommandStatus) error {
	return t.store.SetCommandStatus(ctx, models.SpeedTestTriggerCommand, status)
}

package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	assert.NoError(t, err, "error creating log file")
	defer l.Close()
	logger := NewLogger("test", LogOutput{File: l}, LogLevelDebug)
	logger.Debugf("Debug %s", "Debug")
	logger.Infof("Info %s", "Info")
	logger.Errorf("Error %s", "Error")
	log, err := os.ReadFile(logfile)
	assert.NoError(t, err, "error reading log file")
	assert.Contains(t, string(log), "test: Debug Debug")
	assert.Contains(t, string(log), "test: Info Info")
	assert.Contains(t, string(log), "test: Error Error")
}

func TestLoggerLevelFilter(t *testing.T) {
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	assert.NoError(t, err, "error creating log file")
	defer l.Close()
	logger := NewLogger("test", LogOutput{File: l}, LogLevelError)
	logger.Debugf("hidden debug")
	logger.Infof("hidden info")
	logger.Errorf("visible error")
	log, err := os.ReadFile(logfile)
	assert.NoError(t, err, "error reading log file")
	assert.NotContains(t, string(log), "hidden debug")
	assert.NotContains(t, string(log), "hidden info")
	assert.Contains(t, string(log), "test: visible error")
}

func TestLoggerFork(t *testing.T) {
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	assert.NoError(t, err, "error creating log file")
	defer l.Close()
	logger := NewLogger("monitor", LogOutput{File: l}, LogLevelDebug)
	forked := logger.Fork("trigger")
	assert.Equal(t, "monitor: trigger", forked.Prefix())
	forked.Infof("armed")
	log, err := os.ReadFile(logfile)
	assert.NoError(t, err, "error reading log file")
	assert.Contains(t, string(log), "monitor: trigger: armed")
}

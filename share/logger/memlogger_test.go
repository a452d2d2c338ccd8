package logger

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemLogger(t *testing.T) {
	mLog := NewMemLogger()
	mLog.Infof("Info %s", "first")
	mLog.Debugf("Debug %s", "second")
	mLog.Errorf("Error %s", "third")
	logfile := t.TempDir() + "/test.log"
	l, err := os.OpenFile(logfile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0444)
	require.NoError(t, err, "error creating log file")
	defer l.Close()

	mLog.Flush(NewLogger("test", LogOutput{File: l}, LogLevelInfo))
	// flushed entries are gone
	mLog.Flush(NewLogger("test", LogOutput{File: l}, LogLevelInfo))

	log, err := os.ReadFile(logfile)
	assert.NoError(t, err, "error reading log file")
	assert.Contains(t, string(log), "info: test: Info first")
	assert.NotContains(t, string(log), "Debug second")
	assert.Contains(t, string(log), "error: test: Error third")
	assert.Equal(t, 1, strings.Count(string(log), "Info first"))
	assert.Less(t, strings.Index(string(log), "Info first"), strings.Index(string(log), "Error third"))
}

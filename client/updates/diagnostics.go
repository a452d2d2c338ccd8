package updates

import (
	"os"
	"time"

	"github.com/jpillora/sizestr"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/openrport/rport-updates/share/logger"
)

// diagnostics logs the duration and resident memory of each report step.
// It is a no-op unless enabled.
type diagnostics struct {
	enabled bool
	logger  *logger.Logger
	start   time.Time
	last    time.Time
}

func newDiagnostics(enabled bool, l *logger.Logger) *diagnostics {
	d := &diagnostics{enabled: enabled}
	if !enabled {
		return d
	}
	// printed whatever the configured level is
	d.logger = l.Fork("diagnostics")
	if d.logger != nil {
		d.logger.Level = logger.LogLevelDebug
	}
	d.start = time.Now()
	d.last = d.start
	return d
}

func (d *diagnostics) Step(name string) {
	if !d.enabled {
		return
	}
	now := time.Now()
	d.logger.Debugf("%s took %s, rss %s", name, now.Sub(d.last).Round(time.Millisecond), residentMemory())
	d.last = now
}

func (d *diagnostics) Done(installed, updates int) {
	if !d.enabled {
		return
	}
	d.logger.Debugf("%d installed packages, %d with updates, total %s, rss %s",
		installed, updates, time.Since(d.start).Round(time.Millisecond), residentMemory())
}

func residentMemory() string {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return "unknown"
	}
	mem, err := p.MemoryInfo()
	if err != nil {
		return "unknown"
	}
	return sizestr.ToString(int64(mem.RSS))
}

package updates

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openrport/rport-updates/share/logger"
)

// YumPackageManager queries yum. Available packages come from repoquery,
// which is shipped with yum-utils.
type YumPackageManager struct {
	*rpmPackageManager

	repoqueryDetectCmd []string
}

func NewYumPackageManager(opts Options, l *logger.Logger) *YumPackageManager {
	p := &YumPackageManager{
		rpmPackageManager: newRPMPackageManager("yum", opts, l),
	}
	global := p.globalArgs()
	p.detectCmd = []string{"yum", "--version"}
	p.repoqueryDetectCmd = []string{"repoquery", "--version"}
	p.repolistCmd = append(append([]string{"yum"}, global...), "repolist", "enabled")
	p.advisoriesCmd = append(append([]string{"yum"}, global...), "updateinfo", "list", "all")

	// repoquery has no quiet flag and lists only the newest version of
	// each name.arch unless asked for duplicates
	rq := append([]string{"repoquery", "-C"}, global[2:]...)
	p.repoqueryCmd = append(rq, "--all", "--show-duplicates", "--qf", repoqueryFormat)
	return p
}

func (p *YumPackageManager) IsAvailable(ctx context.Context) bool {
	if !p.rpmPackageManager.IsAvailable(ctx) {
		return false
	}
	if _, err := p.run(ctx, p.repoqueryDetectCmd...); err != nil {
		p.probeErr = errors.Wrap(err, "repoquery from yum-utils is required")
		return false
	}
	return true
}

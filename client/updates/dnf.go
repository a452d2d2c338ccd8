package updates

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/openrport/rport-updates/share/logger"
)

const (
	dnf4CacheDir = "/var/cache/dnf"
	dnf5CacheDir = "/var/cache/libdnf5"
)

type DnfPackageManager struct {
	*rpmPackageManager

	// major is the dnf major version found by IsAvailable, 4 or 5
	major      int
	cacheDir   string
	lastUpdate time.Time
}

func NewDnfPackageManager(opts Options, l *logger.Logger) *DnfPackageManager {
	p := &DnfPackageManager{
		rpmPackageManager: newRPMPackageManager("dnf", opts, l),
	}
	p.detectCmd = []string{"dnf", "--version"}
	p.configure(4)
	return p
}

func (p *DnfPackageManager) IsAvailable(ctx context.Context) bool {
	output, err := p.run(ctx, p.detectCmd...)
	if err != nil {
		p.probeErr = err
		return false
	}

	v, err := parseDnfVersion(output)
	if err != nil {
		p.probeErr = err
		return false
	}
	p.probeErr = nil
	p.configure(v.Segments()[0])
	p.logger.Debugf("Found dnf %s", v)
	return true
}

// configure selects the command lines of the given dnf major version.
func (p *DnfPackageManager) configure(major int) {
	p.major = major
	global := p.globalArgs()
	cmd := func(args ...string) []string {
		return append(append([]string{"dnf"}, global...), args...)
	}

	p.repolistCmd = cmd("repolist", "--enabled")
	p.repoqueryCmd = cmd("repoquery", "--available", "--queryformat", repoqueryFormat)
	if major >= 5 {
		p.advisoriesCmd = cmd("advisory", "list", "--all")
		p.cacheDir = dnf5CacheDir
	} else {
		p.advisoriesCmd = cmd("updateinfo", "list", "--all")
		p.cacheDir = dnf4CacheDir
	}
}

func (p *DnfPackageManager) Load(ctx context.Context) error {
	if err := p.rpmPackageManager.Load(ctx); err != nil {
		return err
	}

	confPath := filepath.Join(p.opts.Root, "etc", "dnf", "dnf.conf")
	cacheDir := dnfCacheDir(confPath, p.cacheDir, p.basearch, p.releasever)
	if p.opts.Root != "/" {
		cacheDir = filepath.Join(p.opts.Root, cacheDir)
	}
	p.lastUpdate = lastMetadataUpdate(cacheDir, p.repos)
	if p.lastUpdate.IsZero() {
		p.logger.Debugf("No cached repository metadata found in %s", cacheDir)
	}
	return nil
}

func (p *DnfPackageManager) LastUpdate() time.Time {
	return p.lastUpdate
}

// parseDnfVersion finds the dnf version in `dnf --version` output. dnf4 prints
// the bare version on the first line, dnf5 prints "dnf5 version 5.x.y".
func parseDnfVersion(output string) (*version.Version, error) {
	for _, line := range strings.Split(output, "\n") {
		for _, field := range strings.Fields(line) {
			v, err := version.NewVersion(field)
			if err == nil {
				return v, nil
			}
		}
	}
	return nil, fmt.Errorf("no dnf version in %q", strings.TrimSpace(output))
}

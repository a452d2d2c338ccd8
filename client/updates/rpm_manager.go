package updates

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/pkg/errors"

	"github.com/openrport/rport-updates/share/logger"
)

// rpmPackageManager holds what dnf and yum have in common: every query runs
// against cached metadata only, installed packages come from the rpm database.
type rpmPackageManager struct {
	name   string
	runner Runner
	logger *logger.Logger
	opts   Options

	detectCmd     []string
	repolistCmd   []string
	repoqueryCmd  []string
	advisoriesCmd []string

	installed *installedSource
	probeErr  error

	releasever string
	basearch   string
	repos      []string
	index      *packageIndex
}

func newRPMPackageManager(name string, opts Options, l *logger.Logger) *rpmPackageManager {
	if opts.Root == "" {
		opts.Root = "/"
	}
	runner := &RunnerImpl{}
	l = l.Fork(name)
	return &rpmPackageManager{
		name:      name,
		runner:    runner,
		logger:    l,
		opts:      opts,
		installed: newInstalledSource(opts.Root, runner, l),
	}
}

func (p *rpmPackageManager) setRunner(r Runner) {
	p.runner = r
	p.installed.runner = r
}

func (p *rpmPackageManager) Name() string {
	return p.name
}

func (p *rpmPackageManager) IsAvailable(ctx context.Context) bool {
	_, err := p.run(ctx, p.detectCmd...)
	p.probeErr = err
	return err == nil
}

func (p *rpmPackageManager) ProbeError() error {
	return p.probeErr
}

// globalArgs are passed to every package manager invocation.
func (p *rpmPackageManager) globalArgs() []string {
	args := []string{"-C", "-q"}
	if p.opts.Root != "/" {
		args = append(args, "--installroot="+p.opts.Root)
	}
	if p.opts.ReleaseVer != "" {
		args = append(args, "--releasever="+p.opts.ReleaseVer)
	}
	return args
}

func (p *rpmPackageManager) Load(ctx context.Context) error {
	p.releasever = p.opts.ReleaseVer
	if p.releasever == "" {
		p.releasever = p.detectReleasever(ctx)
	}
	if p.releasever == "" {
		p.logger.Errorf("Could not detect the release version")
	}

	p.basearch = p.opts.BaseArch
	if p.basearch == "" {
		arch, err := detectArch()
		if err != nil {
			return errors.Wrap(err, "failed to detect architecture")
		}
		p.basearch = Basearch(arch)
	}

	output, err := p.run(ctx, p.repolistCmd...)
	if err != nil {
		return errors.Wrap(err, "failed to list enabled repositories")
	}
	p.repos = parseRepolist(output)

	installed, err := p.installed.Packages(ctx)
	if err != nil {
		return err
	}

	var available []Package
	var advisories map[string][]string
	if len(p.repos) > 0 {
		available, err = p.loadAvailable(ctx)
		if err != nil {
			return err
		}
		advisories = p.loadAdvisories(ctx)
	}

	p.index = newPackageIndex(installed, available, advisories)
	p.logger.Infof("Loaded %d repositories, %d installed and %d available packages",
		len(p.repos), len(installed), len(available))
	return nil
}

func (p *rpmPackageManager) loadAvailable(ctx context.Context) ([]Package, error) {
	output, err := p.run(ctx, p.repoqueryCmd...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query available packages")
	}

	pkgs, skipped := parseRepoquery(output)
	if skipped > 0 {
		p.logger.Debugf("Skipped %d unparsable repoquery rows", skipped)
	}

	enabled := mapset.NewThreadUnsafeSet()
	for _, repo := range p.repos {
		enabled.Add(repo)
	}
	result := make([]Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		if pkg.IsInstalled() || !enabled.Contains(pkg.Repo) {
			continue
		}
		result = append(result, pkg)
	}
	return result, nil
}

// loadAdvisories never fails: a repository without updateinfo metadata is normal.
func (p *rpmPackageManager) loadAdvisories(ctx context.Context) map[string][]string {
	output, err := p.run(ctx, p.advisoriesCmd...)
	if err != nil {
		p.logger.Infof("Listing advisories failed, reporting updates without errata: %v", err)
		return nil
	}
	return parseAdvisories(output)
}

func (p *rpmPackageManager) detectReleasever(ctx context.Context) string {
	for _, what := range releaseverPackages {
		cmd := []string{"rpm", "-q", "--whatprovides", what, "--queryformat", releaseverQueryFormat}
		if p.opts.Root != "/" {
			cmd = append(cmd, "--root", p.opts.Root)
		}
		output, err := p.run(ctx, cmd...)
		if err != nil {
			p.logger.Debugf("No package provides %s: %v", what, err)
			continue
		}
		if rv := parseReleasever(output); rv != "" {
			return rv
		}
	}
	return osReleaseVersionID(filepath.Join(p.opts.Root, "etc", "os-release"))
}

func (p *rpmPackageManager) ReleaseVer() string {
	return p.releasever
}

func (p *rpmPackageManager) BaseArch() string {
	return p.basearch
}

func (p *rpmPackageManager) EnabledRepos() []string {
	return append([]string{}, p.repos...)
}

func (p *rpmPackageManager) InstalledPackages() []Package {
	if p.index == nil {
		return nil
	}
	return p.index.installed
}

func (p *rpmPackageManager) Updates(pkg Package) (string, []Package) {
	if p.index == nil {
		return pkg.NEVRA(), nil
	}
	return p.index.updates(pkg)
}

func (p *rpmPackageManager) Advisory(pkg Package) (string, bool) {
	if p.index == nil {
		return "", false
	}
	return p.index.advisory(pkg)
}

func (p *rpmPackageManager) LastUpdate() time.Time {
	return time.Time{}
}

func (p *rpmPackageManager) run(ctx context.Context, args ...string) (string, error) {
	p.logger.Debugf("Running %s", strings.Join(args, " "))
	return p.runner.Run(ctx, args...)
}

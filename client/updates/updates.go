package updates

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/openrport/rport-updates/share/logger"
	"github.com/openrport/rport-updates/share/models"
)

const MetadataTimeFormat = "2006-01-02T15:04:05Z"

// Settings are read once at startup and passed to the reporter.
type Settings struct {
	// Debug logs timing and memory usage of each step.
	Debug bool
	// Workers is the number of goroutines computing update candidates.
	Workers int
}

type Updates struct {
	pkgMgr   Manager
	settings Settings
	logger   *logger.Logger

	// errata memoizes advisory lookups per candidate NEVRA for one report
	errata *cache.Cache
}

type erratum struct {
	id string
	ok bool
}

func New(pkgMgr Manager, settings Settings, l *logger.Logger) *Updates {
	if settings.Workers < 1 {
		settings.Workers = 1
	}
	return &Updates{
		pkgMgr:   pkgMgr,
		settings: settings,
		logger:   l,
	}
}

// Report loads the package index and builds the updates report. Any load
// failure is returned and no partial report is produced.
func (u *Updates) Report(ctx context.Context) (*models.UpdatesReport, error) {
	diag := newDiagnostics(u.settings.Debug, u.logger)
	u.errata = cache.New(cache.NoExpiration, 0)

	u.logger.Infof("Using %s for updates", u.pkgMgr.Name())
	if err := u.pkgMgr.Load(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to load %s package index", u.pkgMgr.Name())
	}
	diag.Step("load")

	repos := u.pkgMgr.EnabledRepos()
	installed := u.pkgMgr.InstalledPackages()

	groups, err := u.candidateGroups(ctx, installed)
	if err != nil {
		return nil, err
	}
	diag.Step("updates")

	releasever := u.pkgMgr.ReleaseVer()
	basearch := u.pkgMgr.BaseArch()
	report := models.NewUpdatesReport(releasever, basearch, repos)
	for nevra, candidates := range groups {
		sorted := SortPackages(candidates)
		if len(sorted) == 0 {
			continue
		}

		entries := make([]models.UpdateEntry, 0, len(sorted))
		for _, pkg := range sorted {
			entry := models.UpdateEntry{
				Package:    pkg.NEVRA(),
				Repository: pkg.Repo,
				Basearch:   basearch,
				Releasever: releasever,
			}
			if id, ok := u.advisory(pkg); ok {
				entry.Erratum = id
			}
			entries = append(entries, entry)
		}
		report.UpdateList[nevra] = models.AvailableUpdates{AvailableUpdates: entries}
	}

	if lastUpdate := u.pkgMgr.LastUpdate(); !lastUpdate.IsZero() {
		report.MetadataTime = lastUpdate.UTC().Format(MetadataTimeFormat)
	}
	diag.Step("report")
	diag.Done(len(installed), len(report.UpdateList))

	return report, nil
}

// candidateGroups maps installed NEVRAs to their update candidates. Groups are
// folded in installed order: when a NEVRA is installed more than once the
// later entry replaces the earlier one, even if it has no candidates.
func (u *Updates) candidateGroups(ctx context.Context, installed []Package) (map[string][]Package, error) {
	keys := make([]string, len(installed))
	results := make([][]Package, len(installed))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.settings.Workers)
	for i, pkg := range installed {
		i, pkg := i, pkg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys[i], results[i] = u.pkgMgr.Updates(pkg)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groups := make(map[string][]Package, len(installed))
	for i, key := range keys {
		if _, ok := groups[key]; ok {
			u.logger.Debugf("%s is installed more than once, keeping the last entry", key)
		}
		groups[key] = results[i]
	}
	return groups, nil
}

func (u *Updates) advisory(pkg Package) (string, bool) {
	key := pkg.NEVRA()
	if cached, found := u.errata.Get(key); found {
		e := cached.(erratum)
		return e.id, e.ok
	}
	id, ok := u.pkgMgr.Advisory(pkg)
	u.errata.Set(key, erratum{id: id, ok: ok}, cache.NoExpiration)
	return id, ok
}

// Run detects the package manager and builds the report.
func Run(ctx context.Context, backend string, opts Options, settings Settings, l *logger.Logger) (*models.UpdatesReport, error) {
	start := time.Now()
	pkgMgr, err := DetectManager(ctx, backend, opts, l)
	if err != nil {
		return nil, err
	}
	l.Debugf("Detected %s in %s", pkgMgr.Name(), time.Since(start))
	return New(pkgMgr, settings, l).Report(ctx)
}

package updates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/openrport/rport-updates/share/logger"
)

var ErrNoPackageManager = errors.New("no supported package manager found")

// Manager is the package index of one package manager backend. Load must be
// called before any query method.
type Manager interface {
	Name() string
	IsAvailable(context.Context) bool
	// Load builds the index from local configuration and cached metadata only.
	Load(context.Context) error

	ReleaseVer() string
	BaseArch() string
	EnabledRepos() []string
	InstalledPackages() []Package
	// Updates returns the NEVRA key of pkg and the available packages with the same
	// name and arch and a newer version.
	Updates(pkg Package) (string, []Package)
	Advisory(pkg Package) (string, bool)
	// LastUpdate is the newest metadata sync time of the enabled repos, zero if unknown.
	LastUpdate() time.Time
}

// prober is implemented by managers that can tell why IsAvailable failed.
type prober interface {
	ProbeError() error
}

type Options struct {
	// Root is the install root, "/" for the running system.
	Root       string
	ReleaseVer string
	BaseArch   string
}

func newPackageManagers(opts Options, l *logger.Logger) []Manager {
	return []Manager{
		NewDnfPackageManager(opts, l),
		NewYumPackageManager(opts, l),
	}
}

// DetectManager returns the first available backend. backend restricts the
// probe to one of "dnf" or "yum"; "" or "auto" probes dnf first, then yum.
func DetectManager(ctx context.Context, backend string, opts Options, l *logger.Logger) (Manager, error) {
	return detectManager(ctx, backend, newPackageManagers(opts, l))
}

func detectManager(ctx context.Context, backend string, managers []Manager) (Manager, error) {
	var result *multierror.Error
	for _, pm := range managers {
		if backend != "" && backend != "auto" && backend != pm.Name() {
			continue
		}
		if pm.IsAvailable(ctx) {
			return pm, nil
		}
		err := fmt.Errorf("%s is not available", pm.Name())
		if pe, ok := pm.(prober); ok && pe.ProbeError() != nil {
			err = fmt.Errorf("%s is not available: %v", pm.Name(), pe.ProbeError())
		}
		result = multierror.Append(result, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: unknown backend %q", ErrNoPackageManager, backend)
	}
	return nil, fmt.Errorf("%w: %v", ErrNoPackageManager, result.ErrorOrNil())
}

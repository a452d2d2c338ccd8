package updates

import (
	"context"
	"io"
	"os"
	"path/filepath"

	rpmdb "github.com/knqyf263/go-rpmdb/pkg"
	"github.com/pkg/errors"

	"github.com/openrport/rport-updates/share/logger"
)

// rpmdbFiles in the order rpm itself prefers them: sqlite (rpm >= 4.16),
// ndb (SUSE), Berkeley DB.
var rpmdbFiles = []string{"rpmdb.sqlite", "Packages.db", "Packages"}

var rpmdbDirs = []string{"var/lib/rpm", "usr/lib/sysimage/rpm"}

type rpmDatabase interface {
	ListPackages() ([]*rpmdb.PackageInfo, error)
}

func openRPMDB(path string) (rpmDatabase, error) {
	return rpmdb.Open(path)
}

// installedSource reads the installed package set from the rpm database under
// root, falling back to `rpm -qa` when no database file can be read.
type installedSource struct {
	root   string
	runner Runner
	open   func(path string) (rpmDatabase, error)
	logger *logger.Logger
}

func newInstalledSource(root string, runner Runner, l *logger.Logger) *installedSource {
	return &installedSource{
		root:   root,
		runner: runner,
		open:   openRPMDB,
		logger: l,
	}
}

func (s *installedSource) Packages(ctx context.Context) ([]Package, error) {
	pkgs, dbErr := s.fromDatabase()
	if dbErr == nil {
		return pkgs, nil
	}
	s.logger.Infof("Reading rpm database failed, falling back to rpm -qa: %v", dbErr)

	pkgs, err := s.fromRPM(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list installed packages (rpm database: %v)", dbErr)
	}
	return pkgs, nil
}

func (s *installedSource) fromDatabase() ([]Package, error) {
	var lastErr error = errors.New("no rpm database found")
	for _, dir := range rpmdbDirs {
		for _, name := range rpmdbFiles {
			path := filepath.Join(s.root, dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}

			pkgs, err := s.readDatabase(path)
			if err != nil {
				lastErr = errors.Wrapf(err, "failed to read %s", path)
				continue
			}
			s.logger.Debugf("Read %d installed packages from %s", len(pkgs), path)
			return pkgs, nil
		}
	}
	return nil, lastErr
}

func (s *installedSource) readDatabase(path string) ([]Package, error) {
	db, err := s.open(path)
	if err != nil {
		return nil, err
	}
	if c, ok := db.(io.Closer); ok {
		defer c.Close()
	}

	infos, err := db.ListPackages()
	if err != nil {
		return nil, err
	}

	pkgs := make([]Package, 0, len(infos))
	for _, info := range infos {
		pkg := Package{
			Name:    info.Name,
			Epoch:   info.EpochNum(),
			Version: info.Version,
			Release: info.Release,
			Arch:    info.Arch,
			Repo:    SystemRepo,
		}
		if !isRealPackage(pkg) {
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func (s *installedSource) fromRPM(ctx context.Context) ([]Package, error) {
	cmd := []string{"rpm", "-qa", "--queryformat", rpmQueryFormat}
	if s.root != "" && s.root != "/" {
		cmd = append(cmd, "--root", s.root)
	}
	output, err := s.runner.Run(ctx, cmd...)
	if err != nil {
		return nil, err
	}

	pkgs, skipped := parseRPMQuery(output)
	if skipped > 0 {
		s.logger.Debugf("Skipped %d unparsable rpm -qa rows", skipped)
	}
	return pkgs, nil
}

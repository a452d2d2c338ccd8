package updates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openrport/rport-updates/share/rpmver"
)

// SystemRepo is the repository id of installed packages.
const SystemRepo = "@System"

type Package struct {
	Name    string
	Epoch   int
	Version string
	Release string
	Arch    string
	Repo    string
}

func (p Package) EVR() rpmver.EVR {
	return rpmver.EVR{Epoch: p.Epoch, Version: p.Version, Release: p.Release}
}

// NEVRA returns name-epoch:version-release.arch, the epoch is always present.
func (p Package) NEVRA() string {
	return fmt.Sprintf("%s-%d:%s-%s.%s", p.Name, p.Epoch, p.Version, p.Release, p.Arch)
}

func (p Package) nameArch() string {
	return p.Name + "." + p.Arch
}

func (p Package) IsInstalled() bool {
	return p.Repo == SystemRepo
}

// ParseNEVRA parses package strings as printed by rpm tooling:
// name-[epoch:]version-release.arch, also accepting the epoch:name-... form.
func ParseNEVRA(s string) (Package, error) {
	var p Package

	dot := strings.LastIndexByte(s, '.')
	if dot <= 0 || dot == len(s)-1 {
		return p, fmt.Errorf("invalid nevra %q: missing arch", s)
	}
	p.Arch = s[dot+1:]
	rest := s[:dot]

	dash := strings.LastIndexByte(rest, '-')
	if dash <= 0 || dash == len(rest)-1 {
		return p, fmt.Errorf("invalid nevra %q: missing release", s)
	}
	p.Release = rest[dash+1:]
	rest = rest[:dash]

	dash = strings.LastIndexByte(rest, '-')
	if dash <= 0 || dash == len(rest)-1 {
		return p, fmt.Errorf("invalid nevra %q: missing version", s)
	}
	p.Name = rest[:dash]
	version := rest[dash+1:]

	if i := strings.IndexByte(version, ':'); i >= 0 {
		epoch, err := rpmver.ParseEpoch(version[:i])
		if err != nil {
			return p, fmt.Errorf("invalid nevra %q: %v", s, err)
		}
		p.Epoch = epoch
		version = version[i+1:]
	} else if i := strings.IndexByte(p.Name, ':'); i >= 0 {
		epoch, err := rpmver.ParseEpoch(p.Name[:i])
		if err != nil {
			return p, fmt.Errorf("invalid nevra %q: %v", s, err)
		}
		p.Epoch = epoch
		p.Name = p.Name[i+1:]
	}
	if version == "" || p.Name == "" {
		return p, fmt.Errorf("invalid nevra %q", s)
	}
	p.Version = version

	return p, nil
}

// ComparePackages orders packages by name, then rpm version, then repository id.
func ComparePackages(a, b Package) int {
	if a.Name != b.Name {
		return strings.Compare(a.Name, b.Name)
	}
	if rc := rpmver.Compare(a.EVR(), b.EVR()); rc != 0 {
		return rc
	}
	return strings.Compare(a.Repo, b.Repo)
}

// SortPackages returns the candidates without installed packages, in
// ComparePackages order. A second installed copy (e.g. kernel) is never
// reported as an available update.
func SortPackages(pkgs []Package) []Package {
	result := make([]Package, 0, len(pkgs))
	for _, p := range pkgs {
		if !p.IsInstalled() {
			result = append(result, p)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return ComparePackages(result[i], result[j]) < 0
	})
	return result
}

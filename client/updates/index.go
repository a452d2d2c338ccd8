package updates

import (
	"sort"

	"github.com/openrport/rport-updates/share/rpmver"
)

// packageIndex is the read-only view built by Load. It is never modified
// afterwards, so queries may run concurrently.
type packageIndex struct {
	installed  []Package
	available  map[string][]Package
	advisories map[string][]string
}

func newPackageIndex(installed, available []Package, advisories map[string][]string) *packageIndex {
	idx := &packageIndex{
		installed:  installed,
		available:  make(map[string][]Package),
		advisories: make(map[string][]string, len(advisories)),
	}
	for _, p := range available {
		if p.IsInstalled() {
			continue
		}
		idx.available[p.nameArch()] = append(idx.available[p.nameArch()], p)
	}
	for nevra, ids := range advisories {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		idx.advisories[nevra] = sorted
	}
	return idx
}

// updates returns the NEVRA key of pkg and all available packages with the
// same name and arch and a strictly newer EVR.
func (idx *packageIndex) updates(pkg Package) (string, []Package) {
	var result []Package
	for _, candidate := range idx.available[pkg.nameArch()] {
		if rpmver.Compare(candidate.EVR(), pkg.EVR()) > 0 {
			result = append(result, candidate)
		}
	}
	return pkg.NEVRA(), result
}

// advisory returns the lexically smallest advisory id naming pkg exactly.
func (idx *packageIndex) advisory(pkg Package) (string, bool) {
	ids := idx.advisories[pkg.NEVRA()]
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

package updates

import (
	"strings"

	"github.com/openrport/rport-updates/share/rpmver"
)

const (
	repoqueryFormat = `%{name}|%{epoch}|%{version}|%{release}|%{arch}|%{repoid}\n`
	rpmQueryFormat  = `%{NAME}|%{EPOCHNUM}|%{VERSION}|%{RELEASE}|%{ARCH}\n`
	// first line is the package version, then one line per provide
	releaseverQueryFormat = `%{VERSION}\n[%{PROVIDENAME}|%{PROVIDEVERSION}\n]`

	releaseverProvide = "system-release(releasever)"
)

// releaseverPackages are queried in order for the release version, the same
// list dnf uses for DISTROVERPKG.
var releaseverPackages = []string{
	releaseverProvide,
	"system-release",
	"distribution-release(releasever)",
	"distribution-release",
	"redhat-release",
	"suse-release",
	"centos-release",
}

// parseRepolist returns repo ids in the order listed. Handles dnf 4/5
// ("repo id  repo name") and yum ("repo id  repo name  status",
// ids like "base/7/x86_64", "!" and "*" markers, trailing "repolist: N").
func parseRepolist(output string) []string {
	result := []string{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" ||
			strings.HasPrefix(line, "repo id") ||
			strings.HasPrefix(line, "repolist:") ||
			strings.HasPrefix(line, "Loaded plugins") ||
			strings.HasPrefix(line, "Loading mirror") {
			continue
		}

		id := strings.Fields(line)[0]
		id = strings.TrimLeft(id, "!*")
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			continue
		}
		result = append(result, id)
	}
	return result
}

// parseRepoquery parses rows produced with repoqueryFormat. Rows that don't
// match the format are counted in skipped.
func parseRepoquery(output string) (pkgs []Package, skipped int) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 6 {
			skipped++
			continue
		}
		epoch, err := rpmver.ParseEpoch(parts[1])
		if err != nil || parts[0] == "" || parts[2] == "" {
			skipped++
			continue
		}

		pkgs = append(pkgs, Package{
			Name:    parts[0],
			Epoch:   epoch,
			Version: parts[2],
			Release: parts[3],
			Arch:    parts[4],
			Repo:    parts[5],
		})
	}
	return pkgs, skipped
}

// parseRPMQuery parses `rpm -qa` rows produced with rpmQueryFormat.
func parseRPMQuery(output string) (pkgs []Package, skipped int) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) != 5 {
			skipped++
			continue
		}
		epoch, err := rpmver.ParseEpoch(parts[1])
		if err != nil {
			skipped++
			continue
		}
		pkg := Package{
			Name:    parts[0],
			Epoch:   epoch,
			Version: parts[2],
			Release: parts[3],
			Arch:    parts[4],
			Repo:    SystemRepo,
		}
		if !isRealPackage(pkg) {
			continue
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, skipped
}

// parseAdvisories maps package NEVRAs to advisory ids from
// `dnf updateinfo list --all`, `yum updateinfo list all` or
// `dnf5 advisory list --all` output. The first token is the advisory id,
// the package is the first later token that parses as a NEVRA.
func parseAdvisories(output string) map[string][]string {
	result := make(map[string][]string)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		// dnf 4 and yum mark installed advisories with a leading "i"
		if len(fields) > 0 && fields[0] == "i" {
			fields = fields[1:]
		}
		if len(fields) < 2 {
			continue
		}

		id := fields[0]
		for _, field := range fields[1:] {
			pkg, err := ParseNEVRA(field)
			if err != nil {
				continue
			}
			key := pkg.NEVRA()
			if !containsString(result[key], id) {
				result[key] = append(result[key], id)
			}
			break
		}
	}
	return result
}

// parseReleasever picks the version of a "(releasever)" provide if there is
// one, otherwise the version of the providing package.
func parseReleasever(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		return ""
	}
	pkgVersion := strings.TrimSpace(lines[0])
	for _, line := range lines[1:] {
		name, version, found := strings.Cut(strings.TrimSpace(line), "|")
		if found && strings.HasSuffix(name, "(releasever)") && version != "" {
			return version
		}
	}
	return pkgVersion
}

// isRealPackage filters out rpm database entries that aren't installable
// packages, like imported gpg keys.
func isRealPackage(p Package) bool {
	return p.Name != "" && p.Name != "gpg-pubkey" && p.Arch != "" && p.Arch != "(none)"
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

package updates

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"golang.org/x/sys/cpu"
)

// basearchMap maps machine arches to the base arch used in repository urls,
// matching the table rpm/dnf use for $basearch.
var basearchMap = map[string]string{}

func init() {
	for basearch, arches := range map[string][]string{
		"aarch64":     {"aarch64"},
		"alpha":       {"alpha", "alphaev4", "alphaev45", "alphaev5", "alphaev56", "alphaev6", "alphaev67", "alphaev68", "alphaev7", "alphapca56"},
		"arm":         {"armv5tejl", "armv5tel", "armv5tl", "armv6l", "armv7l", "armv8l"},
		"armhfp":      {"armv6hl", "armv7hl", "armv7hnl", "armv8hl"},
		"i386":        {"i386", "athlon", "geode", "i486", "i586", "i686"},
		"ia64":        {"ia64"},
		"loongarch64": {"loongarch64"},
		"mips":        {"mips"},
		"mipsel":      {"mipsel"},
		"mips64":      {"mips64"},
		"mips64el":    {"mips64el"},
		"noarch":      {"noarch"},
		"ppc":         {"ppc"},
		"ppc64":       {"ppc64", "ppc64iseries", "ppc64p7", "ppc64pseries"},
		"ppc64le":     {"ppc64le"},
		"riscv32":     {"riscv32"},
		"riscv64":     {"riscv64"},
		"riscv128":    {"riscv128"},
		"s390":        {"s390"},
		"s390x":       {"s390x"},
		"sh3":         {"sh3"},
		"sh4":         {"sh4", "sh4a"},
		"sparc":       {"sparc", "sparc64", "sparc64v", "sparcv8", "sparcv9", "sparcv9v"},
		"x86_64":      {"x86_64", "amd64", "ia32e"},
	} {
		for _, arch := range arches {
			basearchMap[arch] = basearch
		}
	}
}

// Basearch returns the base arch for arch, or arch itself if it is unknown.
func Basearch(arch string) string {
	if basearch, ok := basearchMap[arch]; ok {
		return basearch
	}
	return arch
}

// detectArch returns the machine arch as dnf sees it: uname reports armv7l
// on hard-float hosts too, so the float ABI is taken from the cpu features.
func detectArch() (string, error) {
	machine, err := host.KernelArch()
	if err != nil {
		return "", err
	}
	return armFloatArch(machine, cpu.ARM.HasVFP, cpu.ARM.HasNEON), nil
}

func armFloatArch(machine string, vfp, neon bool) string {
	if !vfp || !strings.HasPrefix(machine, "armv") || !strings.HasSuffix(machine, "l") ||
		strings.HasSuffix(machine, "hl") || strings.HasSuffix(machine, "hnl") {
		return machine
	}
	base := strings.TrimSuffix(machine, "l")
	if neon && strings.HasPrefix(machine, "armv7") {
		return base + "hnl"
	}
	return base + "hl"
}

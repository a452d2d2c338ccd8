package rpmver

import (
	"fmt"
	"strconv"
	"strings"
)

// EVR is the epoch, version and release triple of an rpm package.
type EVR struct {
	Epoch   int
	Version string
	Release string
}

// Parse parses "[epoch:]version[-release]". A missing epoch is 0.
func Parse(s string) (EVR, error) {
	var evr EVR
	if i := strings.IndexByte(s, ':'); i >= 0 {
		epoch, err := ParseEpoch(s[:i])
		if err != nil {
			return EVR{}, err
		}
		evr.Epoch = epoch
		s = s[i+1:]
	}
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		evr.Release = s[i+1:]
		s = s[:i]
	}
	if s == "" {
		return EVR{}, fmt.Errorf("invalid evr: empty version")
	}
	evr.Version = s
	return evr, nil
}

// ParseEpoch converts an epoch as printed by rpm, dnf or yum into a number.
// Unset epochs ("", "(none)") are 0.
func ParseEpoch(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "(none)" {
		return 0, nil
	}
	epoch, err := strconv.Atoi(s)
	if err != nil || epoch < 0 {
		return 0, fmt.Errorf("invalid epoch %q", s)
	}
	return epoch, nil
}

func (e EVR) String() string {
	s := strconv.Itoa(e.Epoch) + ":" + e.Version
	if e.Release != "" {
		s += "-" + e.Release
	}
	return s
}

// Compare returns -1, 0 or 1 depending on whether a is older, equal or newer than b.
func Compare(a, b EVR) int {
	switch {
	case a.Epoch < b.Epoch:
		return -1
	case a.Epoch > b.Epoch:
		return 1
	}
	if rc := LabelCompare(a.Version, b.Version); rc != 0 {
		return rc
	}
	return LabelCompare(a.Release, b.Release)
}

// LabelCompare compares two version or release labels the way rpmvercmp does.
// "~" sorts before anything, "^" sorts after the end of the label but before
// any further segment.
func LabelCompare(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isSegmentStart(a[i]) {
			i++
		}
		for j < len(b) && !isSegmentStart(b[j]) {
			j++
		}

		if at(a, i) == '~' || at(b, j) == '~' {
			if at(a, i) != '~' {
				return 1
			}
			if at(b, j) != '~' {
				return -1
			}
			i++
			j++
			continue
		}

		if at(a, i) == '^' || at(b, j) == '^' {
			if i == len(a) {
				return -1
			}
			if j == len(b) {
				return 1
			}
			if at(a, i) != '^' {
				return 1
			}
			if at(b, j) != '^' {
				return -1
			}
			i++
			j++
			continue
		}

		if i == len(a) || j == len(b) {
			break
		}

		si, sj := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
		}

		segA, segB := a[si:i], b[sj:j]
		// numeric segments are newer than alpha ones
		if segB == "" {
			if numeric {
				return 1
			}
			return -1
		}

		if numeric {
			segA = strings.TrimLeft(segA, "0")
			segB = strings.TrimLeft(segB, "0")
			if len(segA) != len(segB) {
				if len(segA) > len(segB) {
					return 1
				}
				return -1
			}
		}
		if rc := strings.Compare(segA, segB); rc != 0 {
			return rc
		}
	}

	switch {
	case i >= len(a) && j >= len(b):
		return 0
	case i >= len(a):
		return -1
	default:
		return 1
	}
}

func at(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func isSegmentStart(c byte) bool {
	return isDigit(c) || isAlpha(c) || c == '~' || c == '^'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

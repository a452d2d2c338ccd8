package updates

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

type repomd struct {
	XMLName  xml.Name `xml:"repomd"`
	Revision string   `xml:"revision"`
	Data     []struct {
		Type      string `xml:"type,attr"`
		Timestamp string `xml:"timestamp"`
	} `xml:"data"`
}

// repomdTimestamp returns the newest record timestamp of a repomd.xml, the
// same value dnf reports as the repository's last update.
func repomdTimestamp(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}

	var md repomd
	if err := xml.Unmarshal(data, &md); err != nil {
		return time.Time{}, err
	}

	var newest int64
	for _, d := range md.Data {
		ts, err := parseUnixTimestamp(d.Timestamp)
		if err != nil {
			continue
		}
		if ts > newest {
			newest = ts
		}
	}
	if newest == 0 {
		return time.Time{}, nil
	}
	return time.Unix(newest, 0).UTC(), nil
}

// timestamps are integers, some generators write them as floats
func parseUnixTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseInt(s, 10, 64)
}

// repoCacheDirs returns the metadata cache dirs of repoID below cacheDir.
// dnf names them <repoid>-<16 hex digits>.
func repoCacheDirs(cacheDir, repoID string) []string {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		return nil
	}

	re := regexp.MustCompile(`^` + regexp.QuoteMeta(repoID) + `-[0-9a-f]{16}$`)
	var result []string
	for _, e := range entries {
		if e.IsDir() && re.MatchString(e.Name()) {
			result = append(result, filepath.Join(cacheDir, e.Name()))
		}
	}
	return result
}

// lastMetadataUpdate returns the newest repomd timestamp over all repos, zero if none is cached.
func lastMetadataUpdate(cacheDir string, repos []string) time.Time {
	var newest time.Time
	for _, repo := range repos {
		for _, dir := range repoCacheDirs(cacheDir, repo) {
			ts, err := repomdTimestamp(filepath.Join(dir, "repodata", "repomd.xml"))
			if err != nil {
				continue
			}
			if ts.After(newest) {
				newest = ts
			}
		}
	}
	return newest
}

// dnfCacheDir reads cachedir from the [main] section of dnf.conf, expanding
// $basearch and $releasever. Returns defaultDir when unset or unreadable.
func dnfCacheDir(confPath, defaultDir, basearch, releasever string) string {
	cfg, err := ini.LoadSources(ini.LoadOptions{Loose: true, Insensitive: true}, confPath)
	if err != nil {
		return defaultDir
	}
	dir := strings.TrimSpace(cfg.Section("main").Key("cachedir").String())
	if dir == "" {
		return defaultDir
	}
	return strings.NewReplacer("$basearch", basearch, "$releasever", releasever).Replace(dir)
}

// osReleaseVersionID reads VERSION_ID from an os-release file.
func osReleaseVersionID(path string) string {
	cfg, err := ini.LoadSources(ini.LoadOptions{Loose: true, UnescapeValueDoubleQuotes: true}, path)
	if err != nil {
		return ""
	}
	return strings.Trim(cfg.Section("").Key("VERSION_ID").String(), `"'`)
}

package updates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dnf4Version = `4.14.0
  Installed: dnf-0:4.14.0-1.fc34.noarch at Wed 01 Mar 2023 09:00:00 AM GMT
  Built    : Fedora Project at Mon 05 Dec 2022 10:00:00 AM GMT
`
	dnf5Version = `dnf5 version 5.2.6.2
dnf5 plugin API version 2.0
libdnf5 version 5.2.6.2
libdnf5 plugin API version 2.0
`
	dnfRepolist = `repo id                              repo name
fedora                               Fedora 34 - x86_64
updates                              Fedora 34 - x86_64 - Updates
`
	dnfRepoquery = `bash|0|5.1.8|1.fc34|x86_64|fedora
bash|0|5.1.16|1.fc34|x86_64|updates
bash|0|5.2.0|1.fc34|x86_64|updates-testing
bash|0|5.1.8|1.fc34|x86_64|@System
`
)

func TestDnfPackageManagerIsAvailable(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		Name                  string
		Output                string
		Error                 error
		ExpectedResult        bool
		ExpectedAdvisoriesCmd string
	}{
		{
			Name:                  "dnf 4",
			Output:                dnf4Version,
			ExpectedResult:        true,
			ExpectedAdvisoriesCmd: "dnf -C -q updateinfo list --all",
		},
		{
			Name:                  "dnf 5",
			Output:                dnf5Version,
			ExpectedResult:        true,
			ExpectedAdvisoriesCmd: "dnf -C -q advisory list --all",
		},
		{
			Name:           "Not installed",
			Error:          errors.New("exec: \"dnf\": executable file not found in $PATH"),
			ExpectedResult: false,
		},
		{
			Name:           "Unexpected version output",
			Output:         "dnf\n",
			ExpectedResult: false,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			mr := newMockRunner()
			pm := NewDnfPackageManager(Options{}, testLogger())
			pm.setRunner(mr)
			mr.Register([]string{"dnf", "--version"}, tc.Output, tc.Error)

			assert.Equal(t, tc.ExpectedResult, pm.IsAvailable(ctx))
			if !tc.ExpectedResult {
				assert.Error(t, pm.ProbeError())
				return
			}
			assert.NoError(t, pm.ProbeError())
			assert.Equal(t, tc.ExpectedAdvisoriesCmd, strings.Join(pm.advisoriesCmd, " "))
		})
	}
}

func TestDnfPackageManagerCommands(t *testing.T) {
	pm := NewDnfPackageManager(Options{Root: "/mnt/sysimage", ReleaseVer: "34"}, testLogger())

	assert.Equal(t, "dnf -C -q --installroot=/mnt/sysimage --releasever=34 repolist --enabled", strings.Join(pm.repolistCmd, " "))
	assert.Equal(t, "dnf -C -q --installroot=/mnt/sysimage --releasever=34 repoquery --available --queryformat "+repoqueryFormat, strings.Join(pm.repoqueryCmd, " "))
	assert.Equal(t, "dnf -C -q --installroot=/mnt/sysimage --releasever=34 updateinfo list --all", strings.Join(pm.advisoriesCmd, " "))
}

func TestDnfPackageManagerLoad(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeRepomd(t, root+dnf4CacheDir, "updates-0123456789abcdef", "1677664800")

	mr := newMockRunner()
	pm := NewDnfPackageManager(Options{Root: root, ReleaseVer: "34", BaseArch: "x86_64"}, testLogger())
	pm.setRunner(mr)
	mr.Register([]string{"dnf", "--version"}, dnf4Version, nil)
	require.True(t, pm.IsAvailable(ctx))

	mr.Register(pm.repolistCmd, dnfRepolist, nil)
	mr.Register(pm.repoqueryCmd, dnfRepoquery, nil)
	mr.Register(pm.advisoriesCmd, "FEDORA-2023-abcd bugfix bash-5.1.16-1.fc34.x86_64\n", nil)
	mr.Register([]string{"rpm", "-qa", "--queryformat", rpmQueryFormat, "--root", root}, "bash|0|5.1.8|1.fc34|x86_64\n", nil)

	require.NoError(t, pm.Load(ctx))

	assert.Equal(t, "34", pm.ReleaseVer())
	assert.Equal(t, "x86_64", pm.BaseArch())
	assert.Equal(t, []string{"fedora", "updates"}, pm.EnabledRepos())
	require.Len(t, pm.InstalledPackages(), 1)

	bash := pm.InstalledPackages()[0]
	key, candidates := pm.Updates(bash)
	assert.Equal(t, "bash-0:5.1.8-1.fc34.x86_64", key)
	require.Len(t, candidates, 1)
	assert.Equal(t, "bash-0:5.1.16-1.fc34.x86_64", candidates[0].NEVRA())
	assert.Equal(t, "updates", candidates[0].Repo)

	id, ok := pm.Advisory(candidates[0])
	assert.True(t, ok)
	assert.Equal(t, "FEDORA-2023-abcd", id)

	assert.Equal(t, time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC), pm.LastUpdate())
}

func TestDnfPackageManagerLoadErrors(t *testing.T) {
	ctx := context.Background()
	testCases := []struct {
		Name           string
		RepolistError  error
		RepoqueryError error
		AdvisoryError  error
		ExpectedError  string
	}{
		{
			Name:          "Repolist fails",
			RepolistError: errors.New("dnf: exit status 1: Cache-only enabled but no cache for 'fedora'"),
			ExpectedError: "failed to list enabled repositories: dnf: exit status 1: Cache-only enabled but no cache for 'fedora'",
		},
		{
			Name:           "Repoquery fails",
			RepoqueryError: errors.New("dnf: exit status 1"),
			ExpectedError:  "failed to query available packages: dnf: exit status 1",
		},
		{
			Name:          "Advisories fail",
			AdvisoryError: errors.New("dnf: exit status 1"),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			mr := newMockRunner()
			pm := NewDnfPackageManager(Options{Root: root, ReleaseVer: "34", BaseArch: "x86_64"}, testLogger())
			pm.setRunner(mr)
			mr.Register(pm.repolistCmd, dnfRepolist, tc.RepolistError)
			mr.Register(pm.repoqueryCmd, dnfRepoquery, tc.RepoqueryError)
			mr.Register(pm.advisoriesCmd, "", tc.AdvisoryError)
			mr.Register([]string{"rpm", "-qa", "--queryformat", rpmQueryFormat, "--root", root}, "bash|0|5.1.8|1.fc34|x86_64\n", nil)

			err := pm.Load(ctx)
			if tc.ExpectedError != "" {
				assert.EqualError(t, err, tc.ExpectedError)
				return
			}
			require.NoError(t, err)
			_, candidates := pm.Updates(pm.InstalledPackages()[0])
			require.Len(t, candidates, 1)
			_, ok := pm.Advisory(candidates[0])
			assert.False(t, ok)
			assert.True(t, pm.LastUpdate().IsZero())
		})
	}
}

func TestDnfPackageManagerNoRepos(t *testing.T) {
	root := t.TempDir()
	mr := newMockRunner()
	pm := NewDnfPackageManager(Options{Root: root, ReleaseVer: "34", BaseArch: "x86_64"}, testLogger())
	pm.setRunner(mr)
	mr.Register(pm.repolistCmd, "", nil)
	mr.Register([]string{"rpm", "-qa", "--queryformat", rpmQueryFormat, "--root", root}, "bash|0|5.1.8|1.fc34|x86_64\n", nil)

	require.NoError(t, pm.Load(context.Background()))

	assert.Equal(t, []string{}, pm.EnabledRepos())
	assert.False(t, mr.Called(pm.repoqueryCmd...))
	assert.False(t, mr.Called(pm.advisoriesCmd...))
	_, candidates := pm.Updates(pm.InstalledPackages()[0])
	assert.Empty(t, candidates)
}

func TestDnfPackageManagerDetectsReleasever(t *testing.T) {
	root := t.TempDir()
	mr := newMockRunner()
	pm := NewDnfPackageManager(Options{Root: root, BaseArch: "x86_64"}, testLogger())
	pm.setRunner(mr)
	mr.Register([]string{"rpm", "-q", "--whatprovides", releaseverProvide, "--queryformat", releaseverQueryFormat, "--root", root},
		"34\nfedora-release-common|34-37\nsystem-release(releasever)|34\n", nil)
	mr.Register(pm.repolistCmd, "", nil)

	require.NoError(t, pm.Load(context.Background()))
	assert.Equal(t, "34", pm.ReleaseVer())
}

func TestDnfPackageManagerReleaseverFallbacks(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "os-release"), []byte("VERSION_ID=\"8.7\"\n"), 0644))

	whatprovides := func(what string) []string {
		return []string{"rpm", "-q", "--whatprovides", what, "--queryformat", releaseverQueryFormat, "--root", root}
	}
	mr := newMockRunner()
	pm := NewDnfPackageManager(Options{Root: root, BaseArch: "x86_64"}, testLogger())
	pm.setRunner(mr)
	mr.Register(whatprovides(releaseverProvide), "no package provides system-release(releasever)\n", errors.New("exit status 1"))
	mr.Register(whatprovides("system-release"), "8\nrocky-release|8.7-1.2.el8\nsystem-release|8.7-1.2.el8\n", nil)
	mr.Register(pm.repolistCmd, "", nil)

	require.NoError(t, pm.Load(context.Background()))

	assert.Equal(t, "8", pm.ReleaseVer())
	assert.True(t, mr.Called(whatprovides(releaseverProvide)...))
	assert.False(t, mr.Called(whatprovides("redhat-release")...))
}

func TestParseDnfVersion(t *testing.T) {
	v, err := parseDnfVersion(dnf4Version)
	require.NoError(t, err)
	assert.Equal(t, "4.14.0", v.String())

	v, err = parseDnfVersion(dnf5Version)
	require.NoError(t, err)
	assert.Equal(t, 5, v.Segments()[0])

	_, err = parseDnfVersion("")
	assert.EqualError(t, err, `no dnf version in ""`)
}

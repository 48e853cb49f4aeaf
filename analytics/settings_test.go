package analytics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "instantanalytics.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadSettings_MissingFileYieldsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	want := DefaultSettings()
	assert.Equal(t, want.SendAnalyticsData, s.SendAnalyticsData)
	assert.Equal(t, want.SendAnalyticsInDevMode, s.SendAnalyticsInDevMode)
	assert.Equal(t, want.FilterBotUserAgents, s.FilterBotUserAgents)
	assert.Equal(t, want.ServerExcludes, s.ServerExcludes)
	assert.Empty(t, s.GoogleAnalyticsTracking)
	assert.Len(t, s.compiled["REMOTE_ADDR"], 1)
}

func TestLoadSettings_OverridesDefaults(t *testing.T) {
	path := writeSettings(t, `
googleAnalyticsTracking: UA-99-1
sendAnalyticsInDevMode: false
adminExclude: true
groupExcludes: [staff, editors]
`)
	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "UA-99-1", s.GoogleAnalyticsTracking)
	assert.True(t, s.SendAnalyticsData)
	assert.False(t, s.SendAnalyticsInDevMode)
	assert.True(t, s.FilterBotUserAgents)
	assert.True(t, s.AdminExclude)
	assert.Equal(t, []string{"staff", "editors"}, s.GroupExcludes)
	assert.Contains(t, s.ServerExcludes, "REMOTE_ADDR")
}

func TestLoadSettings_ServerExcludesReplaceDefaults(t *testing.T) {
	path := writeSettings(t, `
serverExcludes:
  HTTP_X_FORWARDED_FOR:
    - '/^10\./'
`)
	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"HTTP_X_FORWARDED_FOR": {`/^10\./`}}, s.ServerExcludes)
}

func TestLoadSettings_RejectsInvalidPattern(t *testing.T) {
	path := writeSettings(t, `
serverExcludes:
  REMOTE_ADDR: ['/([/']
`)
	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestValidate_ReportsEveryInvalidPatternAndKeepsTheRest(t *testing.T) {
	s := DefaultSettings()
	s.ServerExcludes = map[string][]string{
		"REMOTE_ADDR":     {"/([/", `^203\.`},
		"HTTP_USER_AGENT": {"(unclosed"},
	}

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serverExcludes[REMOTE_ADDR]")
	assert.Contains(t, err.Error(), "serverExcludes[HTTP_USER_AGENT]")

	require.Len(t, s.compiled["REMOTE_ADDR"], 1)
	assert.True(t, s.compiled["REMOTE_ADDR"][0].MatchString("203.0.113.9"))
	assert.Empty(t, s.compiled["HTTP_USER_AGENT"])
}

func TestCompilePattern(t *testing.T) {
	re, err := compilePattern(`/^googlebot/i`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("GoogleBot/2.1"))

	re, err = compilePattern(`^bare$`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("bare"))

	re, err = compilePattern(`/a\/b/`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("a/b"))
}

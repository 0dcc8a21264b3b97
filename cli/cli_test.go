package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRepairCommand(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "temettu.json")
	clean := filepath.Join(dir, "clean.json")
	require.NoError(t, os.WriteFile(broken, []byte(`[{"t_sirketadi":"ÅžiÅŸecam"}]`), 0o644))
	require.NoError(t, os.WriteFile(clean, []byte(`[{"t_sirketadi":"Şişecam"}]`), 0o644))

	out, err := run(t, "repair", broken, clean)
	require.NoError(t, err)
	assert.Contains(t, out, "repaired\t"+broken)
	assert.Contains(t, out, "ok\t"+clean)

	data, err := os.ReadFile(broken)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Şişecam")
}

func TestRepairCommandNeedsFiles(t *testing.T) {
	_, err := run(t, "repair")
	assert.Error(t, err)
}

func TestScrapeRejectsUnknownJob(t *testing.T) {
	_, err := run(t, "scrape", "weather")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weather")
}

func TestSourcesCommand(t *testing.T) {
	t.Setenv("BIST_REDIS_ADDR", "")
	out, err := run(t, "sources", "--out", t.TempDir())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "capital\thttps://halkarz.com/sermaye-artirimi/", lines[0])
	assert.True(t, strings.HasPrefix(lines[6], "halkarz\t"))
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "sources", "--config", "does-not-exist.yml")
	assert.Error(t, err)
}

// chdir changes the working directory for the test and restores it on
// cleanup (equivalent of testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

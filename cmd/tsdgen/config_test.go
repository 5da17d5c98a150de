package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/tsdgen/pkg/config"
)

// parsedGenerateCmd returns a generate command with flags parsed, run from
// an empty temporary directory.
func parsedGenerateCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := newGenerateCmd()
	cmd.Flags().String("config", "", "")
	require.NoError(t, cmd.ParseFlags(flags))
	return cmd
}

func writeProjectConfig(t *testing.T, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(config.ProjectConfigPath), 0755))
	require.NoError(t, os.WriteFile(config.ProjectConfigPath, []byte(body), 0644))
}

func TestResolveConfig_Defaults(t *testing.T) {
	cmd := parsedGenerateCmd(t)

	cfg, err := resolveConfig(cmd, []string{"dump.json"})
	require.NoError(t, err)
	assert.Equal(t, "documented", cfg.GenerationStrategy)
	assert.Equal(t, config.DefaultDestination, cfg.Destination)
	assert.Equal(t, []string{"dump.json"}, cfg.Inputs)
	assert.False(t, cfg.Check)
}

func TestResolveConfig_ProjectFile(t *testing.T) {
	cmd := parsedGenerateCmd(t)
	writeProjectConfig(t, `
generationStrategy: exported
destination: dist
moduleName: widgets
inputs:
  - dumps/**/*.json
`)

	cfg, err := resolveConfig(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "exported", cfg.GenerationStrategy)
	assert.Equal(t, "dist", cfg.Destination)
	assert.Equal(t, "widgets", cfg.ModuleName)
	assert.Equal(t, []string{"dumps/**/*.json"}, cfg.Inputs)
}

func TestResolveConfig_FlagsOverrideProjectFile(t *testing.T) {
	cmd := parsedGenerateCmd(t, "-d", "console", "--out-file", "api", "--check")
	writeProjectConfig(t, "destination: dist\ninputs: [a.json]\n")

	cfg, err := resolveConfig(cmd, []string{"b.json"})
	require.NoError(t, err)
	assert.Equal(t, "console", cfg.Destination)
	assert.Equal(t, "api", cfg.OutFile)
	assert.True(t, cfg.Check)
	assert.Equal(t, []string{"b.json"}, cfg.Inputs, "positional inputs replace configured ones")
}

func TestResolveConfig_ExplicitConfigFile(t *testing.T) {
	cmd := parsedGenerateCmd(t)
	path := filepath.Join(t.TempDir(), "tsdgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outFile: lib\n"), 0644))
	require.NoError(t, cmd.Flags().Set("config", path))

	cfg, err := resolveConfig(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "lib", cfg.OutFile)
}

func TestResolveConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		project string
		want    string
	}{
		{name: "unknown strategy flag", flags: []string{"-s", "public"}, want: "invalid configuration"},
		{name: "out file with path", flags: []string{"-o", "a/b"}, want: "invalid configuration"},
		{name: "bad project file", project: "generationStrategy: everything\n", want: config.ProjectConfigPath},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := parsedGenerateCmd(t, tc.flags...)
			if tc.project != "" {
				writeProjectConfig(t, tc.project)
			}
			_, err := resolveConfig(cmd, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestResolveConfig_MissingExplicitConfig(t *testing.T) {
	cmd := parsedGenerateCmd(t)
	require.NoError(t, cmd.Flags().Set("config", "nope.yaml"))

	_, err := resolveConfig(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

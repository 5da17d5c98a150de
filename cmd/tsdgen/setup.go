package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// serverName is the key tsdgen registers under in agent MCP configs.
const serverName = "tsdgen"

// agent describes how to find one MCP-capable agent and register
// `tsdgen serve` with it.
type agent struct {
	ID          string
	DisplayName string

	// Binary is set for agents configured through their own CLI
	// (`<binary> mcp add`).
	Binary string

	// For agents configured through a JSON file.
	DirMarkers  []string
	ConfigPath  func() string
	ServersKey  string
	ExtraFields map[string]string
}

func (a agent) usesCLI() bool { return a.Binary != "" }

// detectedAgent is an agent found on this machine.
type detectedAgent struct {
	agent
	ConfigFile   string
	AlreadySetup bool
}

// Replaceable for testing.
var (
	lookPathFunc = exec.LookPath
	runAgentCLI  = func(binary string, args []string, stdout, stderr io.Writer) error {
		c := exec.Command(binary, args...)
		c.Stdout, c.Stderr = stdout, stderr
		return c.Run()
	}
)

var agents = []agent{
	{ID: "claude_code", DisplayName: "Claude Code", Binary: "claude"},
	{ID: "openai_codex", DisplayName: "OpenAI Codex", Binary: "codex"},
	{
		ID: "vscode", DisplayName: "VS Code",
		DirMarkers:  []string{".vscode"},
		ConfigPath:  func() string { return filepath.Join(".vscode", "mcp.json") },
		ServersKey:  "servers",
		ExtraFields: map[string]string{"type": "stdio"},
	},
	{
		ID: "cursor", DisplayName: "Cursor",
		DirMarkers: []string{".cursor"},
		ConfigPath: func() string { return filepath.Join(".cursor", "mcp.json") },
		ServersKey: "mcpServers",
	},
	{
		ID: "claude_desktop", DisplayName: "Claude Desktop",
		ConfigPath: desktopConfigPath,
		ServersKey: "mcpServers",
	},
}

func desktopConfigPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Claude", "claude_desktop_config.json")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Claude", "claude_desktop_config.json")
	default:
		return filepath.Join(home, ".config", "Claude", "claude_desktop_config.json")
	}
}

// detectAgents returns the known agents present on this machine.
func detectAgents() []detectedAgent {
	var found []detectedAgent
	for _, a := range agents {
		if a.usesCLI() {
			if _, err := lookPathFunc(a.Binary); err == nil {
				found = append(found, detectedAgent{agent: a, AlreadySetup: hasServerEntry(".mcp.json", "mcpServers")})
			}
			continue
		}

		present := false
		for _, marker := range a.DirMarkers {
			if _, err := statFunc(marker); err == nil {
				present = true
				break
			}
		}
		path := a.ConfigPath()
		if !present && len(a.DirMarkers) == 0 {
			_, err := statFunc(filepath.Dir(path))
			present = err == nil
		}
		if present {
			found = append(found, detectedAgent{agent: a, ConfigFile: path, AlreadySetup: hasServerEntry(path, a.ServersKey)})
		}
	}
	return found
}

// hasServerEntry reports whether the JSON file at path registers tsdgen
// under serversKey.
func hasServerEntry(path, serversKey string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	servers, _ := doc[serversKey].(map[string]any)
	_, ok := servers[serverName]
	return ok
}

// serverEntry is the MCP server config object for tsdgen.
func serverEntry(extra map[string]string) map[string]any {
	entry := map[string]any{
		"command": "tsdgen",
		"args":    []any{"serve"},
	}
	for k, v := range extra {
		entry[k] = v
	}
	return entry
}

// mergeServerEntry adds tsdgen under serversKey of the JSON document
// existing (which may be empty) and returns the new document. It returns
// nil, nil when tsdgen is already registered.
func mergeServerEntry(existing []byte, serversKey string, extra map[string]string) ([]byte, error) {
	doc := make(map[string]any)
	if len(strings.TrimSpace(string(existing))) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, errors.Wrap(err, "invalid JSON")
		}
	}

	servers, ok := doc[serversKey].(map[string]any)
	if !ok {
		servers = make(map[string]any)
	}
	if _, exists := servers[serverName]; exists {
		return nil, nil
	}
	servers[serverName] = serverEntry(extra)
	doc[serversKey] = servers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// writeServerEntry registers tsdgen in the agent's config file.
func writeServerEntry(a detectedAgent) error {
	if err := os.MkdirAll(filepath.Dir(a.ConfigFile), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	existing, err := os.ReadFile(a.ConfigFile)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "read %s", a.ConfigFile)
	}
	merged, err := mergeServerEntry(existing, a.ServersKey, a.ExtraFields)
	if err != nil || merged == nil {
		return err
	}
	return os.WriteFile(a.ConfigFile, merged, 0644)
}

// --- prompts ---

// promptYesNo asks question and reads Y/n. Empty input and EOF mean yes.
func promptYesNo(in *bufio.Scanner, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s ", question)
	if !in.Scan() {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(in.Text())) {
	case "", "y", "yes":
		return true
	}
	return false
}

// promptScope returns "project", "user" or "" for skip.
func promptScope(in *bufio.Scanner, w io.Writer, name string) string {
	fmt.Fprintf(w, "\n%s: register tsdgen?\n", name)
	fmt.Fprintln(w, "  [1] Project scope")
	fmt.Fprintln(w, "  [2] User scope")
	fmt.Fprintln(w, "  [3] Skip")
	fmt.Fprint(w, "  > ")
	if !in.Scan() {
		return "project"
	}
	switch strings.TrimSpace(in.Text()) {
	case "", "1":
		return "project"
	case "2":
		return "user"
	}
	return ""
}

// --- command ---

func newSetupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the tsdgen MCP server with detected AI agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			auto, _ := cmd.Flags().GetBool("auto")
			executeSetup(cmd.InOrStdin(), cmd.OutOrStdout(), auto)
			return nil
		},
	}
	cmd.Flags().Bool("auto", false, "configure every detected agent without prompting")
	return cmd
}

// executeSetup detects agents and registers tsdgen with each one the user
// accepts.
func executeSetup(r io.Reader, w io.Writer, auto bool) {
	detected := detectAgents()
	if len(detected) == 0 {
		fmt.Fprintln(w, "No supported AI agents detected.")
		return
	}

	fmt.Fprintln(w, "Detected AI agents:")
	for _, d := range detected {
		note := ""
		if d.AlreadySetup {
			note = color.HiBlackString(" (already configured)")
		}
		fmt.Fprintf(w, "  * %s%s\n", d.DisplayName, note)
	}
	fmt.Fprintln(w)

	in := bufio.NewScanner(r)
	if !auto && !promptYesNo(in, w, "Configure agents? [Y/n]") {
		return
	}

	for _, d := range detected {
		if d.AlreadySetup {
			fmt.Fprintf(w, "\n%s: already configured, skipping\n", d.DisplayName)
			continue
		}
		configureAgent(in, w, d, auto)
	}
}

func configureAgent(in *bufio.Scanner, w io.Writer, d detectedAgent, auto bool) {
	var err error
	where := d.ConfigFile

	if d.usesCLI() {
		scope := "project"
		if !auto {
			if scope = promptScope(in, w, d.DisplayName); scope == "" {
				fmt.Fprintln(w, "  skipped")
				return
			}
		}
		where = "scope: " + scope
		args := []string{"mcp", "add", "--scope", scope, serverName, "--", "tsdgen", "serve"}
		err = runAgentCLI(d.Binary, args, w, w)
	} else {
		if !auto && !promptYesNo(in, w, fmt.Sprintf("\n%s: add to %s? [Y/n]", d.DisplayName, d.ConfigFile)) {
			fmt.Fprintln(w, "  skipped")
			return
		}
		err = writeServerEntry(d)
	}

	if err != nil {
		fmt.Fprintf(w, "  %s %s: %v\n", color.RedString("!"), d.DisplayName, err)
		return
	}
	fmt.Fprintf(w, "  %s %s configured (%s)\n", color.GreenString("+"), d.DisplayName, where)
}

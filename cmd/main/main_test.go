package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/hcp/pkg/content"
	"github.com/CTAG07/hcp/pkg/envelope"
	"github.com/google/go-cmp/cmp"
)

const homeYAML = `content:
  - Text: welcome
  - !If [beta, !Ctx banner, {Text: stable}]
  - Form:
      - - Field: [user, User, username]
        - Field: [pw, Password, password]
      - https://example.org/login
extra:
  title: Home
`

// setupWorkspace writes a config pointing at a fresh database and returns the
// workspace directory and the --config argument pair.
func setupWorkspace(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()

	config := DefaultConfig()
	config.Server.DatabasePath = filepath.Join(dir, "hcp.db")
	config.Server.LogLevel = "error"
	configPath := filepath.Join(dir, "hcpctl.json")
	if err := SaveConfig(configPath, config); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}
	return dir, []string{"--config", configPath}
}

func writeTestFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// runCLI executes the command line and returns its standard output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestLoadConfigWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hcpctl.json")

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), config); diff != "" {
		t.Errorf("LoadConfig() mismatch (-want +got):\n%s", diff)
	}
	if _, err = os.Stat(path); err != nil {
		t.Errorf("default config file was not written: %v", err)
	}

	// A partial file keeps the defaults of the missing section.
	if err = os.WriteFile(path, []byte(`{"server_config": {"log_level": "debug"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Server.LogLevel != "debug" || config.Templates.MaxDepth != 64 || config.Templates.DefaultContext != "default" {
		t.Errorf("unexpected merged config: %+v %+v", config.Server, config.Templates)
	}

	// The template section owns the default context.
	if err = os.WriteFile(path, []byte(`{"server_config": {"log_level": "info"}, "template_config": {"default_context": "site"}}`), 0644); err != nil {
		t.Fatal(err)
	}
	config, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.Templates.DefaultContext != "site" {
		t.Errorf("template_config.default_context = %q, want site", config.Templates.DefaultContext)
	}
}

func TestMimeForPath(t *testing.T) {
	tests := map[string]string{
		"a.yaml":    envelope.FileYAMLMimeType,
		"b.YML":     envelope.FileYAMLMimeType,
		"c.json":    envelope.FileJSONMimeType,
		"d.hcf":     envelope.FileJSONMimeType,
		"e.cbor":    envelope.ResponseMimeType,
		"no-suffix": envelope.FileJSONMimeType,
	}
	for path, want := range tests {
		if got := mimeForPath(path); got != want {
			t.Errorf("mimeForPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLintCommand(t *testing.T) {
	dir, cfg := setupWorkspace(t)

	clean := writeTestFile(t, dir, "clean.yaml", homeYAML)
	if _, err := runCLI(t, append(cfg, "lint", "--allow-directives", clean)...); err != nil {
		t.Errorf("lint of a clean file failed: %v", err)
	}

	out, err := runCLI(t, append(cfg, "lint", clean)...)
	if err == nil || !strings.Contains(out, string(content.RuleDirective)) {
		t.Errorf("expected directive issues, got err=%v out=%q", err, out)
	}

	insecure := writeTestFile(t, dir, "insecure.json",
		`{"content": [{"Form": [[{"Field": ["pw", "Password", "password"]}], "http://example.org/login"]}]}`)
	out, err = runCLI(t, append(cfg, "lint", insecure)...)
	if err == nil {
		t.Fatal("expected lint to fail on an insecure form")
	}
	if !strings.Contains(out, string(content.RuleInsecureForm)) {
		t.Errorf("output should mention %s, got %q", content.RuleInsecureForm, out)
	}
}

func TestResolveCommand(t *testing.T) {
	dir, cfg := setupWorkspace(t)
	doc := writeTestFile(t, dir, "home.yaml", homeYAML)
	ctxFile := writeTestFile(t, dir, "ctx.json", `{"banner": {"Text": "beta banner"}}`)

	out, err := runCLI(t, append(cfg, "resolve", doc, "--flag", "beta", "--context", ctxFile, "--out", "json")...)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	got, err := envelope.DecodeFile(strings.NewReader(out), envelope.FileJSONMimeType)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if !content.Equal(got.Content[1], content.Text{Text: "beta banner"}) {
		t.Errorf("If/Ctx not resolved, got %#v", got.Content[1])
	}
	if got.Extra["title"] != "Home" {
		t.Errorf("extra not carried through, got %v", got.Extra)
	}

	if _, err = runCLI(t, append(cfg, "resolve", doc, "--out", "xml")...); err == nil {
		t.Error("expected an error for an unknown output format")
	}
}

func TestStoreWorkflow(t *testing.T) {
	dir, cfg := setupWorkspace(t)
	doc := writeTestFile(t, dir, "home.yaml", homeYAML)
	banner := writeTestFile(t, dir, "banner.yaml", "!Ctx user\n")
	user := writeTestFile(t, dir, "user.json", `{"Text": "alice"}`)

	steps := [][]string{
		{"import", "home", doc},
		{"context", "set", "default", "banner", banner},
		{"context", "set", "default", "user", user},
	}
	for _, step := range steps {
		if _, err := runCLI(t, append(cfg, step...)...); err != nil {
			t.Fatalf("%v failed: %v", step, err)
		}
	}

	out, err := runCLI(t, append(cfg, "list")...)
	if err != nil || !strings.Contains(out, "home") || !strings.Contains(out, envelope.FileYAMLMimeType) {
		t.Errorf("list: err=%v out=%q", err, out)
	}

	out, err = runCLI(t, append(cfg, "render", "home", "--feature", "beta", "--out", "json",
		"--identity", "session=123e4567-e89b-12d3-a456-426614174000")...)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	resp, err := envelope.DecodeResponse(strings.NewReader(out), "application/json")
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if !content.Equal(resp.Content[1], content.Text{Text: "alice"}) {
		t.Errorf("render resolved %#v, want alice", resp.Content[1])
	}

	exported := filepath.Join(dir, "out.json")
	if _, err = runCLI(t, append(cfg, "export", "home", "--out", exported)...); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatalf("exported file missing: %v", err)
	}
	if _, err = envelope.DecodeFile(bytes.NewReader(data), envelope.FileJSONMimeType); err != nil {
		t.Errorf("exported file is not JSON HCF: %v", err)
	}

	out, err = runCLI(t, append(cfg, "stats")...)
	if err != nil || !strings.Contains(out, "1 document(s), 1 context(s), 2 context entries") {
		t.Errorf("stats: err=%v out=%q", err, out)
	}

	if _, err = runCLI(t, append(cfg, "rm", "home")...); err != nil {
		t.Fatalf("rm failed: %v", err)
	}
	if _, err = runCLI(t, append(cfg, "render", "home")...); err == nil {
		t.Error("expected render of a removed document to fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version", "--config", filepath.Join(t.TempDir(), "unused.json"))
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "hcpctl "+Version) {
		t.Errorf("unexpected version output %q", out)
	}
}

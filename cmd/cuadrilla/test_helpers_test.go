package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cuadrilla/internal/attendance"
	"cuadrilla/internal/config"
	"cuadrilla/internal/daemon"
	"cuadrilla/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *attendance.Store
	site       *attendance.Site
	server     *httptest.Server
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Setenv("CUADRILLA_API_TOKEN", "")
	t.Setenv("CUADRILLA_SERVER_URL", "")

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	site := testsupport.MustCreateSite(t, store, "Obra Norte")

	d, err := daemon.New(cfg, store, nil, "")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg, srv.URL, site.ID)

	return &cliTestEnv{cfg: cfg, store: store, site: site, server: srv, configPath: configPath}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config, serverURL string, siteID int64) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\n\n[client]\nserver_url = %q\nsite_id = %d\nflush_delay_ms = 10\nretry_delay_ms = 50\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		serverURL,
		siteID,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string, stdin io.Reader) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func itoa(v int64) string {
	return fmt.Sprintf("%d", v)
}

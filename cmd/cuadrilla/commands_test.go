package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cuadrilla/internal/api"
)

func TestParseCommandOffline(t *testing.T) {
	out, _, err := runCLI(t, []string{"parse", "id", "1", "2", "3", "4", "5", "present"}, "", nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	requireContains(t, out, "12345 present")

	out, _, err = runCLI(t, []string{"parse", "--json"}, "", strings.NewReader("rut 12.345.678-k presente\n\nid 9 9 9 9 9 absent\n"))
	if err != nil {
		t.Fatalf("parse --json: %v", err)
	}
	var results []parseOutput
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if len(results[0].Pairs) != 1 || results[0].Pairs[0].DocumentID != "12345678" || !results[0].Fallback {
		t.Fatalf("unexpected fallback result: %#v", results[0])
	}
	if len(results[1].Pairs) != 1 || results[1].Pairs[0].DocumentID != "99999" {
		t.Fatalf("unexpected second result: %#v", results[1])
	}
}

func TestDictateSubmitsOnEOF(t *testing.T) {
	env := setupCLITestEnv(t)

	input := strings.Join([]string{
		"id 1 2 3 4 5 present id 9 9 9 9 9 absent",
		"/pending",
		"hola que tal",
		"",
	}, "\n")
	out, _, err := runCLI(t, []string{"dictate"}, env.configPath, strings.NewReader(input))
	if err != nil {
		t.Fatalf("dictate: %v\n%s", err, out)
	}
	requireContains(t, out, "queued: 12345 present")
	requireContains(t, out, "queued: 99999 absent")
	requireContains(t, out, "unrecognized: hola que tal")
	requireContains(t, out, "done: 2 pair(s) recognized")

	summary, err := env.store.Summary(context.Background(), env.site.ID, "")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Present != 1 || summary.Absent != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestDictateSiteSwitchDiscardsPending(t *testing.T) {
	env := setupCLITestEnv(t)
	other, err := env.store.CreateSite(context.Background(), "Obra Sur")
	if err != nil {
		t.Fatalf("CreateSite: %v", err)
	}

	input := "id 1 2 3 4 5 present\n/site " + itoa(other.ID) + "\nid 5 5 5 5 5 absent\n"
	out, _, err := runCLI(t, []string{"dictate"}, env.configPath, strings.NewReader(input))
	if err != nil {
		t.Fatalf("dictate: %v\n%s", err, out)
	}
	requireContains(t, out, "discarded")

	entries, err := env.store.Day(context.Background(), other.ID, "")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if len(entries) != 1 || entries[0].DocumentID != "55555" {
		t.Fatalf("unexpected entries at new site: %#v", entries)
	}
}

func TestMarkTodayAndSummary(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"mark", "12.345.678-k", "present", "--name", "ana rojas"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("mark: %v", err)
	}
	requireContains(t, out, "Marked Ana Rojas (12345678K) present")

	if _, _, err := runCLI(t, []string{"mark", "12345", "late"}, env.configPath, nil); err == nil {
		t.Fatal("expected invalid status error")
	}

	out, _, err = runCLI(t, []string{"today"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	requireContains(t, out, "Ana Rojas")
	requireContains(t, out, "12345678K")

	out, _, err = runCLI(t, []string{"summary", "--json"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var summary api.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Present != 1 || summary.ActiveWorkers != 1 {
		t.Fatalf("unexpected summary: %#v", summary)
	}
}

func TestExportWritesFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"mark", "12345", "absent", "--date", "2026-03-02"}, env.configPath, nil); err != nil {
		t.Fatalf("mark: %v", err)
	}

	target := filepath.Join(t.TempDir(), "out", "sheet.csv")
	out, _, err := runCLI(t, []string{"export", "--date", "2026-03-02", "-o", target}, env.configPath, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, "Wrote "+target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	requireContains(t, string(data), "12345")
	requireContains(t, string(data), "absent")
}

func TestSitesAndWorkers(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sites", "add", "Obra", "Sur"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("sites add: %v", err)
	}
	requireContains(t, out, "Created site")

	out, _, err = runCLI(t, []string{"sites"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("sites: %v", err)
	}
	requireContains(t, out, "Obra Norte")
	requireContains(t, out, "Obra Sur")

	out, _, err = runCLI(t, []string{"workers", "add", "55555", "luis", "mora"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("workers add: %v", err)
	}
	requireContains(t, out, "Registered worker")

	roster := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(roster, []byte("Documento,Nombre\n55555,Luis Mora\n7.654.321-0,pedro perez\nxx,bad\n"), 0o644); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	out, _, err = runCLI(t, []string{"workers", "import", roster}, env.configPath, nil)
	if err != nil {
		t.Fatalf("workers import: %v", err)
	}
	requireContains(t, out, "Imported 3 row(s): 1 new, 0 reactivated, 1 already registered, 1 failed")

	out, _, err = runCLI(t, []string{"workers", "list", "--json"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("workers list: %v", err)
	}
	var workers []api.Worker
	if err := json.Unmarshal([]byte(out), &workers); err != nil {
		t.Fatalf("decode workers: %v", err)
	}
	if len(workers) != 2 {
		t.Fatalf("expected 2 workers, got %#v", workers)
	}

	out, _, err = runCLI(t, []string{"workers", "deactivate", itoa(workers[0].ID)}, env.configPath, nil)
	if err != nil {
		t.Fatalf("workers deactivate: %v", err)
	}
	requireContains(t, out, "Deactivated worker")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Daemon:")
	requireContains(t, out, "integrity ok")

	env.server.Close()
	out, _, err = runCLI(t, []string{"status"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("status with server down: %v", err)
	}
	requireContains(t, out, "not reachable")
}

func TestConfigInitShowAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "site_id = "+itoa(env.site.ID))

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "", nil)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "", nil); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestMissingSiteIsReported(t *testing.T) {
	env := setupCLITestEnv(t)
	writeTestConfig(t, env.configPath, env.cfg, env.server.URL, 0)

	_, _, err := runCLI(t, []string{"today"}, env.configPath, nil)
	if err == nil || !strings.Contains(err.Error(), "no site selected") {
		t.Fatalf("expected missing site error, got %v", err)
	}
}

func TestSitesRenameAndDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	id := itoa(env.site.ID)

	out, _, err := runCLI(t, []string{"sites", "rename", id, "Obra", "Centro"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("sites rename: %v", err)
	}
	requireContains(t, out, "Renamed site "+id+" to Obra Centro")

	if _, _, err := runCLI(t, []string{"sites", "add", "obra", "centro"}, env.configPath, nil); err == nil {
		t.Fatal("expected duplicate site name to fail")
	}

	if _, _, err := runCLI(t, []string{"sites", "delete", id}, env.configPath, nil); err == nil {
		t.Fatal("expected delete without --yes to fail")
	}
	out, _, err = runCLI(t, []string{"sites", "delete", id, "--yes"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("sites delete: %v", err)
	}
	requireContains(t, out, "Deleted site "+id)
}

func TestActivitiesCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"activities", "add", "poda", "de", "parras", "--date", "2026-03-02"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("activities add: %v", err)
	}
	requireContains(t, out, "for 2026-03-02: poda de parras")

	out, _, err = runCLI(t, []string{"activities", "--date", "2026-03-02", "--json"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("activities list: %v", err)
	}
	var activities []api.Activity
	if err := json.Unmarshal([]byte(out), &activities); err != nil {
		t.Fatalf("decode activities: %v", err)
	}
	if len(activities) != 1 {
		t.Fatalf("expected one activity, got %#v", activities)
	}
	activityID := itoa(activities[0].ID)

	out, _, err = runCLI(t, []string{"activities", "edit", activityID, "--description", "riego"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("activities edit: %v", err)
	}
	requireContains(t, out, "riego")

	if _, _, err := runCLI(t, []string{"activities", "edit", activityID}, env.configPath, nil); err == nil {
		t.Fatal("expected edit without flags to fail")
	}

	out, _, err = runCLI(t, []string{"activities", "delete", activityID}, env.configPath, nil)
	if err != nil {
		t.Fatalf("activities delete: %v", err)
	}
	requireContains(t, out, "Deleted activity "+activityID)

	out, _, err = runCLI(t, []string{"activities", "--date", "2026-03-02"}, env.configPath, nil)
	if err != nil {
		t.Fatalf("activities list: %v", err)
	}
	requireContains(t, out, "No activities logged")
}

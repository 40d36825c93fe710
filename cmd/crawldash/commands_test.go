package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/crawldash/internal/backend"
	"github.com/kalambet/crawldash/internal/backend/backendtest"
	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

// useFakeBackend points every command at an in-process backend. The token
// store is shared so a login survives into later commands.
func useFakeBackend(t *testing.T) *backendtest.Server {
	t.Helper()
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")
	tokens := session.NewMemoryStore()

	orig := newApp
	newApp = func() (*app, error) {
		ctrl, err := session.New(session.Deps{
			API:      fake.Client(),
			Store:    tokens,
			Notifier: cliNotifier{},
		})
		if err != nil {
			return nil, err
		}
		return &app{ctrl: ctrl}, nil
	}
	t.Cleanup(func() { newApp = orig })
	return fake
}

// run executes the root command and returns stdout and status output.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	origStderr := stderr
	stderr = &errOut
	noColor = true
	jsonOutput = false
	t.Cleanup(func() {
		stderr = origStderr
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func login(t *testing.T) {
	t.Helper()
	if _, _, err := run(t, "login", "--email", "a@b.com", "--password", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func TestColorize_NoColor(t *testing.T) {
	noColor = true
	defer func() { noColor = false }()

	if got := colorize(colorRed, "hello"); got != "hello" {
		t.Errorf("colorize with noColor = %q, want %q", got, "hello")
	}
}

func TestColorize_WithColor(t *testing.T) {
	noColor = false
	got := colorize(colorGreen, "ok")
	if got != colorGreen+"ok"+colorReset {
		t.Errorf("colorize = %q", got)
	}
}

func TestParseIDs(t *testing.T) {
	tests := []struct {
		in      string
		want    []int64
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "1", want: []int64{1}},
		{in: "1, 2,,3", want: []int64{1, 2, 3}},
		{in: "1,x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseIDs(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseIDs(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseIDs(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestLogin_MirrorsCollections(t *testing.T) {
	fake := useFakeBackend(t)
	fake.SetSites(model.Site{ID: 1, Name: "Site A", URL: "http://a.com", SiteType: model.SiteNews, IsActive: true})

	_, status, err := run(t, "login", "--email", "a@b.com", "--password", "x")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(status, session.MsgLoginSucceeded) {
		t.Errorf("status output missing %q:\n%s", session.MsgLoginSucceeded, status)
	}
	if !strings.Contains(status, "sites: 1") {
		t.Errorf("status output missing site count:\n%s", status)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	fake := useFakeBackend(t)

	_, _, err := run(t, "login", "--email", "a@b.com", "--password", "wrong")
	if err == nil {
		t.Fatal("expected error for bad credentials")
	}
	if n := fake.Count(http.MethodGet, backend.SitesPath); n != 0 {
		t.Errorf("fetched sites %d times after a failed login", n)
	}
}

func TestSitesList_JSON(t *testing.T) {
	fake := useFakeBackend(t)
	want := []model.Site{
		{ID: 1, Name: "Site A", URL: "http://a.com", SiteType: model.SiteNews, IsActive: true},
		{ID: 2, Name: "Site B", URL: "http://b.com", SiteType: model.SiteBlog},
	}
	fake.SetSites(want...)
	login(t)

	out, _, err := run(t, "sites", "list", "--json")
	if err != nil {
		t.Fatalf("sites list: %v", err)
	}
	var got []model.Site
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, out)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sites mismatch (-want +got):\n%s", diff)
	}
}

func TestSitesList_Table(t *testing.T) {
	fake := useFakeBackend(t)
	fake.SetSites(model.Site{ID: 7, Name: "Site A", URL: "http://a.com", SiteType: model.SiteNews, IsActive: true})
	login(t)

	out, _, err := run(t, "sites", "list")
	if err != nil {
		t.Fatalf("sites list: %v", err)
	}
	for _, want := range []string{"Site A", "http://a.com", "news"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestList_WithoutSession(t *testing.T) {
	fake := useFakeBackend(t)

	_, _, err := run(t, "keywords", "list")
	if err == nil {
		t.Fatal("expected error without a session")
	}
	if !strings.Contains(err.Error(), "crawldash login") {
		t.Errorf("error = %v, want a login hint", err)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Errorf("sent %d requests without a session", n)
	}
}

func TestTasksAdd_InvalidFrequencySendsNothing(t *testing.T) {
	fake := useFakeBackend(t)
	login(t)
	fake.Reset()

	_, _, err := run(t, "tasks", "add", "--name", "Daily", "--frequency", "P2D", "--sites", "1", "--keywords", "2")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(fake.Requests()); n != 0 {
		t.Errorf("sent %d requests for an invalid task", n)
	}
}

func TestTasksAdd_RefetchesTasks(t *testing.T) {
	fake := useFakeBackend(t)
	login(t)
	fake.Reset()

	_, status, err := run(t, "tasks", "add", "--name", "Daily", "--frequency", "P1D", "--sites", "1", "--keywords", "2,3")
	if err != nil {
		t.Fatalf("tasks add: %v", err)
	}
	if n := fake.Count(http.MethodPost, backend.TasksPath); n != 1 {
		t.Errorf("POST tasks count = %d, want 1", n)
	}
	if n := fake.Count(http.MethodGet, backend.TasksPath); n != 1 {
		t.Errorf("GET tasks count = %d, want 1", n)
	}
	if n := fake.Count(http.MethodGet, backend.SitesPath); n != 0 {
		t.Errorf("GET sites count = %d, want 0", n)
	}
	if !strings.Contains(status, "task added") {
		t.Errorf("status output missing confirmation:\n%s", status)
	}
}

func TestTasksAdd_BadIDs(t *testing.T) {
	useFakeBackend(t)
	login(t)

	_, _, err := run(t, "tasks", "add", "--name", "Daily", "--frequency", "P1D", "--sites", "one", "--keywords", "2")
	if err == nil || !strings.Contains(err.Error(), "--sites") {
		t.Errorf("error = %v, want a --sites error", err)
	}
}

func TestLogout_ForgetsSession(t *testing.T) {
	useFakeBackend(t)
	login(t)

	if _, _, err := run(t, "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := run(t, "sites", "list"); err == nil {
		t.Error("sites list succeeded after logout")
	}
}

func TestConfigSet_RequiresTwoArgs(t *testing.T) {
	_, _, err := run(t, "config", "set", "api.timeout")
	if err == nil {
		t.Fatal("expected error for missing value")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "crawldash version "+version) {
		t.Errorf("version output = %q", out)
	}
}

func TestPIDFile(t *testing.T) {
	path := pidFilePath(filepath.Join(t.TempDir(), "data"))
	if err := writePIDFile(path); err != nil {
		t.Fatalf("writePIDFile: %v", err)
	}
	pid, err := readPIDFile(path)
	if err != nil {
		t.Fatalf("readPIDFile: %v", err)
	}
	if pid <= 0 {
		t.Errorf("pid = %d", pid)
	}
	removePIDFile(path)
	if _, err := readPIDFile(path); err == nil {
		t.Error("PID file still readable after remove")
	}
}

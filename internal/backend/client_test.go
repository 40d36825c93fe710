package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kalambet/crawldash/internal/backend"
	"github.com/kalambet/crawldash/internal/backend/backendtest"
	"github.com/kalambet/crawldash/internal/model"
)

var ctx = context.Background()

func TestLogin(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")

	token, err := fake.Client().Login(ctx, model.Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "T" {
		t.Errorf("token = %q, want T", token)
	}

	reqs := fake.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(reqs[0].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["username"] != "a@b.com" || body["password"] != "x" {
		t.Errorf("login body = %v", body)
	}
	if reqs[0].Auth != "" {
		t.Errorf("login sent Authorization %q", reqs[0].Auth)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")

	_, err := fake.Client().Login(ctx, model.Credentials{Email: "a@b.com", Password: "wrong"})
	var authErr *backend.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", authErr.Status)
	}
	if authErr.Message != "Incorrect email or password" {
		t.Errorf("message = %q", authErr.Message)
	}
}

func TestLogin_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":""}`))
	}))
	defer srv.Close()

	_, err := backend.New(srv.URL, time.Second).Login(ctx, model.Credentials{Email: "a", Password: "b"})
	var authErr *backend.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	fake := backendtest.New(t)
	client := fake.Client()
	creds := model.Credentials{Email: "new@b.com", Password: "pw"}

	if err := client.Register(ctx, creds); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	err := client.Register(ctx, creds)
	var authErr *backend.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.Op != "register" {
		t.Errorf("op = %q, want register", authErr.Op)
	}

	var body map[string]string
	json.Unmarshal([]byte(fake.Requests()[0].Body), &body)
	if body["email"] != "new@b.com" {
		t.Errorf("register body = %v", body)
	}
}

func TestListSites(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")
	want := []model.Site{{ID: 1, Name: "Site A", URL: "http://a.com", SiteType: model.SiteNews, IsActive: true}}
	fake.SetSites(want...)

	client := fake.Client()
	token, err := client.Login(ctx, model.Credentials{Email: "a@b.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	got, err := client.ListSites(ctx, token)
	if err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("sites mismatch (-want +got):\n%s", diff)
	}

	reqs := fake.Requests()
	last := reqs[len(reqs)-1]
	if last.Path != backend.SitesPath || last.Auth != "Bearer T" {
		t.Errorf("request = %+v, want GET /sites/ with Bearer T", last)
	}
}

func TestListEmptyCollection(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")
	client := fake.Client()
	client.Login(ctx, model.Credentials{Email: "a@b.com", Password: "x"})

	got, err := client.ListKeywords(ctx, "T")
	if err != nil {
		t.Fatalf("ListKeywords: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %#v, want empty non-nil slice", got)
	}
}

func TestList_NoToken(t *testing.T) {
	fake := backendtest.New(t)
	_, err := fake.Client().ListTasks(ctx, "")
	if !errors.Is(err, backend.ErrNoToken) {
		t.Fatalf("error = %v, want ErrNoToken", err)
	}
	if n := len(fake.Requests()); n != 0 {
		t.Errorf("sent %d requests without a token", n)
	}
}

func TestList_Unauthorized(t *testing.T) {
	fake := backendtest.New(t)
	_, err := fake.Client().ListResults(ctx, "stale")
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if !apiErr.Unauthorized() {
		t.Errorf("status = %d, want 401", apiErr.Status)
	}
}

func TestList_DecodeErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantIndex int
	}{
		{name: "not json", body: `<html>oops</html>`, wantIndex: -1},
		{name: "wrong shape", body: `{"items":[]}`, wantIndex: -1},
		{name: "missing id", body: `[{"id":1,"name":"A","url":"http://a.com","site_type":"news"},{"name":"B","url":"http://b.com"}]`, wantIndex: 1},
		{name: "wrong field type", body: `[{"id":"one","name":"A"}]`, wantIndex: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := backend.New(srv.URL, time.Second).ListSites(ctx, "T")
			var decErr *backend.DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}
			if decErr.Index != tt.wantIndex {
				t.Errorf("index = %d, want %d", decErr.Index, tt.wantIndex)
			}
		})
	}
}

func TestList_UnknownValuesPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case backend.SitesPath:
			w.Write([]byte(`[{"id":1,"name":"A","url":"http://a.com","site_type":"news"},{"id":2,"name":"B","url":"http://b.com","site_type":"ecommerce"}]`))
		case backend.KeywordsPath:
			w.Write([]byte(`[{"id":3,"keyword":"go","category":"sports","priority":42}]`))
		case backend.ResultsPath:
			w.Write([]byte(`[{"id":4,"title":"","url":"http://a.com/1","keyword_matched":"go","crawled_at":"2024-05-01T08:30:00"}]`))
		}
	}))
	defer srv.Close()
	client := backend.New(srv.URL, time.Second)

	sites, err := client.ListSites(ctx, "T")
	if err != nil {
		t.Fatalf("ListSites: %v", err)
	}
	if len(sites) != 2 || sites[1].SiteType != "ecommerce" {
		t.Errorf("sites = %+v, want the unknown site type kept", sites)
	}

	keywords, err := client.ListKeywords(ctx, "T")
	if err != nil {
		t.Fatalf("ListKeywords: %v", err)
	}
	if len(keywords) != 1 || keywords[0].Category != "sports" || keywords[0].Priority != 42 {
		t.Errorf("keywords = %+v", keywords)
	}

	results, err := client.ListResults(ctx, "T")
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(results) != 1 || results[0].Title != "" {
		t.Errorf("results = %+v", results)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := backend.New(srv.URL, time.Second).ListSites(ctx, "T")
	var netErr *backend.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
}

func TestCreateTask(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")
	client := fake.Client()
	client.Login(ctx, model.Credentials{Email: "a@b.com", Password: "x"})

	task := model.NewTask{Name: "Daily", Frequency: model.Daily, SiteIDs: []int64{1}, KeywordIDs: []int64{2}}
	if err := client.CreateTask(ctx, "T", task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	reqs := fake.Requests()
	last := reqs[len(reqs)-1]
	if last.Method != http.MethodPost || last.Path != backend.TasksPath {
		t.Fatalf("request = %s %s", last.Method, last.Path)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(last.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	want := map[string]any{
		"name":        "Daily",
		"description": "",
		"frequency":   "P1D",
		"site_ids":    []any{float64(1)},
		"keyword_ids": []any{float64(2)},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreate_APIError(t *testing.T) {
	fake := backendtest.New(t)
	fake.AddUser("a@b.com", "x", "T")
	client := fake.Client()
	client.Login(ctx, model.Credentials{Email: "a@b.com", Password: "x"})
	fake.Fail(http.MethodPost, backend.SitesPath, http.StatusInternalServerError)

	err := client.CreateSite(ctx, "T", model.NewSite{Name: "A", URL: "http://a.com"})
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d", apiErr.Status)
	}
}

func TestRequestIDHeader(t *testing.T) {
	seen := make(map[string]bool)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.Header.Get("X-Request-ID")] = true
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := backend.New(srv.URL, time.Second)
	client.ListSites(ctx, "T")
	client.ListSites(ctx, "T")
	if len(seen) != 2 || seen[""] {
		t.Errorf("request ids = %v, want two distinct non-empty ids", seen)
	}
}

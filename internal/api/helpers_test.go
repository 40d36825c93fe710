package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/crawldash/internal/backend/backendtest"
	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/session"
)

var ctx = context.Background()

var testCreds = model.Credentials{Email: "a@b.com", Password: "x"}

func newTestController(t *testing.T) (*session.Controller, *backendtest.Server) {
	t.Helper()
	fake := backendtest.New(t)
	fake.AddUser(testCreds.Email, testCreds.Password, "T")
	c, err := session.New(session.Deps{
		API:      fake.Client(),
		Store:    session.NewMemoryStore(),
		Notifier: &session.Recorder{},
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return c, fake
}

func loggedIn(t *testing.T, c *session.Controller) {
	t.Helper()
	if _, err := c.Authenticate(ctx, testCreds); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func doReq(h http.Handler, method, url, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

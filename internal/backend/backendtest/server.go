// Package backendtest provides an in-process fake of the crawl monitoring
// API for tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/crawldash/internal/backend"
	"github.com/kalambet/crawldash/internal/model"
)

// Prefix is the path the fake API is mounted under.
const Prefix = "/api/v1"

// Request is one request seen by the fake.
type Request struct {
	Method string
	Path   string
	Auth   string
	Body   string
}

// Server is a fake backend with users, tokens and four collections.
type Server struct {
	URL string

	mu       sync.Mutex
	users    map[string]user
	tokens   map[string]string
	sites    []model.Site
	keywords []model.Keyword
	tasks    []model.Task
	results  []model.Result
	nextID   int64
	failures map[string]int
	requests []Request
}

type user struct {
	password string
	token    string
}

// New starts a fake backend that is closed when the test ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[string]user),
		tokens:   make(map[string]string),
		failures: make(map[string]int),
		nextID:   100,
	}
	srv := httptest.NewServer(s.routes())
	t.Cleanup(srv.Close)
	s.URL = srv.URL + Prefix
	return s
}

// Client returns a backend.Client pointed at the fake.
func (s *Server) Client() *backend.Client {
	return backend.New(s.URL, 5*time.Second)
}

// AddUser registers an account whose login yields token.
func (s *Server) AddUser(email, password, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{password: password, token: token}
}

// SetSites replaces the server-side site collection.
func (s *Server) SetSites(sites ...model.Site) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sites = append([]model.Site(nil), sites...)
}

func (s *Server) SetKeywords(keywords ...model.Keyword) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords = append([]model.Keyword(nil), keywords...)
}

func (s *Server) SetTasks(tasks ...model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]model.Task(nil), tasks...)
}

func (s *Server) SetResults(results ...model.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append([]model.Result(nil), results...)
}

// Fail makes every request matching "METHOD /path/" answer with status.
// A status of 0 clears the failure.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(s.failures, key)
		return
	}
	s.failures[key] = status
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset forgets recorded requests.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route(Prefix, func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/register", s.handleRegister)
		r.Group(func(r chi.Router) {
			r.Use(s.bearer)
			r.Get("/sites/", listHandler(s, func() any { return s.sites }))
			r.Post("/sites/", s.handleCreateSite)
			r.Get("/keywords/", listHandler(s, func() any { return s.keywords }))
			r.Post("/keywords/", s.handleCreateKeyword)
			r.Get("/tasks/", listHandler(s, func() any { return s.tasks }))
			r.Post("/tasks/", s.handleCreateTask)
			r.Get("/results/", listHandler(s, func() any { return s.results }))
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		path := strings.TrimPrefix(r.URL.Path, Prefix)
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   path,
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		status, failing := s.failures[r.Method+" "+path]
		s.mu.Unlock()

		if failing {
			writeDetail(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) bearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		_, known := s.tokens[token]
		s.mu.Unlock()
		if !found || !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	u, ok := s.users[req.Username]
	if ok && u.password == req.Password {
		s.tokens[u.token] = req.Username
	}
	s.mu.Unlock()
	if !ok || u.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": u.token, "token_type": "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[req.Email]; exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}
	s.users[req.Email] = user{password: req.Password, token: "token-" + req.Email}
	writeJSON(w, http.StatusOK, map[string]any{"email": req.Email, "is_active": true})
}

func listHandler(s *Server, get func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		data, err := json.Marshal(get())
		s.mu.Unlock()
		if err != nil {
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if string(data) == "null" {
			data = []byte("[]")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req model.NewSite
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	site := model.Site{ID: s.nextID, Name: req.Name, URL: req.URL, SiteType: req.SiteType, IsActive: true}
	if site.SiteType == "" {
		site.SiteType = model.SiteGeneral
	}
	if req.IsActive != nil {
		site.IsActive = *req.IsActive
	}
	s.sites = append(s.sites, site)
	writeJSON(w, http.StatusOK, site)
}

func (s *Server) handleCreateKeyword(w http.ResponseWriter, r *http.Request) {
	var req model.NewKeyword
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	kw := model.Keyword{ID: s.nextID, Keyword: req.Keyword, Category: req.Category, Priority: req.Priority, IsActive: true}
	if kw.Category == "" {
		kw.Category = model.CategoryGeneral
	}
	if kw.Priority == 0 {
		kw.Priority = model.MinPriority
	}
	s.keywords = append(s.keywords, kw)
	writeJSON(w, http.StatusOK, kw)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req model.NewTask
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	task := model.Task{
		ID:          s.nextID,
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		SiteIDs:     req.SiteIDs,
		KeywordIDs:  req.KeywordIDs,
		IsActive:    true,
	}
	s.tasks = append(s.tasks, task)
	writeJSON(w, http.StatusOK, task)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

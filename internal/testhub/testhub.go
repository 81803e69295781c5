// Package testhub is an in-memory stand-in for the hub REST backend. Tests
// of the service, MCP and CLI layers point a real api.Client at it and
// inspect what was posted.
package testhub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Credentials accepted by the fake.
const (
	Username = "ann"
	Password = "pw"
	Token    = "good"
	UserID   = "u1"
)

// Post is one recorded mutation body.
type Post map[string]any

// Hub serves the auth, spaces and content endpoints from fixed data.
type Hub struct {
	mu         sync.Mutex
	subscribed map[string]bool
	comments   []Post
	reactions  []Post
	logouts    int
	failDetail bool
	requests   []string
}

// Start launches the fake on an httptest server. Cleanup is registered on
// tb automatically.
func Start(tb testing.TB) (*Hub, *httptest.Server) {
	tb.Helper()
	h := &Hub{subscribed: map[string]bool{"go": true}}
	srv := httptest.NewServer(h)
	tb.Cleanup(srv.Close)
	return h, srv
}

// FailDetails makes every detail fetch answer 500.
func (h *Hub) FailDetails(fail bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failDetail = fail
}

// Comments returns the recorded comment bodies.
func (h *Hub) Comments() []Post {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Post(nil), h.comments...)
}

// Reactions returns the recorded reaction bodies.
func (h *Hub) Reactions() []Post {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Post(nil), h.reactions...)
}

// Logouts returns how many times /auth/logout was called.
func (h *Hub) Logouts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.logouts
}

// Subscribed reports whether the user subscribes to id.
func (h *Hub) Subscribed(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.subscribed[id]
}

// Requests returns "METHOD path" for every request served.
func (h *Hub) Requests() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.requests...)
}

const userJSON = `{"id":"` + UserID + `","username":"` + Username + `","email":"ann@example.com"}`

// AllSpacesJSON is the hierarchy: Engineering > {Go, Rust}, and Design.
const AllSpacesJSON = `{"spaces":[
 {"id":"eng","name":"Engineering","level":0,"children":[
  {"id":"go","name":"Go","level":1},
  {"id":"rust","name":"Rust","level":1}]},
 {"id":"design","name":"Design","level":0}]}`

// GoDetailsJSON is the content of the "go" space.
const GoDetailsJSON = `{"space":{
 "id":"go","name":"Go","about":"Everything Go.","level":1,
 "contributors":[{"user":{"id":"u1","username":"ann"}}],
 "subscribers":[],
 "flashcards":[{"id":"f1","title":"Goroutines","shortDescription":"Cheap threads","longDescription":"Scheduled by the runtime.",
   "createdAt":"2024-05-30T10:00:00Z","author":{"id":"u2","username":"bob"},
   "reactions":[{"id":"r1","emoji":"🔥","user":{"id":"u1","username":"ann"}}],
   "comments":[{"id":"c1","text":"nice","level":1,"createdAt":"2024-05-30T11:00:00Z","author":{"id":"u2","username":"bob"},
     "replies":[{"id":"c2","text":"agreed","level":2,"author":{"id":"u3","username":"cat"},
       "replies":[{"id":"c3","text":"same","level":3,
         "replies":[{"id":"c4","text":"deep","level":4}]}]}]}]}],
 "articles":[{"id":"a1","title":"Channels","text":"Share memory by communicating.","createdAt":"2024-05-31T09:00:00Z","author":{"id":"u3","username":"cat"}}],
 "alerts":[{"id":"al1","createdAt":"2024-05-29T08:00:00Z","user":{"id":"u4","username":"dan"},"space":{"id":"go","name":"Go"}}]
}}`

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.Method+" "+r.URL.Path)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/login", "/auth/register":
		h.auth(w, r)
		return
	case "/auth/logout":
		h.mu.Lock()
		h.logouts++
		h.mu.Unlock()
		_, _ = w.Write([]byte(`{"message":"logged out"}`))
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+Token {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid token"}`))
		return
	}

	switch {
	case r.URL.Path == "/auth/profile":
		_, _ = w.Write([]byte(`{"user":` + userJSON + `}`))
	case r.URL.Path == "/spaces/all":
		_, _ = w.Write([]byte(AllSpacesJSON))
	case r.URL.Path == "/spaces/titles":
		_, _ = w.Write([]byte(`{"spaces":[{"id":"eng","name":"Engineering","level":0},{"id":"go","name":"Go","level":1},{"id":"rust","name":"Rust","level":1},{"id":"design","name":"Design","level":0}]}`))
	case r.URL.Path == "/spaces/subscribed":
		_, _ = w.Write([]byte(h.subscribedJSON()))
	case r.URL.Path == "/spaces/subscribed-hierarchy":
		_, _ = w.Write([]byte(h.subscribedJSON()))
	case r.URL.Path == "/spaces/subscribe" && r.Method == http.MethodPost:
		h.toggle(w, r)
	case r.URL.Path == "/content/comments" && r.Method == http.MethodPost:
		h.record(w, r, &h.comments)
	case r.URL.Path == "/content/reactions" && r.Method == http.MethodPost:
		h.record(w, r, &h.reactions)
	case strings.HasPrefix(r.URL.Path, "/spaces/"):
		h.details(w, strings.TrimPrefix(r.URL.Path, "/spaces/"))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	}
}

func (h *Hub) auth(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body["password"] != Password {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
		return
	}
	_, _ = w.Write([]byte(`{"user":` + userJSON + `,"token":"` + Token + `"}`))
}

func (h *Hub) subscribedJSON() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := map[string]string{"go": "Go", "rust": "Rust", "design": "Design"}
	var parts []string
	for _, id := range []string{"go", "rust", "design"} {
		if h.subscribed[id] {
			parts = append(parts, `{"id":"`+id+`","name":"`+names[id]+`","level":1}`)
		}
	}
	return `{"spaces":[` + strings.Join(parts, ",") + `]}`
}

func (h *Hub) toggle(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	id := body["spaceId"]
	h.mu.Lock()
	h.subscribed[id] = !h.subscribed[id]
	h.mu.Unlock()
	_, _ = w.Write([]byte(`{"message":"ok"}`))
}

func (h *Hub) record(w http.ResponseWriter, r *http.Request, into *[]Post) {
	var body Post
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.mu.Lock()
	*into = append(*into, body)
	h.mu.Unlock()
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(`{"message":"created"}`))
}

func (h *Hub) details(w http.ResponseWriter, id string) {
	h.mu.Lock()
	fail := h.failDetail
	h.mu.Unlock()
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
		return
	}
	switch id {
	case "go":
		_, _ = w.Write([]byte(GoDetailsJSON))
	case "rust", "design":
		_, _ = w.Write([]byte(`{"id":"` + id + `","name":"` + id + `","flashcards":[],"articles":[],"alerts":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"space not found"}`))
	}
}

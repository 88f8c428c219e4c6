package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mindengage-lessons/internal/api/http"
	auth "github.com/mind-engage/mindengage-lessons/internal/auth/middleware"
	"github.com/mind-engage/mindengage-lessons/internal/lessons"
	"github.com/mind-engage/mindengage-lessons/internal/slide"
	syncx "github.com/mind-engage/mindengage-lessons/internal/sync"
)

const viewJSON = `{
  "id": 7, "name": "Capitals", "quiz": false, "module_id": 3,
  "slides": [
    {"slide_id": 1, "order": 0, "type": "Content", "name": "Intro",
     "contents": [{"content_id": "c1", "order": 0, "type": "Rich Text"}]},
    {"slide_id": 2, "order": 1, "type": "Assessment", "assessment_id": 100,
     "assessment_info": {"id": 1, "type": "Single Choice", "text": "Capital of France?",
       "options": [{"text": "Paris", "isCorrect": true}, {"text": "Rome"}]}}
  ]
}`

type harness struct {
	srv   *httptest.Server
	authn *auth.AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	events := syncx.NewMemoryLog("test")
	svc := lessons.NewService(lessons.NewInMemoryStore(events), events, nil, nil)
	authn := auth.NewAuthService("test-secret")

	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authn))
		(&api.API{Svc: svc}).Routes(pr)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &harness{srv: srv, authn: authn}
}

func (h *harness) do(t *testing.T, method, path, role, sub, body string) *http.Response {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, rdr)
	require.NoError(t, err)
	if role != "" {
		tok, err := h.authn.IssueJWT(sub, role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

func (h *harness) publish(t *testing.T) {
	t.Helper()
	res := h.do(t, http.MethodPut, "/views/7", "author", "prof", viewJSON)
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestViewLifecycle(t *testing.T) {
	h := newHarness(t)

	res := h.do(t, http.MethodGet, "/views/7", "learner", "u1", "")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	res = h.do(t, http.MethodPut, "/views/7", "learner", "u1", viewJSON)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	h.publish(t)

	res = h.do(t, http.MethodGet, "/views/7", "learner", "u1", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var v slide.View
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	assert.Equal(t, "Capitals", v.Name)
	require.Len(t, v.Slides, 2)
	assert.Equal(t, slide.KindAssessment, v.Slides[1].Kind())
	assert.Empty(t, v.Progress)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	res := h.do(t, http.MethodGet, "/views/7", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)
	h.publish(t)

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"bad view id", http.MethodGet, "/views/abc", "", http.StatusBadRequest},
		{"bad json", http.MethodPost, "/views/7/progress", "{", http.StatusBadRequest},
		{"missing progress", http.MethodPost, "/views/7/progress", `{}`, http.StatusBadRequest},
		{"wrong length", http.MethodPost, "/views/7/progress", `{"progress":[true]}`, http.StatusBadRequest},
		{"unknown view", http.MethodPost, "/views/9/progress", `{"progress":[true]}`, http.StatusNotFound},
		{"missing assessment id", http.MethodPost, "/views/7/submissions", `{"answer":[]}`, http.StatusBadRequest},
		{"foreign assessment", http.MethodPost, "/views/7/submissions", `{"assessment_id":5,"answer":[]}`, http.StatusBadRequest},
		{"unknown submission", http.MethodPatch, "/views/7/submissions/99", `{"assessment_id":100,"answer":[]}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := h.do(t, tc.method, tc.path, "learner", "u1", tc.body)
			assert.Equal(t, tc.want, res.StatusCode)
		})
	}
}

func TestProgressAndSubmissions(t *testing.T) {
	h := newHarness(t)
	h.publish(t)

	res := h.do(t, http.MethodPost, "/views/7/progress", "learner", "u1", `{"progress":[true,false]}`)
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = h.do(t, http.MethodPost, "/views/7/submissions", "learner", "u1",
		`{"assessment_id":100,"view_id":7,"correct":true,"answer":[{"text":"Rome"}],"revealed":false}`)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	var created slide.Submission
	require.NoError(t, json.NewDecoder(res.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.False(t, created.Correct)

	res = h.do(t, http.MethodPatch, "/views/7/submissions/"+itoa(created.ID), "learner", "u1",
		`{"assessment_id":100,"answer":[{"text":"Paris"}]}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var patched slide.Submission
	require.NoError(t, json.NewDecoder(res.Body).Decode(&patched))
	assert.Equal(t, created.ID, patched.ID)
	assert.True(t, patched.Correct)

	res = h.do(t, http.MethodGet, "/views/7/submissions", "learner", "u1", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var subs []slide.Submission
	require.NoError(t, json.NewDecoder(res.Body).Decode(&subs))
	require.Len(t, subs, 1)
	assert.Equal(t, []slide.Answer{{Text: "Paris"}}, subs[0].Answer)

	// Another learner sees nothing.
	res = h.do(t, http.MethodGet, "/views/7/submissions", "learner", "u2", "")
	var none []slide.Submission
	require.NoError(t, json.NewDecoder(res.Body).Decode(&none))
	assert.Empty(t, none)

	res = h.do(t, http.MethodGet, "/views/7", "learner", "u1", "")
	var v slide.View
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	assert.Equal(t, []bool{true, false}, v.Progress)

	res = h.do(t, http.MethodPost, "/views/7/restart", "learner", "u1", "")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res = h.do(t, http.MethodGet, "/views/7", "learner", "u1", "")
	v = slide.View{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	assert.Empty(t, v.Progress)
}

func TestEventsFeed(t *testing.T) {
	h := newHarness(t)
	h.publish(t)
	h.do(t, http.MethodPost, "/views/7/progress", "learner", "u1", `{"progress":[true,true]}`)

	res := h.do(t, http.MethodGet, "/events?since=0", "learner", "u1", "")
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	res = h.do(t, http.MethodGet, "/events?since=1&limit=10", "replicator", "site-b", "")
	require.Equal(t, http.StatusOK, res.StatusCode)
	var body struct {
		Events []syncx.Event `json:"events"`
		Next   int64         `json:"next"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Len(t, body.Events, 1)
	assert.Equal(t, syncx.TypeProgressSaved, body.Events[0].Type)
	assert.Equal(t, "u1/7", body.Events[0].Key)
	assert.Equal(t, int64(2), body.Next)
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

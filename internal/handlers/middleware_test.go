package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"template_purifier/internal/service"

	"github.com/gin-gonic/gin"
)

// protectedRoutes are the /api/v1 endpoints behind userIdMiddleware.
var protectedRoutes = []struct {
	method, path, body string
}{
	{http.MethodGet, "/api/v1/purifiers", ""},
	{http.MethodGet, "/api/v1/purifiers/" + bedroom, ""},
	{http.MethodPost, "/api/v1/purifiers/" + bedroom + "/turn_on", ""},
	{http.MethodPost, "/api/v1/purifiers/" + bedroom + "/percentage", `{"percentage":50}`},
	{http.MethodPost, "/api/v1/purifiers/" + bedroom + "/preset_mode", `{"preset_mode":"sleep"}`},
	{http.MethodGet, "/api/v1/states", ""},
	{http.MethodPost, "/api/v1/states/input_boolean.purifier_switch", `{"state":"on"}`},
	{http.MethodGet, "/api/v1/service_calls", ""},
	{http.MethodPost, "/api/v1/templates/render", `{"template":"x"}`},
}

func newGuardedRouter(auth *mockAuth) (*gin.Engine, *mockPurifiers, *mockStates) {
	p := bedroomPurifiers()
	st := &mockStates{}
	return newTestRouter(&service.Service{
		Authorization: auth,
		Purifiers:     p,
		States:        st,
		CallLog:       &mockCallLog{},
		Templates:     &mockTemplates{out: "x"},
	}), p, st
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return out.Error
}

func TestUserIDMiddleware_RejectsRequests(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		parseErr error
		errMsg   string
	}{
		{"missing header", "", nil, "missing Authorization header"},
		{"invalid scheme", "Token abc", nil, "invalid Authorization header format"},
		{"bearer without token", "Bearer", nil, "invalid Authorization header format"},
		{"bearer with empty token", "Bearer ", nil, "invalid Authorization header format"},
		{"expired token", "Bearer expired", errors.New("expired"), "invalid or expired token"},
	}

	for _, tc := range cases {
		for _, rt := range protectedRoutes {
			t.Run(tc.name+" "+rt.method+" "+rt.path, func(t *testing.T) {
				r, p, st := newGuardedRouter(&mockAuth{parseErr: tc.parseErr})

				req := httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))
				req.Header.Set("Content-Type", "application/json")
				if tc.header != "" {
					req.Header.Set("Authorization", tc.header)
				}
				w := httptest.NewRecorder()
				r.ServeHTTP(w, req)

				if w.Code != http.StatusUnauthorized {
					t.Fatalf("status: got %d, want 401 (body=%s)", w.Code, w.Body.String())
				}
				if got := errorBody(t, w); got != tc.errMsg {
					t.Fatalf("error message: got %q, want %q", got, tc.errMsg)
				}
				if len(p.calls) != 0 || st.lastSet.EntityID != "" {
					t.Fatalf("handler ran without auth: calls=%v set=%+v", p.calls, st.lastSet)
				}
			})
		}
	}
}

func TestUserIDMiddleware_PublicRoutesSkipAuth(t *testing.T) {
	auth := &mockAuth{parseErr: errors.New("must not be called")}
	r, _, _ := newGuardedRouter(auth)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("health: got %d, want 200", w.Code)
	}
	if auth.lastParseToken != "" {
		t.Fatalf("health must not parse tokens, got %q", auth.lastParseToken)
	}
}

func TestUserIDMiddleware_AcceptsTokenOnPurifierRoute(t *testing.T) {
	auth := &mockAuth{parseID: 123}
	r, p, _ := newGuardedRouter(auth)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/purifiers/"+bedroom+"/turn_on", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200; body=%s", w.Code, w.Body.String())
	}
	if auth.lastParseToken != "good-token" {
		t.Fatalf("ParseToken got %q, want %q", auth.lastParseToken, "good-token")
	}
	if len(p.calls) != 1 || p.calls[0] != "turn_on:"+bedroom {
		t.Fatalf("expected turn_on to reach the service, got %v", p.calls)
	}
}

func TestUserIDMiddleware_SetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&service.Service{Authorization: &mockAuth{parseID: 42}}, nil)
	r := gin.New()
	var got any
	r.GET("/whoami", h.userIdMiddleware, func(c *gin.Context) {
		got, _ = c.Get(userCtx)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent || got != 42 {
		t.Fatalf("status=%d userId=%v, want 204 and 42", w.Code, got)
	}
}

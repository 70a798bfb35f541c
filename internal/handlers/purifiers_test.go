package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/service"
	"template_purifier/internal/template"

	"github.com/google/go-cmp/cmp"
)

const bedroom = "template_air_purifier.bedroom_purifier"

func newPurifierRouter(p *mockPurifiers) http.Handler {
	return newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 7}, Purifiers: p})
}

func bedroomPurifiers() *mockPurifiers {
	return &mockPurifiers{states: map[string]models.PurifierState{
		bedroom: {
			Name:        "Bedroom Purifier",
			EntityID:    bedroom,
			State:       models.StateOff,
			PresetModes: []string{"auto", "sleep"},
			Percentage:  intPtr(40),
			Attributes:  map[string]string{},
			Available:   true,
		},
	}}
}

type controlResponse struct {
	Status string               `json:"status"`
	State  models.PurifierState `json:"state"`
	Error  string               `json:"error"`
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, controlResponse) {
	t.Helper()
	var rd *bytes.Buffer
	if body != "" {
		rd = bytes.NewBufferString(body)
	} else {
		rd = &bytes.Buffer{}
	}
	req := authed(httptest.NewRequest(method, path, rd))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out controlResponse
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestPurifierHandlers_RequireAuth(t *testing.T) {
	r := newPurifierRouter(bedroomPurifiers())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/purifiers", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth, got %d", w.Code)
	}
}

func TestPurifierHandlers_ListAndGet(t *testing.T) {
	r := newPurifierRouter(bedroomPurifiers())

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/purifiers", nil))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status=%d, body=%s", w.Code, w.Body.String())
	}
	var list struct {
		Count     int                    `json:"count"`
		Purifiers []models.PurifierState `json:"purifiers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if list.Count != 1 || list.Purifiers[0].EntityID != bedroom {
		t.Fatalf("unexpected list: %+v", list)
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/api/v1/purifiers/"+bedroom, nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d, body=%s", w.Code, w.Body.String())
	}
	var st models.PurifierState
	_ = json.Unmarshal(w.Body.Bytes(), &st)
	if diff := cmp.Diff([]string{"auto", "sleep"}, st.PresetModes); diff != "" {
		t.Fatalf("preset modes (-want +got):\n%s", diff)
	}
	if st.Percentage == nil || *st.Percentage != 40 {
		t.Fatalf("percentage = %v, want 40", st.Percentage)
	}

	req = authed(httptest.NewRequest(http.MethodGet, "/api/v1/purifiers/nope", nil))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown purifier: expected 404, got %d", w.Code)
	}
}

func TestPurifierHandlers_Control(t *testing.T) {
	p := bedroomPurifiers()
	r := newPurifierRouter(p)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+"/turn_on", "")
	if w.Code != http.StatusOK {
		t.Fatalf("turn_on status=%d, body=%s", w.Code, w.Body.String())
	}
	if out.Status != statusTurnedOn || !out.State.IsOn {
		t.Fatalf("unexpected turn_on response: %+v", out)
	}

	w, out = doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+"/turn_off", "")
	if w.Code != http.StatusOK || out.Status != statusTurnedOff || out.State.IsOn {
		t.Fatalf("unexpected turn_off response: %d %+v", w.Code, out)
	}

	w, out = doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+"/refresh", "")
	if w.Code != http.StatusOK || out.Status != statusRefreshed {
		t.Fatalf("unexpected refresh response: %d %+v", w.Code, out)
	}

	w, out = doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+"/percentage", `{"percentage":0}`)
	if w.Code != http.StatusOK || out.Status != statusPercentageSet {
		t.Fatalf("unexpected percentage response: %d %+v", w.Code, out)
	}
	if p.lastPercentage != 0 || out.State.Percentage == nil || *out.State.Percentage != 0 {
		t.Fatalf("percentage 0 must be accepted, got %d / %v", p.lastPercentage, out.State.Percentage)
	}

	w, out = doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+"/preset_mode", `{"preset_mode":"sleep"}`)
	if w.Code != http.StatusOK || out.Status != statusPresetModeSet || p.lastPreset != "sleep" {
		t.Fatalf("unexpected preset response: %d %+v", w.Code, out)
	}

	want := []string{
		"turn_on:" + bedroom,
		"turn_off:" + bedroom,
		"refresh:" + bedroom,
		"percentage:" + bedroom,
		"preset_mode:" + bedroom,
	}
	if diff := cmp.Diff(want, p.calls); diff != "" {
		t.Fatalf("calls (-want +got):\n%s", diff)
	}
}

func TestPurifierHandlers_BadBodies(t *testing.T) {
	p := bedroomPurifiers()
	r := newPurifierRouter(p)

	for _, tc := range []struct {
		name, path, body string
	}{
		{"percentage missing", "/percentage", `{}`},
		{"percentage not a number", "/percentage", `{"percentage":"high"}`},
		{"preset missing", "/preset_mode", `{}`},
		{"no json", "/preset_mode", `nope`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+tc.path, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d (%s)", w.Code, w.Body.String())
			}
		})
	}
	if len(p.calls) != 0 {
		t.Fatalf("service must not be called on bad bodies, got %v", p.calls)
	}
}

func TestPurifierHandlers_ErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		path    string
		body    string
		code    int
		wantMsg string
	}{
		{
			name: "invalid preset", err: fmt.Errorf("%w: %q", purifier.ErrInvalidPresetMode, "turbo"),
			path: "/preset_mode", body: `{"preset_mode":"turbo"}`, code: http.StatusBadRequest,
		},
		{
			name: "percentage out of range", err: purifier.ErrInvalidPercentage,
			path: "/percentage", body: `{"percentage":300}`, code: http.StatusBadRequest,
		},
		{
			name: "action not configured", err: purifier.ErrActionNotConfigured,
			path: "/preset_mode", body: `{"preset_mode":"auto"}`, code: http.StatusBadRequest,
		},
		{
			name: "dispatch failed", err: errors.New("hub down"),
			path: "/turn_on", code: http.StatusBadGateway, wantMsg: errTurnOn,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := bedroomPurifiers()
			p.err = tc.err
			r := newPurifierRouter(p)
			w, out := doJSON(t, r, http.MethodPost, "/api/v1/purifiers/"+bedroom+tc.path, tc.body)
			if w.Code != tc.code {
				t.Fatalf("status: got %d, want %d (%s)", w.Code, tc.code, w.Body.String())
			}
			want := tc.wantMsg
			if want == "" {
				want = tc.err.Error()
			}
			if out.Error != want {
				t.Fatalf("error: got %q, want %q", out.Error, want)
			}
		})
	}

	r := newPurifierRouter(bedroomPurifiers())
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/purifiers/missing/turn_on", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown purifier: expected 404, got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{purifier.ErrPurifierNotFound, http.StatusNotFound},
		{service.ErrStateNotFound, http.StatusNotFound},
		{service.ErrInvalidState, http.StatusBadRequest},
		{service.ErrInvalidTimeRange, http.StatusBadRequest},
		{service.ErrEmptyTemplate, http.StatusBadRequest},
		{fmt.Errorf("parse: %w", template.ErrSyntax), http.StatusBadRequest},
		{template.ErrUndefinedEntity, http.StatusBadRequest},
		{service.ErrStatesReadOnly, http.StatusConflict},
		{errors.New("other"), http.StatusTeapot},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err, http.StatusTeapot); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

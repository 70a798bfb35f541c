package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
	"template_purifier/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

// mockPurifiers serves a fixed set of purifier states keyed by entity id.
// Control calls return err when set, else the stored state with the
// change applied.
type mockPurifiers struct {
	states map[string]models.PurifierState
	err    error

	calls          []string
	lastPercentage int
	lastPreset     string
}

func (m *mockPurifiers) List(context.Context) []models.PurifierState {
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.PurifierState, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.states[id])
	}
	return out
}

func (m *mockPurifiers) lookup(id string) (models.PurifierState, error) {
	st, ok := m.states[id]
	if !ok {
		return models.PurifierState{}, purifier.ErrPurifierNotFound
	}
	return st, nil
}

func (m *mockPurifiers) Get(_ context.Context, id string) (models.PurifierState, error) {
	return m.lookup(id)
}

func (m *mockPurifiers) control(op, id string, apply func(*models.PurifierState)) (models.PurifierState, error) {
	m.calls = append(m.calls, op+":"+id)
	st, err := m.lookup(id)
	if err != nil {
		return st, err
	}
	if m.err != nil {
		return models.PurifierState{}, m.err
	}
	apply(&st)
	m.states[id] = st
	return st, nil
}

func (m *mockPurifiers) TurnOn(_ context.Context, id string) (models.PurifierState, error) {
	return m.control("turn_on", id, func(st *models.PurifierState) {
		st.IsOn, st.State = true, models.StateOn
	})
}
func (m *mockPurifiers) TurnOff(_ context.Context, id string) (models.PurifierState, error) {
	return m.control("turn_off", id, func(st *models.PurifierState) {
		st.IsOn, st.State = false, models.StateOff
	})
}
func (m *mockPurifiers) Refresh(_ context.Context, id string) (models.PurifierState, error) {
	return m.control("refresh", id, func(*models.PurifierState) {})
}
func (m *mockPurifiers) SetPercentage(_ context.Context, id string, p int) (models.PurifierState, error) {
	m.lastPercentage = p
	return m.control("percentage", id, func(st *models.PurifierState) {
		st.Percentage = &p
	})
}
func (m *mockPurifiers) SetPresetMode(_ context.Context, id, mode string) (models.PurifierState, error) {
	m.lastPreset = mode
	return m.control("preset_mode", id, func(st *models.PurifierState) {
		st.PresetMode = &mode
	})
}

type mockStates struct {
	list    []models.EntityState
	listErr error
	getErr  error
	setErr  error
	lastSet service.StateParams
}

func (m *mockStates) List(context.Context) ([]models.EntityState, error) {
	return m.list, m.listErr
}
func (m *mockStates) Get(_ context.Context, id string) (models.EntityState, error) {
	if m.getErr != nil {
		return models.EntityState{}, m.getErr
	}
	for _, s := range m.list {
		if s.EntityID == id {
			return s, nil
		}
	}
	return models.EntityState{}, service.ErrStateNotFound
}
func (m *mockStates) Set(_ context.Context, p service.StateParams) (models.EntityState, error) {
	m.lastSet = p
	if m.setErr != nil {
		return models.EntityState{}, m.setErr
	}
	return models.EntityState{EntityID: p.EntityID, State: p.State, Attributes: p.Attributes}, nil
}

type mockCallLog struct {
	resp       []models.ServiceCall
	err        error
	lastFrom   time.Time
	lastTo     time.Time
	lastDomain string
}

func (m *mockCallLog) List(_ context.Context, f service.LogFilter) ([]models.ServiceCall, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastDomain = f.Domain
	return m.resp, m.err
}

type mockTemplates struct {
	out     string
	err     error
	lastSrc string
	lastVar map[string]any
}

func (m *mockTemplates) Render(_ context.Context, src string, vars map[string]any) (string, error) {
	m.lastSrc = src
	m.lastVar = vars
	return m.out, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func authed(req *http.Request) *http.Request {
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}

func intPtr(v int) *int { return &v }

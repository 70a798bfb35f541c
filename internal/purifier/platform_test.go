package purifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"template_purifier/internal/models"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sets []models.EntityState
	err  error
}

func (p *recordingPublisher) Set(ctx context.Context, s models.EntityState) (models.EntityState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sets = append(p.sets, s)
	return s, p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sets)
}

func TestGenerateEntityID(t *testing.T) {
	used := map[string]struct{}{}
	cases := []struct {
		name string
		want string
	}{
		{"Bedroom Purifier", "template_air_purifier.bedroom_purifier"},
		{"Bedroom Purifier", "template_air_purifier.bedroom_purifier_2"},
		{"bedroom-purifier!", "template_air_purifier.bedroom_purifier_3"},
		{"  Living  Room ", "template_air_purifier.living_room"},
		{"***", "template_air_purifier.purifier"},
	}
	for _, tc := range cases {
		if got := GenerateEntityID(tc.name, used); got != tc.want {
			t.Errorf("GenerateEntityID(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestNewPlatform_LookupAndDuplicates(t *testing.T) {
	a := baseConfig()
	a.UniqueID = "bed-1"
	b := baseConfig()

	p, err := NewPlatform([]Config{a, b}, Deps{States: exampleStates(), Dispatcher: &recordingDispatcher{}})
	if err != nil {
		t.Fatalf("NewPlatform: %v", err)
	}
	if len(p.Adapters()) != 2 {
		t.Fatalf("expected 2 adapters, got %d", len(p.Adapters()))
	}
	for _, id := range []string{"template_air_purifier.bedroom_purifier", "bed-1", "bedroom_purifier"} {
		got, err := p.Get(id)
		if err != nil || got.UniqueID() != "bed-1" {
			t.Fatalf("Get(%q) = %v, %v", id, got, err)
		}
	}
	if got, err := p.Get("bedroom_purifier_2"); err != nil || got.EntityID() != "template_air_purifier.bedroom_purifier_2" {
		t.Fatalf("Get second = %v, %v", got, err)
	}
	if _, err := p.Get("kitchen"); !errors.Is(err, ErrPurifierNotFound) {
		t.Fatalf("expected ErrPurifierNotFound, got %v", err)
	}

	b.UniqueID = "bed-1"
	if _, err := NewPlatform([]Config{a, b}, Deps{States: exampleStates()}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestNewPlatform_UniqueIDShadowsAnotherPurifier(t *testing.T) {
	a := baseConfig()
	a.Name = "Bedroom"
	b := baseConfig()
	b.Name = "Kitchen"

	for _, uid := range []string{"kitchen", "template_air_purifier.kitchen"} {
		a.UniqueID = uid
		if _, err := NewPlatform([]Config{a, b}, Deps{States: exampleStates()}); !errors.Is(err, ErrDuplicateID) {
			t.Fatalf("unique_id %q: expected ErrDuplicateID, got %v", uid, err)
		}
	}

	// matching its own object id is fine
	a.UniqueID = "bedroom"
	p, err := NewPlatform([]Config{a, b}, Deps{States: exampleStates()})
	if err != nil {
		t.Fatalf("NewPlatform: %v", err)
	}
	if got, err := p.Get("kitchen"); err != nil || got.Name() != "Kitchen" {
		t.Fatalf("Get(kitchen) = %v, %v", got, err)
	}
}

func TestNewPlatform_BadTemplate(t *testing.T) {
	cfg := baseConfig()
	cfg.HumidityTemplate = "{{ states('sensor.x' }}"
	if _, err := NewPlatform([]Config{cfg}, Deps{States: exampleStates()}); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestPlatform_RefreshPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	p, err := NewPlatform([]Config{baseConfig()}, Deps{
		States:     exampleStates(),
		Dispatcher: &recordingDispatcher{},
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewPlatform: %v", err)
	}

	if failed := p.RefreshAll(context.Background()); failed != 0 {
		t.Fatalf("RefreshAll failed=%d", failed)
	}
	if pub.count() != 1 {
		t.Fatalf("expected 1 publish, got %d", pub.count())
	}
	got := pub.sets[0]
	if got.EntityID != "template_air_purifier.bedroom_purifier" || got.State != models.StateOn {
		t.Fatalf("unexpected published state: %+v", got)
	}
	if got.Attributes["friendly_name"] != "Bedroom Purifier" {
		t.Fatalf("missing friendly_name: %v", got.Attributes)
	}

	pub.err = errors.New("disk full")
	if err := p.Refresh(context.Background(), p.Adapters()[0]); err == nil {
		t.Fatalf("expected publish error")
	}
}

// gatedPublisher holds the first Set until release is closed.
type gatedPublisher struct {
	recordingPublisher
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedPublisher) Set(ctx context.Context, s models.EntityState) (models.EntityState, error) {
	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.entered)
		<-p.release
	}
	return p.recordingPublisher.Set(ctx, s)
}

func TestPlatform_Refresh_PublishesInRenderOrder(t *testing.T) {
	st := exampleStates()
	pub := &gatedPublisher{entered: make(chan struct{}), release: make(chan struct{})}
	p, err := NewPlatform([]Config{baseConfig()}, Deps{States: st, Publisher: pub})
	if err != nil {
		t.Fatalf("NewPlatform: %v", err)
	}
	a := p.Adapters()[0]

	errs := make(chan error, 2)
	go func() { errs <- p.Refresh(context.Background(), a) }()
	<-pub.entered

	st.set("input_boolean.purifier_switch", "off")
	go func() { errs <- p.Refresh(context.Background(), a) }()

	time.Sleep(50 * time.Millisecond)
	if n := pub.count(); n != 0 {
		t.Fatalf("second refresh published while the first was still publishing (%d sets)", n)
	}
	close(pub.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("Refresh: %v", err)
		}
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	got := []string{pub.sets[0].State, pub.sets[1].State}
	if got[0] != models.StateOn || got[1] != models.StateOff {
		t.Fatalf("published states = %v, want [on off]", got)
	}
	if a.IsOn() {
		t.Fatalf("adapter must hold the latest render")
	}
}

func TestPlatform_RefreshAll_CountsFailures(t *testing.T) {
	st := exampleStates()
	st.err = errors.New("down")
	pub := &recordingPublisher{}
	p, err := NewPlatform([]Config{baseConfig(), baseConfig()}, Deps{States: st, Publisher: pub})
	if err != nil {
		t.Fatalf("NewPlatform: %v", err)
	}
	if failed := p.RefreshAll(context.Background()); failed != 2 {
		t.Fatalf("failed=%d, want 2", failed)
	}
	if pub.count() != 0 {
		t.Fatalf("nothing should be published after failed refresh")
	}
}

func TestPlatform_Run_RefreshesImmediatelyAndStops(t *testing.T) {
	pub := &recordingPublisher{}
	p, err := NewPlatform([]Config{baseConfig()}, Deps{States: exampleStates(), Publisher: pub})
	if err != nil {
		t.Fatalf("NewPlatform: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx, time.Hour)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for pub.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if pub.count() != 1 {
		t.Fatalf("expected immediate refresh, publishes=%d", pub.count())
	}
	if !p.Adapters()[0].IsOn() {
		t.Fatalf("expected refreshed on state")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not stop after cancel")
	}
}

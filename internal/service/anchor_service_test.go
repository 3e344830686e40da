package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/geo"
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/netmon"
)

// Mock du cloud store pour les tests
type mockAnchorStore struct {
	mu           sync.Mutex
	issues       map[string]entity.Report
	uploadLog    []string
	failUpload   bool
	failNearby   bool
	failFetchAll bool
	failUpvote   bool
}

func newMockAnchorStore() *mockAnchorStore {
	return &mockAnchorStore{issues: map[string]entity.Report{}}
}

func (m *mockAnchorStore) UploadIssue(ctx context.Context, report *entity.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpload {
		return errors.New("network unreachable")
	}
	m.uploadLog = append(m.uploadLog, report.ID)
	m.issues[report.ID] = *report // upsert par ID
	return nil
}

func (m *mockAnchorStore) GetIssuesNearLocation(ctx context.Context, lat, lon, radiusMeters float64) ([]entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNearby {
		return nil, errors.New("network unreachable")
	}
	out := []entity.Report{}
	for _, r := range m.issues {
		if geo.Distance(lat, lon, r.Latitude, r.Longitude) <= radiusMeters {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockAnchorStore) FetchAllIssues(ctx context.Context) ([]entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFetchAll {
		return nil, errors.New("network unreachable")
	}
	out := []entity.Report{}
	for _, r := range m.issues {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockAnchorStore) GetIssueByID(ctx context.Context, id string) (*entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.issues[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *mockAnchorStore) UpvoteIssue(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpvote {
		return errors.New("network unreachable")
	}
	r, ok := m.issues[id]
	if !ok {
		return errors.New("anchor not found")
	}
	r.Upvotes++
	m.issues[id] = r
	return nil
}

func (m *mockAnchorStore) UpdateStatus(ctx context.Context, id string, status entity.ReportStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.issues[id]
	if !ok {
		return errors.New("anchor not found")
	}
	r.Status = status
	m.issues[id] = r
	return nil
}

func (m *mockAnchorStore) SaveSurfaceAnchor(ctx context.Context, anchor *entity.SurfaceAnchor) error {
	return nil
}

func (m *mockAnchorStore) uploads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.uploadLog...)
}

// Mock du store local
type mockLocalStore struct {
	mu        sync.Mutex
	anchors   map[string]entity.Report
	pending   map[string]entity.Report
	failLoads bool
}

func newMockLocalStore() *mockLocalStore {
	return &mockLocalStore{
		anchors: map[string]entity.Report{},
		pending: map[string]entity.Report{},
	}
}

func (m *mockLocalStore) SaveAnchor(report *entity.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.anchors[report.ID] = *report
	return nil
}

func (m *mockLocalStore) LoadAnchors() ([]entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoads {
		return nil, errors.New("store unreadable")
	}
	out := []entity.Report{}
	for _, r := range m.anchors {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockLocalStore) SavePendingAnchor(report *entity.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[report.ID] = *report
	return nil
}

func (m *mockLocalStore) LoadPendingAnchors() ([]entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoads {
		return nil, errors.New("store unreadable")
	}
	out := []entity.Report{}
	for _, r := range m.pending {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockLocalStore) RemovePendingAnchor(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
	return nil
}

func (m *mockLocalStore) pendingIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []string{}
	for id := range m.pending {
		out = append(out, id)
	}
	return out
}

// Mock du publisher d'événements
type mockPublisher struct {
	mu     sync.Mutex
	events []entity.ReportEvent
}

func (m *mockPublisher) Publish(ctx context.Context, queueName string, message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := message.(entity.ReportEvent); ok {
		m.events = append(m.events, ev)
	}
	return nil
}

func (m *mockPublisher) Close() {}

func (m *mockPublisher) byType(t string) []entity.ReportEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.ReportEvent{}
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func TestCreateAnchor(t *testing.T) {
	ctx := context.Background()
	local := newMockLocalStore()
	s := NewAnchorService(newMockAnchorStore(), local, netmon.NewManual(true), nil, 0)

	report, err := s.CreateAnchor(ctx, CreateAnchorParams{
		Latitude:    12.9716,
		Longitude:   77.5946,
		MessageText: "Pothole on main road",
		Category:    entity.CategoryInfrastructure,
	})
	if err != nil {
		t.Fatalf("CreateAnchor failed: %v", err)
	}

	if report.ID == "" {
		t.Error("expected a generated ID")
	}
	if report.Status != entity.StatusPending {
		t.Errorf("expected status PENDING, got %s", report.Status)
	}
	if report.Severity != entity.SeverityMedium {
		t.Errorf("expected default severity MEDIUM, got %s", report.Severity)
	}
	if report.Geohash != geo.EncodeGeohash(12.9716, 77.5946, geo.DefaultGeohashPrecision) {
		t.Errorf("geohash not derived from coordinates: %s", report.Geohash)
	}
	if report.Timestamp == 0 {
		t.Error("timestamp not set")
	}
	if report.H3Cell == "" {
		t.Error("h3 cell not set")
	}

	// Persisté localement avant toute tentative cloud
	anchors, _ := local.LoadAnchors()
	if len(anchors) != 1 || anchors[0].ID != report.ID {
		t.Errorf("report not persisted locally: %+v", anchors)
	}
	// Et pas encore en file d'attente: c'est PublishAnchor qui décide
	if len(local.pendingIDs()) != 0 {
		t.Error("CreateAnchor must not enqueue for upload")
	}
}

func TestPublishAnchorOfflineQueues(t *testing.T) {
	ctx := context.Background()
	cloud := newMockAnchorStore()
	local := newMockLocalStore()
	s := NewAnchorService(cloud, local, netmon.NewManual(false), nil, 0)

	report, _ := s.CreateAnchor(ctx, CreateAnchorParams{Latitude: 12.9716, Longitude: 77.5946, MessageText: "x"})
	queued, err := s.PublishAnchor(ctx, report)
	if err != nil {
		t.Fatalf("PublishAnchor failed: %v", err)
	}
	if !queued {
		t.Error("expected report to be queued while offline")
	}
	if len(cloud.uploads()) != 0 {
		t.Error("no cloud upload should happen while offline")
	}
	if ids := local.pendingIDs(); len(ids) != 1 || ids[0] != report.ID {
		t.Errorf("pending queue should contain exactly the report, got %v", ids)
	}
}

func TestPublishAnchorUploadFailureQueues(t *testing.T) {
	ctx := context.Background()
	cloud := newMockAnchorStore()
	cloud.failUpload = true
	local := newMockLocalStore()
	s := NewAnchorService(cloud, local, netmon.NewManual(true), nil, 0)

	report, _ := s.CreateAnchor(ctx, CreateAnchorParams{Latitude: 1, Longitude: 1, MessageText: "x"})
	queued, err := s.PublishAnchor(ctx, report)
	if err != nil {
		t.Fatalf("transient upload failure must not surface: %v", err)
	}
	if !queued {
		t.Error("failed upload should fall back to the pending queue")
	}
}

func TestGetNearbyAnchorsFallback(t *testing.T) {
	ctx := context.Background()

	// Un signalement à ~49 m et un à ~51 m du point de requête.
	// 1 degré de latitude ≈ 111195 m -> 49 m ≈ 0.0004407°, 51 m ≈ 0.0004587°
	origin := [2]float64{12.9716, 77.5946}
	at49 := entity.Report{ID: "near", Latitude: origin[0] + 49/111195.0, Longitude: origin[1]}
	at51 := entity.Report{ID: "far", Latitude: origin[0] + 51/111195.0, Longitude: origin[1]}

	t.Run("cloud down: local filter gives same result and never throws", func(t *testing.T) {
		cloud := newMockAnchorStore()
		cloud.failNearby = true
		local := newMockLocalStore()
		local.anchors[at49.ID] = at49
		local.anchors[at51.ID] = at51

		s := NewAnchorService(cloud, local, netmon.NewManual(true), nil, 0)
		got, err := s.GetNearbyAnchors(ctx, origin[0], origin[1], 50)
		if err != nil {
			t.Fatalf("fallback must not propagate errors: %v", err)
		}
		if len(got) != 1 || got[0].ID != "near" {
			t.Errorf("expected only the 49 m report, got %+v", got)
		}
	})

	t.Run("no cloud configured: local path used", func(t *testing.T) {
		local := newMockLocalStore()
		local.anchors[at49.ID] = at49
		s := NewAnchorService(nil, local, netmon.NewManual(false), nil, 0)
		got, err := s.GetNearbyAnchors(ctx, origin[0], origin[1], 50)
		if err != nil || len(got) != 1 {
			t.Errorf("expected 1 report from local store, got %d (err %v)", len(got), err)
		}
	})

	t.Run("local store unreadable: empty list, no error", func(t *testing.T) {
		local := newMockLocalStore()
		local.failLoads = true
		s := NewAnchorService(nil, local, netmon.NewManual(false), nil, 0)
		got, err := s.GetNearbyAnchors(ctx, origin[0], origin[1], 50)
		if err != nil {
			t.Fatalf("unreadable store must degrade to empty, got error %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty list, got %d", len(got))
		}
	})

	t.Run("cloud radius semantics: 49 in, 51 out", func(t *testing.T) {
		cloud := newMockAnchorStore()
		cloud.issues[at49.ID] = at49
		cloud.issues[at51.ID] = at51
		s := NewAnchorService(cloud, newMockLocalStore(), netmon.NewManual(true), nil, 0)
		got, err := s.GetNearbyAnchors(ctx, origin[0], origin[1], 50)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != "near" {
			t.Errorf("expected only the 49 m report, got %+v", got)
		}
	})
}

func TestGetAllAnchorsEmptyCloudFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cloud with local data serves local", func(t *testing.T) {
		cloud := newMockAnchorStore() // vide
		local := newMockLocalStore()
		local.anchors["a"] = entity.Report{ID: "a"}
		local.anchors["b"] = entity.Report{ID: "b"}

		s := NewAnchorService(cloud, local, netmon.NewManual(true), nil, 0)
		got, err := s.GetAllAnchors(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 {
			t.Errorf("expected the 2 local reports, got %d", len(got))
		}
	})

	t.Run("empty cloud and empty local is just empty", func(t *testing.T) {
		s := NewAnchorService(newMockAnchorStore(), newMockLocalStore(), netmon.NewManual(true), nil, 0)
		got, err := s.GetAllAnchors(ctx)
		if err != nil || len(got) != 0 {
			t.Errorf("expected empty result, got %d (err %v)", len(got), err)
		}
	})

	t.Run("cloud failure falls back to local", func(t *testing.T) {
		cloud := newMockAnchorStore()
		cloud.failFetchAll = true
		local := newMockLocalStore()
		local.anchors["a"] = entity.Report{ID: "a"}

		s := NewAnchorService(cloud, local, netmon.NewManual(true), nil, 0)
		got, err := s.GetAllAnchors(ctx)
		if err != nil || len(got) != 1 {
			t.Errorf("expected 1 local report, got %d (err %v)", len(got), err)
		}
	})

	t.Run("non-empty cloud wins, no merging", func(t *testing.T) {
		cloud := newMockAnchorStore()
		cloud.issues["c"] = entity.Report{ID: "c"}
		local := newMockLocalStore()
		local.anchors["a"] = entity.Report{ID: "a"}

		s := NewAnchorService(cloud, local, netmon.NewManual(true), nil, 0)
		got, err := s.GetAllAnchors(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != "c" {
			t.Errorf("cloud result must be served as-is, got %+v", got)
		}
	})
}

func TestGetAnchor(t *testing.T) {
	ctx := context.Background()

	t.Run("cloud hit", func(t *testing.T) {
		cloud := newMockAnchorStore()
		cloud.issues["r1"] = entity.Report{ID: "r1", MessageText: "cloud copy"}
		s := NewAnchorService(cloud, newMockLocalStore(), netmon.NewManual(true), nil, 0)

		got, err := s.GetAnchor(ctx, "r1")
		if err != nil || got == nil || got.MessageText != "cloud copy" {
			t.Errorf("expected cloud copy, got %+v (err %v)", got, err)
		}
	})

	t.Run("unknown to cloud but pending locally", func(t *testing.T) {
		local := newMockLocalStore()
		local.anchors["r2"] = entity.Report{ID: "r2", Status: entity.StatusPending}
		s := NewAnchorService(newMockAnchorStore(), local, netmon.NewManual(true), nil, 0)

		got, err := s.GetAnchor(ctx, "r2")
		if err != nil || got == nil || got.ID != "r2" {
			t.Errorf("unsynced report must be found locally, got %+v (err %v)", got, err)
		}
	})

	t.Run("unknown everywhere is nil, not an error", func(t *testing.T) {
		s := NewAnchorService(newMockAnchorStore(), newMockLocalStore(), netmon.NewManual(true), nil, 0)
		got, err := s.GetAnchor(ctx, "nope")
		if err != nil || got != nil {
			t.Errorf("expected nil report without error, got %+v (err %v)", got, err)
		}
	})
}

func TestWatchNearbyEmitsOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cloud := newMockAnchorStore()
	cloud.issues["a"] = entity.Report{ID: "a", Latitude: 12.9716, Longitude: 77.5946}
	s := NewAnchorService(cloud, newMockLocalStore(), netmon.NewManual(true), nil, 5*time.Millisecond)

	updates := s.WatchNearby(ctx, 12.9716, 77.5946, 100)

	// Première émission: l'ensemble initial
	select {
	case got := <-updates:
		if len(got) != 1 || got[0].ID != "a" {
			t.Fatalf("expected initial set with report a, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial emission")
	}

	// Un upvote change l'empreinte de l'ensemble -> nouvelle émission
	if err := s.UpvoteIssue(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-updates:
		if len(got) != 1 || got[0].Upvotes != 1 {
			t.Fatalf("expected updated report with 1 upvote, got %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("no emission after change")
	}

	// L'annulation du contexte ferme le canal
	cancel()
	select {
	case _, ok := <-updates:
		if ok {
			// Une émission résiduelle en vol peut précéder la fermeture
			if _, ok := <-updates; ok {
				t.Error("channel should close after cancellation")
			}
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

func TestUpvoteIssueNotQueued(t *testing.T) {
	ctx := context.Background()
	cloud := newMockAnchorStore()
	cloud.failUpvote = true
	local := newMockLocalStore()
	s := NewAnchorService(cloud, local, netmon.NewManual(true), nil, 0)

	if err := s.UpvoteIssue(ctx, "some-id"); err == nil {
		t.Error("upvote failure must surface to the caller")
	}
	// Best-effort: jamais mis en file d'attente
	if len(local.pendingIDs()) != 0 {
		t.Error("upvote must never be queued for retry")
	}
}

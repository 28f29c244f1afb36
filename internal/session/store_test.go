package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fridell/cartlens/pkg/models"
)

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s := New(Config{TTL: ttl, SweepInterval: time.Hour})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("Create returned empty session ID")
	}
	if sess.Username != "alice" {
		t.Errorf("Username = %q, want alice", sess.Username)
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != sess.ID {
		t.Errorf("Get returned session %s, want %s", got.ID, sess.ID)
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestCreateEmptyUsername(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if _, err := s.Create(context.Background(), ""); !errors.Is(err, models.ErrEmptyUsername) {
		t.Errorf("err = %v, want ErrEmptyUsername", err)
	}
}

func TestGetUnknown(t *testing.T) {
	s := newTestStore(t, time.Hour)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, models.ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
	// Expired sessions are removed on access.
	if s.Len() != 0 {
		t.Errorf("Len() = %d after expiry, want 0", s.Len())
	}
}

func TestGetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Touch at 40s keeps the session alive past the original deadline.
	s.now = func() time.Time { return base.Add(40 * time.Second) }
	if _, err := s.Get(ctx, sess.ID); err != nil {
		t.Fatalf("Get at 40s: %v", err)
	}
	s.now = func() time.Time { return base.Add(80 * time.Second) }
	if _, err := s.Get(ctx, sess.ID); err != nil {
		t.Fatalf("Get at 80s after refresh: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = s.Update(ctx, sess.ID, func(sess *models.Session) error {
		sess.Dataset = &models.Dataset{Filename: "orders.csv"}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Dataset == nil || got.Dataset.Filename != "orders.csv" {
		t.Errorf("update did not stick: %+v", got.Dataset)
	}

	// fn errors propagate without touching other state.
	wantErr := errors.New("boom")
	if err := s.Update(ctx, sess.ID, func(*models.Session) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, sess.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("err after delete = %v, want ErrSessionNotFound", err)
	}
	if err := s.Delete(ctx, sess.ID); !errors.Is(err, models.ErrSessionNotFound) {
		t.Errorf("second delete err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = s.Update(ctx, sess.ID, func(sess *models.Session) error {
		sess.Rules = []models.Rule{{Antecedent: []string{"milk"}, Consequent: []string{"bread"}}}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	snap, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// A later mutation does not reach the snapshot.
	err = s.Update(ctx, sess.ID, func(sess *models.Session) error {
		sess.Rules = nil
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(snap.Rules) != 1 {
		t.Errorf("snapshot has %d rules after update, want 1", len(snap.Rules))
	}

	// Writes to the snapshot do not reach the store.
	snap.Username = "mallory"
	got, err := s.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("stored username = %q, want alice", got.Username)
	}
}

func TestConcurrentGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Hour)

	sess, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Readers inspect snapshot fields while a writer replaces them; the race
	// detector verifies no access escapes the store lock.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			err := s.Update(ctx, sess.ID, func(sess *models.Session) error {
				sess.Rules = make([]models.Rule, i%3)
				sess.Itemsets = make([]models.Itemset, i%2)
				return nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap, err := s.Get(ctx, sess.ID)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			if len(snap.Rules) > 2 || len(snap.Itemsets) > 1 {
				t.Errorf("snapshot has %d rules, %d itemsets", len(snap.Rules), len(snap.Itemsets))
				return
			}
		}
	}()
	wg.Wait()
}

func TestCollectExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }

	if _, err := s.Create(ctx, "alice"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, "bob"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	s.collectExpired()
	if s.Len() != 0 {
		t.Errorf("Len() = %d after sweep, want 0", s.Len())
	}
}

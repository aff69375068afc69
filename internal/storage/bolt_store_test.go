package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-diagnosis-client/internal/domain"
	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

func newSession(id string, now time.Time) *domain.Session {
	d := medapi.NewDiagnosis(medapi.SexFemale, medapi.Years(42))
	d.AddEvidence("s_21", medapi.Present, medapi.WithSource(medapi.SourceInitial))
	return domain.NewSession(id, "", medapi.V3, d, now)
}

func TestBoltStoreSavesAndExpiresSessions(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		SessionTTL:      time.Minute,
		CleanupInterval: time.Minute,
	}

	storeRaw, err := openBolt(dir+"/sessions.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }

	if _, err := store.Load("iv-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected missing session, got %v", err)
	}

	if err := store.Save(newSession("iv-1", now)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load("iv-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Diagnosis == nil || got.Diagnosis.InterviewID != "iv-1" || len(got.Diagnosis.Symptoms) != 1 {
		t.Fatalf("unexpected session %+v", got)
	}

	// Jump past the TTL; the read itself must drop the entry.
	now = now.Add(2 * time.Minute)
	if _, err := store.Load("iv-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session to expire, got %v", err)
	}
}

func TestBoltStoreCleanupSweepsExpired(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/sessions.db", Options{SessionTTL: time.Second, CleanupInterval: time.Second})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	for _, id := range []string{"a", "b"} {
		if err := store.Save(newSession(id, now)); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	now = now.Add(5 * time.Second)
	if err := store.maybeCleanupExpired(now); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if store.lastCleanup.Load() != now.Unix() {
		t.Fatalf("expected cleanup timestamp to advance")
	}
	if _, err := store.Load("b"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected swept session, got %v", err)
	}
}

func TestBoltStoreDelete(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/nested/sessions.db", Options{SessionTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	if err := storeRaw.Save(newSession("iv-2", time.Now())); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := storeRaw.Delete("iv-2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := storeRaw.Load("iv-2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected deleted session, got %v", err)
	}
	if err := storeRaw.Save(&domain.Session{}); err == nil {
		t.Fatalf("expected empty id to be rejected")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.Save(newSession("x", time.Now())); err != nil {
		t.Fatalf("noop store Save: %v", err)
	}
	if _, err := store.Load("x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("noop store must not remember sessions")
	}
}

func TestNewStoreRejectsBadConfig(t *testing.T) {
	if _, err := NewStore("bbolt", "", Options{}); err == nil {
		t.Fatalf("expected bbolt without path to fail")
	}
	if _, err := NewStore("redis", " ", Options{}); err == nil {
		t.Fatalf("expected redis without address to fail")
	}
	if _, err := NewStore("etcd", "x", Options{}); err == nil {
		t.Fatalf("expected unsupported type to fail")
	}
}

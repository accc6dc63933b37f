package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/importer"
	"github.com/rs/zerolog"
)

type fakeScanner struct {
	mu    sync.Mutex
	calls int
	dirs  []string
	err   error
}

func (f *fakeScanner) ScanDir(_ context.Context, dir string) ([]importer.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.dirs = append(f.dirs, dir)
	return []importer.Result{{File: "a.xml"}, {File: "b.xml", Skipped: true}}, f.err
}

func (f *fakeScanner) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestStartScansImmediatelyAndStops(t *testing.T) {
	fs := &fakeScanner{}
	s := New(zerolog.Nop(), fs, Settings{Dir: "in", Interval: time.Hour})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = s.Start(context.Background()) // drugi Start nic nie robi
	deadline := time.Now().Add(2 * time.Second)
	for fs.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !s.IsRunning() {
		t.Error("expected running")
	}
	s.Stop()
	s.Stop()

	if s.IsRunning() {
		t.Error("expected stopped")
	}
	if fs.count() != 1 {
		t.Errorf("expected exactly one scan, got %d", fs.count())
	}
	if st := s.Stats(); st.Ticks != 1 || st.Files != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestTickOnceRecordsError(t *testing.T) {
	fs := &fakeScanner{err: errors.New("boom")}
	s := New(zerolog.Nop(), fs, Settings{Dir: "in"})

	if _, err := s.TickOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if st := s.Stats(); st.LastError != "boom" || st.Running {
		t.Errorf("unexpected stats %+v", st)
	}
}

func TestUpdateSettingsChangesDir(t *testing.T) {
	fs := &fakeScanner{}
	s := New(zerolog.Nop(), fs, Settings{Dir: "old"})
	s.UpdateSettings(context.Background(), Settings{Dir: "new"})

	if _, err := s.TickOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if fs.dirs[0] != "new" {
		t.Errorf("expected scan of new dir, got %v", fs.dirs)
	}
}

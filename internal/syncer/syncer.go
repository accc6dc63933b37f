// internal/syncer/syncer.go
package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/importer"
	"github.com/rs/zerolog"
)

// Scanner to to, co syncer odpala w każdym cyklu (w praktyce *importer.Importer).
type Scanner interface {
	ScanDir(ctx context.Context, dir string) ([]importer.Result, error)
}

type Settings struct {
	Dir      string
	Interval time.Duration
}

// Stats z ostatnich cykli, do podglądu w tray/CLI.
type Stats struct {
	Running   bool      `json:"running"`
	Ticks     uint64    `json:"ticks"`
	Files     int       `json:"files"` // przetworzone (bez pominiętych)
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}

type Syncer struct {
	log     zerolog.Logger // logowanie
	scan    Scanner
	mu      sync.Mutex // ochrona sekcji krytycznych
	set     Settings
	running bool // czy syncer działa
	cancel  context.CancelFunc
	wg      sync.WaitGroup // śledzi goroutines
	stats   Stats
}

func New(log zerolog.Logger, scan Scanner, set Settings) *Syncer {
	return &Syncer{log: log, scan: scan, set: set}
}

func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.wg.Add(1)
	s.mu.Unlock()

	s.log.Info().Str("dir", s.settings().Dir).Dur("interval", s.interval()).Msg("syncer: start")
	go s.loop(ctx)
	return nil
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("syncer: stop")
}

// UpdateSettings podmienia katalog/interwał; działający syncer jest restartowany.
func (s *Syncer) UpdateSettings(ctx context.Context, set Settings) {
	s.mu.Lock()
	s.set = set
	isRunning := s.running
	s.mu.Unlock()

	if isRunning {
		s.log.Info().Msg("syncer: restart po zmianie ustawień")
		s.Stop()
		_ = s.Start(ctx)
	}
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Syncer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Running = s.running
	return st
}

func (s *Syncer) settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

func (s *Syncer) interval() time.Duration {
	if iv := s.settings().Interval; iv > 0 {
		return iv
	}
	return time.Minute
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	// pierwszy strzał od razu
	s.tickOnce(ctx)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("syncer: koniec pętli")
			return
		case <-ticker.C:
			s.tickOnce(ctx)
		}
	}
}

// TickOnce wykonuje jeden cykl od razu (przycisk "Importuj teraz").
func (s *Syncer) TickOnce(ctx context.Context) ([]importer.Result, error) {
	return s.tickOnce(ctx)
}

func (s *Syncer) tickOnce(ctx context.Context) ([]importer.Result, error) {
	dir := s.settings().Dir
	results, err := s.scan.ScanDir(ctx, dir)

	processed := 0
	for _, r := range results {
		if !r.Skipped {
			processed++
		}
	}

	s.mu.Lock()
	s.stats.Ticks++
	s.stats.Files += processed
	s.stats.LastRun = time.Now()
	s.stats.LastError = ""
	if err != nil {
		s.stats.LastError = err.Error()
	}
	n := s.stats.Ticks
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Uint64("tick", n).Msg("syncer: cykl z błędem")
	} else if processed > 0 {
		s.log.Info().Uint64("tick", n).Int("files", processed).Msg("syncer: wczytano dostawy")
	}
	return results, err
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/api"
	conf "github.com/bartek5186/ulvari-mrp/internal/config"
	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/importer"
	logs "github.com/bartek5186/ulvari-mrp/internal/logs"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
	syncer "github.com/bartek5186/ulvari-mrp/internal/syncer"
	"github.com/bartek5186/ulvari-mrp/internal/worksheet"
	"github.com/rs/zerolog"
)

// wersję możesz nadpisać przez: -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

const appName = "ulvari-mrp"

// app trzyma wszystko, czego potrzebują tray i CLI.
type app struct {
	dir     string
	cfgPath string
	logPath string
	log     zerolog.Logger

	cfgMu sync.RWMutex
	cfg   *conf.Config // tylko przez config() / reload()

	dbh   *db.Handle
	svc   *mrp.Service
	imp   *importer.Importer
	sched *syncer.Syncer
}

func bootstrap(console bool) (*app, error) {
	a := &app{dir: mustAppDataDir(appName)}
	a.cfgPath = filepath.Join(a.dir, "config.json")
	a.logPath = filepath.Join(a.dir, "app.log")

	cfg, firstRun, err := conf.LoadOrCreate(a.cfgPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(a.dir)
	a.cfg = cfg
	a.log = logs.New(a.logPath, console || cfg.LogConsole, cfg.LogLevel)
	if firstRun {
		a.log.Info().Msgf("Utworzono domyślną konfigurację: %s", a.cfgPath)
	}

	var dbh *db.Handle
	if cfg.Database.DSN == "" {
		dbh, err = db.OpenAt(a.dir)
	} else {
		dbh, err = db.Open(cfg.Database.Driver, cfg.Database.DSN)
	}
	if err != nil {
		return nil, fmt.Errorf("DB open: %w", err)
	}
	if err := dbh.Migrate(); err != nil {
		_ = dbh.Close()
		return nil, fmt.Errorf("DB migrate: %w", err)
	}
	a.log.Info().Str("driver", dbh.Driver).Str("db", dbh.Path).Msg("DB ready")

	_ = os.MkdirAll(cfg.WorksheetDir, 0o755)
	_ = os.MkdirAll(cfg.ImportDir, 0o755)

	a.dbh = dbh
	a.svc = mrp.New(a.log.With().Str("mod", "mrp").Logger(), dbh.DB)
	a.imp = importer.New(a.log.With().Str("mod", "importer").Logger(), dbh.DB)
	a.sched = syncer.New(a.log.With().Str("mod", "syncer").Logger(), a.imp, syncer.Settings{
		Dir:      cfg.ImportDir,
		Interval: time.Duration(cfg.ImportPollSec) * time.Second,
	})
	return a, nil
}

// background uruchamia cykliczny import dostaw i (opcjonalnie) lokalne API. Kończy się z ctx.
func (a *app) background(ctx context.Context) {
	cfg := a.config()
	if cfg.ImportPollSec > 0 {
		_ = a.sched.Start(ctx)
	}
	if cfg.HTTP.Enabled {
		h := api.NewHandler(a.log, a.svc, a.imp, func() string { return a.config().ImportDir })
		go func() {
			if err := api.Serve(ctx, a.log, cfg.HTTP.Addr, api.NewRouter(a.log, h)); err != nil {
				a.log.Error().Err(err).Msg("http api")
			}
		}()
	}
}

// exportWorksheet zapisuje tööleht projektu w katalogu z configa; pusty format = domyślny.
func (a *app) exportWorksheet(ctx context.Context, projectID uint, format string) (string, error) {
	cfg := a.config()
	if format == "" {
		format = cfg.WorksheetFormat
	}
	s, err := worksheet.Build(ctx, a.svc, projectID)
	if err != nil {
		return "", err
	}
	path, err := worksheet.Save(cfg.WorksheetDir, format, s)
	if err != nil {
		return "", err
	}
	a.log.Info().Uint("project_id", projectID).Str("file", path).Msg("tööleht zapisany")
	return path, nil
}

// reload wczytuje ponownie config.json; zmiana bazy albo adresu API wymaga restartu.
func (a *app) reload(ctx context.Context) error {
	cfg, _, err := conf.LoadOrCreate(a.cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(a.dir)
	a.cfgMu.Lock()
	a.cfg = cfg
	a.cfgMu.Unlock()
	a.sched.UpdateSettings(ctx, syncer.Settings{
		Dir:      cfg.ImportDir,
		Interval: time.Duration(cfg.ImportPollSec) * time.Second,
	})
	a.log.Info().Msg("Konfiguracja przeładowana")
	return nil
}

func (a *app) config() *conf.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.cfg
}

func (a *app) close() {
	a.sched.Stop()
	if err := a.dbh.Close(); err != nil {
		a.log.Error().Err(err).Msg("DB close")
	}
}

func mustAppDataDir(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	p := filepath.Join(base, name)
	_ = os.MkdirAll(p, 0o755)
	return p
}

// przenośne otwieranie plików/katalogów w domyślnej aplikacji
func openInExplorer(path string) {
	switch runtime.GOOS {
	case "windows":
		// "start" musi być uruchomiony przez cmd /C, z pustym tytułem okna ""
		_ = exec.Command("cmd", "/C", "start", "", path).Start()
	case "darwin":
		_ = exec.Command("open", path).Start()
	default:
		_ = exec.Command("xdg-open", path).Start()
	}
}

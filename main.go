//go:build windows && !dev

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/getlantern/systray"
)

func main() {
	a, err := bootstrap(false)
	if err != nil {
		panic(err)
	}
	defer a.close()

	// kontekst sterujący życiem procesu (CTRL+C / zamknięcie sesji)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		systray.Quit()
	}()

	systray.Run(func() {
		// onReady
		systray.SetTitle("Ulvari MRP")
		refreshTooltip(ctx, a)

		mStart := systray.AddMenuItem("Start importu dostaw", "Uruchom cykliczne wczytywanie *.xml")
		mStop := systray.AddMenuItem("Stop importu dostaw", "Zatrzymaj harmonogram")
		mStop.Disable()
		mImport := systray.AddMenuItem("Importuj teraz", "Wczytaj pliki *.xml z katalogu dostaw")
		mRefresh := systray.AddMenuItem("Odśwież podsumowanie", "Przelicz zlecenia w toku")
		systray.AddSeparator()
		mSheets := systray.AddMenuItem("Katalog töölehtów", "Otwórz katalog z wygenerowanymi arkuszami")
		mDeliveries := systray.AddMenuItem("Katalog dostaw", "Otwórz katalog importu")
		mOpenLogs := systray.AddMenuItem("Otwórz logi", "Pokaż plik log")
		mOpenCfg := systray.AddMenuItem("Ustawienia (config.json)", "Otwórz plik konfiguracyjny")
		mReload := systray.AddMenuItem("Przeładuj konfigurację", "Wczytaj ponownie config.json")
		systray.AddSeparator()
		mAbout := systray.AddMenuItem(fmt.Sprintf("O programie (%s)", ver), "")
		mQuit := systray.AddMenuItem("Wyjście", "Zamknij aplikację")

		a.background(ctx)
		if a.sched.IsRunning() {
			mStart.Disable()
			mStop.Enable()
		}

		go func() {
			for {
				select {
				case <-mStart.ClickedCh:
					if err := a.sched.Start(ctx); err != nil {
						a.log.Error().Err(err).Msg("Start error")
						continue
					}
					mStart.Disable()
					mStop.Enable()

				case <-mStop.ClickedCh:
					a.sched.Stop()
					mStop.Disable()
					mStart.Enable()

				case <-mImport.ClickedCh:
					// błąd jest już zalogowany przez syncer
					_, _ = a.sched.TickOnce(ctx)
					refreshTooltip(ctx, a)

				case <-mRefresh.ClickedCh:
					refreshTooltip(ctx, a)

				case <-mSheets.ClickedCh:
					openInExplorer(a.config().WorksheetDir)

				case <-mDeliveries.ClickedCh:
					openInExplorer(a.config().ImportDir)

				case <-mOpenLogs.ClickedCh:
					openInExplorer(a.logPath)

				case <-mOpenCfg.ClickedCh:
					openInExplorer(a.cfgPath)

				case <-mReload.ClickedCh:
					if err := a.reload(ctx); err != nil {
						a.log.Error().Err(err).Msg("Błąd reloadu")
					}

				case <-mAbout.ClickedCh:
					a.log.Info().Msgf("Ulvari MRP %s | %s", ver, runtime.Version())

				case <-mQuit.ClickedCh:
					// łagodne zamykanie
					cancel()
					a.sched.Stop()
					systray.Quit()
					return
				}
			}
		}()
	}, func() {
		// onExit: daj chwilę loggerowi na flush
		time.Sleep(50 * time.Millisecond)
	})
}

func refreshTooltip(ctx context.Context, a *app) {
	ov, err := a.svc.Overview(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("overview")
		systray.SetTooltip(fmt.Sprintf("Ulvari MRP %s — błąd bazy", ver))
		return
	}
	systray.SetTooltip(fmt.Sprintf("Ulvari MRP %s — w toku: %d, oczekuje: %d, dostarczone: %d",
		ver, ov.InProgress, ov.Waiting, ov.Delivered))
}

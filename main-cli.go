//go:build !windows || dev

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/bartek5186/ulvari-mrp/internal/db"
	"github.com/bartek5186/ulvari-mrp/internal/mrp"
)

const help = "Komendy: materials | products | projects | parts <id> | check <id> [n] | start <id> [n] |\n" +
	"         stage <id> <etap> <status> | worksheet <id> [txt|xlsx] | import | history [n] |\n" +
	"         watch <on|off|status> | overview | seed | reload |\n" +
	"         open <logs|config|worksheets|deliveries> | paths | quit"

func main() {
	a, err := bootstrap(true)
	if err != nil {
		fmt.Fprintln(os.Stderr, "start:", err)
		os.Exit(1)
	}
	defer a.close()
	a.log.Info().Msg("Aplikacja (CLI) uruchomiona")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.background(ctx)

	// Prosta pętla poleceń w terminalu
	fmt.Println("Ulvari MRP CLI", ver)
	fmt.Println(help)
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			// EOF
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		cmd := strings.ToLower(args[0])
		if cmd == "quit" || cmd == "exit" {
			cancel()
			a.sched.Stop()
			time.Sleep(50 * time.Millisecond)
			return
		}
		if err := a.run(ctx, cmd, args[1:]); err != nil {
			a.log.Error().Err(err).Str("cmd", cmd).Msg("komenda nieudana")
			fmt.Println("Błąd:", err)
		}
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "materials":
		items, err := a.svc.Materials(ctx)
		if err != nil {
			return err
		}
		for _, m := range items {
			fmt.Printf("%4d  %-40s %6d  %s\n", m.ID, m.Name, m.StockQty, m.Kind)
		}

	case "products":
		items, err := a.svc.Products(ctx, args...)
		if err != nil {
			return err
		}
		for _, p := range items {
			cats := make([]string, 0, len(p.Categories))
			for _, c := range p.Categories {
				cats = append(cats, c.Name)
			}
			fmt.Printf("%4d  %-30s [%s]\n", p.ID, p.Name, strings.Join(cats, ", "))
		}

	case "projects":
		items, err := a.svc.Projects(ctx)
		if err != nil {
			return err
		}
		for _, p := range items {
			labels := make([]string, 0, len(db.Stages))
			for _, st := range db.Stages {
				labels = append(labels, p.Stage(st).Label())
			}
			fmt.Printf("%4d  %-25s %-20s x%-3d %s\n", p.ID, p.Name, p.ProductName, p.Quantity, strings.Join(labels, " "))
		}

	case "parts":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		parts, err := a.svc.ProjectParts(ctx, id)
		if err != nil {
			return err
		}
		for _, pp := range parts {
			name := fmt.Sprintf("#%d", pp.MaterialID)
			if pp.Material != nil {
				name = pp.Material.Name
			}
			fmt.Printf("  %-40s %6d\n", name, pp.QuantityRequired)
		}

	case "check":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		items, err := a.svc.CheckAvailability(ctx, id, argTimes(args))
		if err != nil {
			return err
		}
		for _, av := range items {
			mark := "OK"
			if !av.OK() {
				mark = fmt.Sprintf("BRAK %d", av.Shortfall)
			}
			fmt.Printf("  %-40s potrzeba %6d  stan %6d  %s\n", av.MaterialName, av.Required, av.InStock, mark)
		}

	case "start":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		n := argTimes(args)
		done, err := a.svc.StartProject(ctx, id, n)
		fmt.Printf("Wykonano %d z %d\n", done, n)
		var short *mrp.InsufficientStockError
		if errors.As(err, &short) {
			fmt.Printf("Za mało materiału %s: potrzeba %d, jest %d\n", short.Material(), short.Required, short.Available)
		}
		return err

	case "stage":
		if len(args) < 3 {
			return errors.New("użycie: stage <id> <etap> <status>")
		}
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		st, ok := db.ParseStage(args[1])
		if !ok {
			return fmt.Errorf("nieznany etap %q", args[1])
		}
		status, err := db.ParseStageStatus(strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		if _, err := a.svc.SetStage(ctx, id, st, status); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", st, status.Label())

	case "worksheet":
		id, err := argID(args, 0)
		if err != nil {
			return err
		}
		format := ""
		if len(args) > 1 {
			format = args[1]
		}
		path, err := a.exportWorksheet(ctx, id, format)
		if err != nil {
			return err
		}
		fmt.Println("Zapisano:", path)

	case "import":
		results, err := a.sched.TickOnce(ctx)
		for _, r := range results {
			if r.Skipped {
				fmt.Printf("  %s: pominięty\n", r.File)
				continue
			}
			fmt.Printf("  %s: %d linii, %d nowych materiałów\n", r.File, r.Lines, r.Created)
		}
		return err

	case "watch":
		sub := "status"
		if len(args) > 0 {
			sub = args[0]
		}
		switch sub {
		case "on":
			if err := a.sched.Start(ctx); err != nil {
				return err
			}
		case "off":
			a.sched.Stop()
		case "status":
		default:
			return errors.New("użycie: watch <on|off|status>")
		}
		st := a.sched.Stats()
		if st.Running {
			fmt.Println("Status: DZIAŁA")
		} else {
			fmt.Println("Status: ZATRZYMANY")
		}
		fmt.Printf("Cykli: %d, wczytanych plików: %d", st.Ticks, st.Files)
		if st.LastError != "" {
			fmt.Printf(", ostatni błąd: %s", st.LastError)
		}
		fmt.Println()

	case "reload":
		if err := a.reload(ctx); err != nil {
			return err
		}
		fmt.Println("Konfiguracja przeładowana")

	case "history":
		limit := 20
		if len(args) > 0 {
			if n, err := strconv.Atoi(args[0]); err == nil {
				limit = n
			}
		}
		items, err := a.svc.History(ctx, mrp.HistoryFilter{Limit: limit})
		if err != nil {
			return err
		}
		for _, h := range items {
			fmt.Printf("%s  %-16s %s\n", h.Timestamp.Local().Format("2006-01-02 15:04"), h.Action, h.Details)
		}

	case "overview":
		ov, err := a.svc.Overview(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Zlecenia: %d | dostarczone: %d | w toku: %d | oczekujące: %d\n",
			ov.Total, ov.Delivered, ov.InProgress, ov.Waiting)
		for _, sc := range ov.Stages {
			fmt.Printf("  %-10s ootel %3d  töös %3d  valmis %3d\n", sc.Title, sc.Waiting, sc.InProgress, sc.Done)
		}

	case "seed":
		added, err := a.svc.SeedDemo(ctx)
		if err != nil {
			return err
		}
		if !added {
			fmt.Println("Dane demo już są")
			return nil
		}
		fmt.Println("Dane demo dodane")

	case "open":
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		switch target {
		case "logs":
			openInExplorer(a.logPath)
		case "config":
			openInExplorer(a.cfgPath)
		case "worksheets":
			openInExplorer(a.config().WorksheetDir)
		case "deliveries":
			openInExplorer(a.config().ImportDir)
		default:
			return errors.New("użycie: open <logs|config|worksheets|deliveries>")
		}

	case "paths":
		fmt.Println("Logi:", a.logPath)
		fmt.Println("Config:", a.cfgPath)
		fmt.Println("Baza:", a.dbh.Path)
		fmt.Println("Töölehed:", a.config().WorksheetDir)
		fmt.Println("Dostawy:", a.config().ImportDir)

	default:
		fmt.Println("Nieznana komenda.")
		fmt.Println(help)
	}
	return nil
}

func argID(args []string, i int) (uint, error) {
	if len(args) <= i {
		return 0, errors.New("brak id")
	}
	v, err := strconv.ParseUint(args[i], 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("niepoprawne id %q", args[i])
	}
	return uint(v), nil
}

// argTimes czyta opcjonalny mnożnik z drugiego argumentu (domyślnie 1).
func argTimes(args []string) int {
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[1]); err == nil {
			return n
		}
	}
	return 1
}

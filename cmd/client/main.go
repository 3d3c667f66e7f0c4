package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	apiclient "github.com/bchampine/erops/pkg/api/client"
	"github.com/bchampine/erops/pkg/config"
	"github.com/bchampine/erops/pkg/game"
	"github.com/bchampine/erops/pkg/game/actions"
	"github.com/bchampine/erops/pkg/game/types"
	"github.com/bchampine/erops/pkg/log"
	"github.com/bchampine/erops/pkg/queue"
	"github.com/bchampine/erops/pkg/repositories"
	"github.com/bchampine/erops/pkg/version"
	"github.com/bchampine/erops/pkg/workers"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	serverURL := flag.String("server-url", "", "Base URL of the game server")
	logLevel := flag.String("log-level", "", "Log level")
	dbPath := flag.String("db", "", "Path to the local sqlite session log")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	parsedLogLevel, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}
	logger := log.New(os.Stderr, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)

	log.Info("Starting client version %s", version.Get())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	service := apiclient.NewClient(apiclient.NewClientOptions{
		BaseURL: cfg.ServerURL,
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
	})

	var repository repositories.Repository
	var snapshotQueue queue.Queue
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		repository = repositories.NewPostgresRepository(ctx, connStr)
	} else {
		repository, err = repositories.NewSQLiteRepository(ctx, cfg.DBPath, cfg.MigrationsDir)
		if err != nil {
			log.Warn("Local session log disabled: %v", err)
			repository = nil
		}
	}
	if repository != nil {
		defer repository.Close(context.Background())
		snapshotQueue = queue.NewInMemoryQueue(1024)
		saveWorker := workers.NewSaveSessionWorker(workers.NewSaveSessionWorkerOptions{
			Repository:    repository,
			SnapshotQueue: snapshotQueue,
			Interval:      time.Duration(cfg.SaveIntervalSeconds) * time.Second,
		})
		go saveWorker.Start(ctx)
	}

	manager := game.NewSessionManager(game.NewSessionManagerOptions{
		Service:       service,
		SnapshotQueue: snapshotQueue,
		EventSeed:     cfg.EventSeed,
	})

	repl := &repl{
		manager:    manager,
		service:    service,
		repository: repository,
	}
	repl.run(ctx)
}

type repl struct {
	manager    *game.SessionManager
	service    *apiclient.Client
	repository repositories.Repository
}

func (r *repl) run(ctx context.Context) {
	fmt.Println(renderTitle(version.Get()))
	fmt.Println("Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(renderPrompt(r.manager.State()))
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		r.dispatch(ctx, fields[0], fields[1:])
		if errMsg := r.manager.Err(); errMsg != "" {
			fmt.Println(renderError(errMsg))
			r.manager.ClearError()
		}
	}
}

func (r *repl) dispatch(ctx context.Context, command string, args []string) {
	switch command {
	case "help":
		fmt.Println(helpText)
	case "new":
		r.manager.CreateSession(ctx, nil)
		r.printState()
	case "state":
		r.printState()
	case "cards":
		fmt.Println(renderCards(r.manager.CardForm()))
	case "set":
		r.setCard(args)
	case "reset":
		r.manager.CardForm().Reset()
		fmt.Println("Card edits reset to this round's defaults.")
	case "event":
		r.manager.RunEvent(ctx)
		r.printState()
	case "arrivals":
		r.manager.SubmitArrivals(ctx, defaultArrivalsForm(r.manager.State()))
		r.printState()
	case "exits":
		r.manager.SubmitExits(ctx, r.defaultExitsForm())
		r.printState()
	case "closed":
		form, err := parseClosedArgs(args)
		if err != nil {
			fmt.Println(renderError(err.Error()))
			return
		}
		r.manager.SubmitClosed(ctx, form)
		r.printState()
	case "staffing":
		form, err := parseStaffingArgs(args)
		if err != nil {
			fmt.Println(renderError(err.Error()))
			return
		}
		r.manager.SubmitStaffing(ctx, form)
		r.printState()
	case "paper":
		r.manager.SubmitPaperwork(ctx)
		r.printState()
	case "rec":
		fmt.Println(renderRecommendation(r.manager.Recommendation()))
	case "apply":
		r.manager.ApplyRecommendation(ctx)
		r.printState()
	case "history":
		r.printHistory(ctx)
	case "replay":
		r.printReplay(ctx)
	case "export":
		r.export(ctx, args)
	case "last":
		r.printLastSnapshot(ctx)
	default:
		fmt.Printf("Unknown command %q. Type 'help' for commands.\n", command)
	}
}

func (r *repl) printState() {
	state := r.manager.State()
	if state == nil {
		fmt.Println("No active session. Use 'new' to start one.")
		return
	}
	fmt.Println(renderState(state))
}

func (r *repl) setCard(args []string) {
	if len(args) != 3 {
		fmt.Println(renderError("usage: set arrivals|exits <dept> <count>"))
		return
	}
	dept := types.DepartmentID(args[1])
	if !dept.Valid() {
		fmt.Println(renderError(fmt.Sprintf("unknown department %q", args[1])))
		return
	}
	count, err := strconv.Atoi(args[2])
	if err != nil {
		fmt.Println(renderError(fmt.Sprintf("invalid count %q", args[2])))
		return
	}
	form := r.manager.CardForm()
	switch args[0] {
	case "arrivals":
		form.SetArrivals(dept, count)
	case "exits":
		form.SetExits(dept, count)
	default:
		fmt.Println(renderError("usage: set arrivals|exits <dept> <count>"))
		return
	}
	fmt.Println(renderCards(form))
}

func (r *repl) printHistory(ctx context.Context) {
	sessionID := r.manager.SessionID()
	if sessionID == "" {
		fmt.Println("No active session.")
		return
	}
	history, err := r.service.History(ctx, sessionID)
	if err != nil {
		fmt.Println(renderError(err.Error()))
		return
	}
	fmt.Println(renderHistory(history))
}

func (r *repl) printReplay(ctx context.Context) {
	sessionID := r.manager.SessionID()
	if sessionID == "" {
		fmt.Println("No active session.")
		return
	}
	replay, err := r.service.Replay(ctx, sessionID)
	if err != nil {
		fmt.Println(renderError(err.Error()))
		return
	}
	fmt.Println(renderReplay(replay))
}

func (r *repl) export(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Println(renderError("usage: export <file>"))
		return
	}
	sessionID := r.manager.SessionID()
	if sessionID == "" {
		fmt.Println("No active session.")
		return
	}
	stream, err := r.service.ExportCSV(ctx, sessionID)
	if err != nil {
		fmt.Println(renderError(err.Error()))
		return
	}
	defer stream.Close()

	file, err := os.Create(args[0])
	if err != nil {
		fmt.Println(renderError(err.Error()))
		return
	}
	defer file.Close()

	written, err := io.Copy(file, stream)
	if err != nil {
		fmt.Println(renderError(err.Error()))
		return
	}
	fmt.Printf("Wrote %d bytes to %s\n", written, args[0])
}

func (r *repl) printLastSnapshot(ctx context.Context) {
	if r.repository == nil {
		fmt.Println("Local session log is disabled.")
		return
	}
	sessionID := r.manager.SessionID()
	if sessionID == "" {
		fmt.Println("No active session.")
		return
	}
	state, err := r.repository.LatestRoundState(ctx, sessionID)
	if err != nil {
		if repositories.IsNotFound(err) {
			fmt.Println("No snapshots saved yet.")
			return
		}
		fmt.Println(renderError(err.Error()))
		return
	}
	fmt.Println(renderState(state))
}

// defaultArrivalsForm admits and accepts as many patients as idle staff
// and (for hard-capped departments) free beds allow. The engine still
// validates; this is only a convenient starting decision.
func defaultArrivalsForm(state *types.RoundState) actions.ArrivalsForm {
	form := actions.ArrivalsForm{
		Admit:  map[types.DepartmentID]int{},
		Accept: map[types.DepartmentID]map[types.DepartmentID]int{},
	}
	if state == nil {
		return form
	}
	for _, deptID := range types.AllDepartments() {
		dept := state.Department(deptID)
		if dept == nil {
			continue
		}
		budget := dept.Staff.TotalIdle()
		beds, bounded := dept.FreeBeds()
		hardCap := bounded && !deptID.HasHallway()

		admit := min(dept.ArrivalsWaiting, budget)
		if hardCap {
			admit = min(admit, beds)
		}
		if admit > 0 {
			form.Admit[deptID] = admit
			budget -= admit
			beds -= admit
		}

		for _, from := range types.AllDepartments() {
			waiting := dept.RequestsWaiting[from]
			accept := min(waiting, budget)
			if hardCap {
				accept = min(accept, beds)
			}
			if accept <= 0 {
				continue
			}
			if form.Accept[deptID] == nil {
				form.Accept[deptID] = map[types.DepartmentID]int{}
			}
			form.Accept[deptID][from] = accept
			budget -= accept
			beds -= accept
		}
	}
	return form
}

// defaultExitsForm walks out this round's card exits, capped by census.
func (r *repl) defaultExitsForm() actions.ExitsForm {
	form := actions.ExitsForm{
		Walkouts:  map[types.DepartmentID]int{},
		Transfers: map[types.DepartmentID]map[types.DepartmentID]int{},
	}
	state := r.manager.State()
	if state == nil {
		return form
	}
	cardForm := r.manager.CardForm()
	for _, deptID := range types.AllDepartments() {
		dept := state.Department(deptID)
		if dept == nil {
			continue
		}
		walkout := min(cardForm.Exits(deptID), dept.TotalPatients())
		if walkout > 0 {
			form.Walkouts[deptID] = walkout
		}
	}
	return form
}

func parseClosedArgs(args []string) (actions.ClosedForm, error) {
	form := actions.ClosedForm{Closed: map[types.DepartmentID]bool{}}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "divert":
			form.DivertER = true
		case "close", "open":
			if i+1 >= len(args) {
				return form, fmt.Errorf("usage: closed [close <dept>] [open <dept>] [divert]")
			}
			dept := types.DepartmentID(args[i+1])
			if !dept.Valid() {
				return form, fmt.Errorf("unknown department %q", args[i+1])
			}
			form.Closed[dept] = args[i] == "close"
			i++
		default:
			return form, fmt.Errorf("unknown argument %q", args[i])
		}
	}
	return form, nil
}

func parseStaffingArgs(args []string) (actions.StaffingForm, error) {
	form := actions.StaffingForm{
		ExtraStaff:  map[types.DepartmentID]int{},
		ReturnExtra: map[types.DepartmentID]int{},
	}
	usage := fmt.Errorf("usage: staffing [call <dept> <n>] [return <dept> <n>] [move <from> <to> <n>]")
	for i := 0; i < len(args); {
		switch args[i] {
		case "call", "return":
			if i+2 >= len(args) {
				return form, usage
			}
			dept := types.DepartmentID(args[i+1])
			if !dept.Valid() {
				return form, fmt.Errorf("unknown department %q", args[i+1])
			}
			count, err := strconv.Atoi(args[i+2])
			if err != nil {
				return form, fmt.Errorf("invalid count %q", args[i+2])
			}
			if args[i] == "call" {
				form.ExtraStaff[dept] = count
			} else {
				form.ReturnExtra[dept] = count
			}
			i += 3
		case "move":
			if i+3 >= len(args) {
				return form, usage
			}
			from := types.DepartmentID(args[i+1])
			to := types.DepartmentID(args[i+2])
			if !from.Valid() || !to.Valid() {
				return form, fmt.Errorf("unknown department in move")
			}
			count, err := strconv.Atoi(args[i+3])
			if err != nil {
				return form, fmt.Errorf("invalid count %q", args[i+3])
			}
			form.Transfers = append(form.Transfers, actions.StaffTransfer{
				FromDept: from,
				ToDept:   to,
				Count:    count,
			})
			i += 4
		default:
			return form, usage
		}
	}
	return form, nil
}

const helpText = `Commands:
  new                                 start a new session
  state                               show the current round state
  cards                               show this round's card values
  set arrivals|exits <dept> <count>   edit a card value
  reset                               undo card edits
  event                               run the event step (submits card edits)
  arrivals                            submit arrivals (admit/accept maximum)
  exits                               submit exits (walk out card exits)
  closed [close <dept>] [open <dept>] [divert]
  staffing [call <dept> <n>] [return <dept> <n>] [move <from> <to> <n>]
  paper                               submit paperwork, advancing the round
  rec                                 show the advisor's recommendation
  apply                               submit the advisor's recommended action
  history                             show per-round costs
  replay                              show the game replay summary
  export <file>                       save the CSV scoring worksheet
  last                                show the last locally saved snapshot
  quit`

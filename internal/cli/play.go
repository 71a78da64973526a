package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/gatehouse/internal/bitmatrix"
	"github.com/roach88/gatehouse/internal/config"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
	"github.com/roach88/gatehouse/internal/random"
	"github.com/roach88/gatehouse/internal/room"
	"github.com/roach88/gatehouse/internal/store"
)

// Room ids of the level built by play.
const (
	LogicRoomID      = "logic"
	ComparisonRoomID = "comparison"
)

// PlayOptions holds flags for the play command. Flags left unset fall back
// to the GATEHOUSE_* environment.
type PlayOptions struct {
	*RootOptions
	Database    string
	MetricsAddr string
	Seed        int64
	RetryDelay  time.Duration
	Tick        time.Duration
	Numbers     int
	Groups      int

	// Input replaces stdin (for testing).
	Input io.Reader

	// Sessions overrides the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	Sessions engine.SessionGenerator
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <wiring-file>",
		Short: "Play the logic and comparison rooms",
		Long: `Build a two-room level and read commands from stdin.

The logic room is built from the wiring file; the comparison room is
locked until the logic room is solved. Completions and every observation
event are stored in the SQLite database, so a solved room stays solved.

Commands:
  enter <room>                      enter logic or comparison
  gate <group> <slot> <AND|OR> [!]  place a gate, ! negates it
  ungate <group> <slot>             remove a gate
  sign <group> <pair> <GT|LT|>|<>   place a comparison sign
  tick <duration>                   advance time, e.g. tick 2s
  show                              print the current room
  status                            print completion and lock state
  quit

Example:
  gatehouse play --db ./gatehouse.db ./wiring.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (env GATEHOUSE_DB)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "generation seed (default: random)")
	cmd.Flags().DurationVar(&opts.RetryDelay, "retry-delay", 0, "delay before a wrong pair resets")
	cmd.Flags().DurationVar(&opts.Tick, "tick", 0, "host tick interval, 0 disables ticking")
	cmd.Flags().IntVar(&opts.Numbers, "numbers", 0, "numbers per comparison group (even)")
	cmd.Flags().IntVar(&opts.Groups, "groups", 0, "comparison groups")

	return cmd
}

// resolveConfig reads the environment and applies the flags that were set.
func resolveConfig(opts *PlayOptions, cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = opts.Database
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	if flags.Changed("seed") {
		seed := opts.Seed
		cfg.Seed = &seed
	}
	if flags.Changed("retry-delay") {
		cfg.RetryDelay = opts.RetryDelay
	}
	if flags.Changed("tick") {
		cfg.TickInterval = opts.Tick
	}
	if flags.Changed("numbers") {
		cfg.NumbersPerGroup = opts.Numbers
	}
	if flags.Changed("groups") {
		cfg.ComparisonGroups = opts.Groups
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runPlay(opts *PlayOptions, wiringPath string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	configureLogging(opts.Verbose, cfg.SlogLevel())
	formatter := newFormatter(opts.RootOptions, cmd)
	out := &lockedWriter{w: formatter.Writer}
	formatter.Writer = out

	res, loadErrors := LoadWiring(wiringPath)
	if res == nil {
		return WrapExitError(ExitCommandError, "failed to load wiring", loadErrors[0])
	}
	for _, le := range loadErrors {
		// Recoverable: the offending slot stays inert.
		slog.Warn("wiring error", "code", le.Code, "message", le.Message)
	}

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("opening database", "path", cfg.DBPath)
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Continue the logged seq so event ids never collide across runs.
	maxSeq, err := st.MaxSeq(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read event log", err)
	}

	seed, source, err := random.ResolveSeed(cfg.Seed, random.NewSeed)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to seed generator", err)
	}
	slog.Info("generation seed", "seed", seed, "source", source)

	eventLog := store.NewEventLog(ctx, st)
	emitter := engine.NewEmitter(engine.NewClockAt(maxSeq), eventLog)
	if !formatter.JSON() {
		emitter.Subscribe(eventPrinter(out))
	}

	level, err := buildLevel(res.Table, cfg, seed, st, emitter, opts.Sessions)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build level", err)
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	host := room.NewHost(level, room.WithTickInterval(cfg.TickInterval))
	hostDone := make(chan error, 1)
	go func() { hostDone <- host.Run(ctx) }()

	input := opts.Input
	if input == nil {
		input = cmd.InOrStdin()
	}

	fmt.Fprintf(formatter.GetErrWriter(), "Level ready: %s, %s. Type commands, quit to stop.\n", LogicRoomID, ComparisonRoomID)
	readErr := commandLoop(ctx, host, formatter, input)

	host.Stop()
	if err := <-hostDone; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "host error", err)
	}
	if err := eventLog.Err(); err != nil {
		return WrapExitError(ExitFailure, "event log write failed", err)
	}
	if readErr != nil {
		return WrapExitError(ExitCommandError, "failed to read input", readErr)
	}
	slog.Info("play stopped")
	return nil
}

// buildLevel creates the logic room and the comparison room behind it.
func buildLevel(table *ir.WiringTable, cfg config.Config, seed int64, st *store.Store, emitter *engine.Emitter, sessions engine.SessionGenerator) (*room.Level, error) {
	common := []room.Option{room.WithStore(st), room.WithEmitter(emitter)}
	if sessions != nil {
		common = append(common, room.WithSessions(sessions))
	}

	logic := room.NewLogicRoom(LogicRoomID, table,
		append(common, room.WithRNG(random.New(seed)))...)
	comparison, err := room.NewComparisonRoom(ComparisonRoomID, cfg.ComparisonGroups, cfg.NumbersPerGroup, cfg.RetryDelay,
		append(common, room.WithRNG(random.New(seed+1)))...)
	if err != nil {
		return nil, err
	}
	return room.NewLevel(st, logic, comparison)
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		slog.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}

// eventPrinter renders observation events as text lines.
func eventPrinter(w io.Writer) engine.Observer {
	return engine.ObserverFunc(func(e engine.Event) {
		fields := e.Payload()
		delete(fields, "kind")
		fmt.Fprintf(w, "  · [%d] %s %s\n", e.Seq, e.Kind, formatFields(fields))
	})
}

// commandLoop reads one command per line until quit, EOF or ctx ends.
// A failing command is reported and the loop continues.
func commandLoop(ctx context.Context, host *room.Host, f *OutputFormatter, input io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			quit := execute(ctx, host, f, line)
			if quit {
				return nil
			}
		}
	}
}

// CommandResult is the JSON payload of one play command.
type CommandResult struct {
	Command   string            `json:"command"`
	Correct   *bool             `json:"correct,omitempty"`
	Retry     *bool             `json:"retry,omitempty"`
	Satisfied *bool             `json:"satisfied,omitempty"`
	Completed bool              `json:"completed"`
	Rooms     []room.RoomStatus `json:"rooms,omitempty"`
	View      any               `json:"view,omitempty"`
}

// execute runs one command line and reports whether play should stop.
func execute(ctx context.Context, host *room.Host, f *OutputFormatter, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	var res *CommandResult
	var err error
	switch name {
	case "quit", "exit":
		return true
	case "enter":
		res, err = cmdEnter(ctx, host, args)
	case "gate":
		res, err = cmdGate(ctx, host, args)
	case "ungate":
		res, err = cmdUngate(ctx, host, args)
	case "sign":
		res, err = cmdSign(ctx, host, args)
	case "tick":
		res, err = cmdTick(ctx, host, args)
	case "show":
		res, err = cmdShow(ctx, host)
	case "status":
		res, err = cmdStatus(ctx, host)
	default:
		err = fmt.Errorf("unknown command %q", name)
	}

	if err != nil {
		_ = f.Error(commandErrorCode(err), err.Error(), nil)
		return false
	}
	res.Command = name
	printCommandResult(f, res)
	return false
}

// commandErrorCode maps a command failure onto a stable code.
func commandErrorCode(err error) string {
	if code, ok := engine.CodeOf(err); ok {
		return string(code)
	}
	switch {
	case errors.Is(err, room.ErrRoomCompleted):
		return "ROOM_COMPLETED"
	case errors.Is(err, room.ErrRoomLocked):
		return "ROOM_LOCKED"
	case errors.Is(err, room.ErrNotEntered):
		return "NOT_ENTERED"
	}
	return ErrCodeGeneric
}

func usage(format string) error {
	return fmt.Errorf("usage: %s", format)
}

func cmdEnter(ctx context.Context, host *room.Host, args []string) (*CommandResult, error) {
	if len(args) != 1 {
		return nil, usage("enter <room>")
	}
	if err := host.EnterRoom(ctx, args[0]); err != nil {
		return nil, err
	}
	res := &CommandResult{}
	err := host.Do(ctx, func(ctx context.Context, l *room.Level) error {
		res.Completed = l.Current().Completed()
		return nil
	})
	return res, err
}

func cmdGate(ctx context.Context, host *room.Host, args []string) (*CommandResult, error) {
	if len(args) < 3 || len(args) > 4 {
		return nil, usage("gate <group> <slot> <AND|OR> [!]")
	}
	op, err := ir.ParseGateOp(args[2])
	if err != nil {
		return nil, err
	}
	negate := false
	if len(args) == 4 {
		if args[3] != "!" {
			return nil, usage("gate <group> <slot> <AND|OR> [!]")
		}
		negate = true
	}
	out, err := host.PlaceGate(ctx, args[0], args[1], op, negate)
	if err != nil {
		return nil, err
	}
	return &CommandResult{Satisfied: &out.Satisfied, Completed: out.Completed}, nil
}

func cmdUngate(ctx context.Context, host *room.Host, args []string) (*CommandResult, error) {
	if len(args) != 2 {
		return nil, usage("ungate <group> <slot>")
	}
	var out room.Outcome
	err := host.Do(ctx, func(ctx context.Context, l *room.Level) error {
		r, ok := l.Current().(*room.LogicRoom)
		if !ok {
			return errors.New("current room is not a logic room")
		}
		var err error
		out, err = r.RemoveGate(ctx, args[0], args[1])
		return err
	})
	if err != nil {
		return nil, err
	}
	return &CommandResult{Satisfied: &out.Satisfied, Completed: out.Completed}, nil
}

func cmdSign(ctx context.Context, host *room.Host, args []string) (*CommandResult, error) {
	if len(args) != 3 {
		return nil, usage("sign <group> <pair> <GT|LT>")
	}
	group, err := strconv.Atoi(args[0])
	if err != nil {
		return nil, fmt.Errorf("group: %w", err)
	}
	pair, err := strconv.Atoi(args[1])
	if err != nil {
		return nil, fmt.Errorf("pair: %w", err)
	}
	kind, err := ir.ParseSignKind(args[2])
	if err != nil {
		return nil, err
	}
	p, err := host.PlaceSign(ctx, group, pair, kind)
	if err != nil {
		return nil, err
	}
	return &CommandResult{Correct: &p.Correct, Retry: &p.RetryScheduled, Completed: p.Completed}, nil
}

func cmdTick(ctx context.Context, host *room.Host, args []string) (*CommandResult, error) {
	if len(args) != 1 {
		return nil, usage("tick <duration>")
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return nil, err
	}
	if err := host.Tick(ctx, d); err != nil {
		return nil, err
	}
	return &CommandResult{}, nil
}

func cmdStatus(ctx context.Context, host *room.Host) (*CommandResult, error) {
	res := &CommandResult{}
	err := host.Do(ctx, func(ctx context.Context, l *room.Level) error {
		rooms, err := l.Status(ctx)
		res.Rooms = rooms
		return err
	})
	return res, err
}

// LogicView is the show output of a logic room.
type LogicView struct {
	Room   string            `json:"room"`
	Target string            `json:"target"`
	Goal   string            `json:"goal"`
	Groups map[string]string `json:"groups"` // group -> goal bit, "-" when unset
}

// ComparisonView is the show output of a comparison room.
type ComparisonView struct {
	Room   string     `json:"room"`
	Groups [][]string `json:"groups"` // per group: "a ? b" per pair
}

func cmdShow(ctx context.Context, host *room.Host) (*CommandResult, error) {
	res := &CommandResult{}
	err := host.Do(ctx, func(ctx context.Context, l *room.Level) error {
		cur := l.Current()
		if cur == nil {
			return room.ErrNotEntered
		}
		res.Completed = cur.Completed()
		switch r := cur.(type) {
		case *room.LogicRoom:
			res.View = logicView(r)
		case *room.ComparisonRoom:
			res.View = comparisonView(r)
		}
		return nil
	})
	return res, err
}

func logicView(r *room.LogicRoom) LogicView {
	v := LogicView{Room: r.ID(), Groups: map[string]string{}}
	if g := r.Goal(); g != nil && g.Width() > 0 {
		v.Target = g.TargetString()
		v.Goal = g.CurrentString()
	}
	g := r.Goal()
	for _, group := range r.Table().Groups {
		var value, set bool
		if g != nil {
			value, set = g.Bit(group.Index)
		}
		switch {
		case !set:
			v.Groups[group.Name] = "-"
		case value:
			v.Groups[group.Name] = "1"
		default:
			v.Groups[group.Name] = "0"
		}
	}
	return v
}

func comparisonView(r *room.ComparisonRoom) ComparisonView {
	v := ComparisonView{Room: r.ID()}
	p := r.Puzzle()
	if p == nil {
		return v
	}
	for g := 0; g < p.Groups(); g++ {
		var pairs []string
		for pair := 0; pair < p.Pairs(); pair++ {
			pairs = append(pairs, describePair(p, g, pair))
		}
		v.Groups = append(v.Groups, pairs)
	}
	return v
}

func describePair(p *bitmatrix.Puzzle, g, pair int) string {
	left, _ := p.NumberValue(g, 2*pair)
	right, _ := p.NumberValue(g, 2*pair+1)
	st, _ := p.State(g, pair)
	sign := "?"
	switch {
	case st.Correct:
		sign = st.Kind.Symbol()
	case st.Placed:
		sign = st.Kind.Symbol() + "✗"
	}
	return fmt.Sprintf("%08b %s %08b", left, sign, right)
}

func printCommandResult(f *OutputFormatter, res *CommandResult) {
	if f.JSON() {
		_ = f.Success(res)
		return
	}
	w := f.Writer
	switch res.Command {
	case "status":
		for _, r := range res.Rooms {
			state := "open"
			switch {
			case r.Completed:
				state = "completed"
			case r.Locked:
				state = "locked"
			}
			fmt.Fprintf(w, "%s: %s\n", r.ID, state)
		}
		return
	case "show":
		switch v := res.View.(type) {
		case LogicView:
			fmt.Fprintf(w, "%s target=%s goal=%s\n", v.Room, v.Target, v.Goal)
			for _, g := range slices.Sorted(maps.Keys(v.Groups)) {
				fmt.Fprintf(w, "  %s: %s\n", g, v.Groups[g])
			}
		case ComparisonView:
			fmt.Fprintln(w, v.Room)
			for g, pairs := range v.Groups {
				for p, desc := range pairs {
					fmt.Fprintf(w, "  %d/%d  %s\n", g, p, desc)
				}
			}
		}
		if res.Completed {
			fmt.Fprintln(w, "  (completed)")
		}
		return
	}

	var parts []string
	if res.Correct != nil {
		parts = append(parts, fmt.Sprintf("correct=%t", *res.Correct))
	}
	if res.Retry != nil && *res.Retry {
		parts = append(parts, "retry scheduled")
	}
	if res.Satisfied != nil {
		parts = append(parts, fmt.Sprintf("satisfied=%t", *res.Satisfied))
	}
	if res.Completed {
		parts = append(parts, "room completed")
	}
	if len(parts) == 0 {
		parts = append(parts, "ok")
	}
	fmt.Fprintf(w, "%s: %s\n", res.Command, strings.Join(parts, ", "))
}

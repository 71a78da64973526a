package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/config"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/room"
	"github.com/roach88/gatehouse/internal/store"
	"github.com/roach88/gatehouse/internal/testutil"
)

var playWiring = filepath.Join("testdata", "walls.json")

func executePlay(t *testing.T, format, db, script string, extra ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewPlayCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(script))
	args := append([]string{playWiring, "--db", db, "--seed", "5", "--tick", "0", "--groups", "1", "--numbers", "2"}, extra...)
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func maxSeq(t *testing.T, db string) int64 {
	t.Helper()
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	seq, err := st.MaxSeq(context.Background())
	require.NoError(t, err)
	return seq
}

func TestPlay_CommandLoop(t *testing.T) {
	db := filepath.Join(t.TempDir(), "play.db")
	script := strings.Join([]string{
		"enter comparison",
		"# comments and blank lines are ignored",
		"",
		"enter logic",
		"show",
		"bogus",
		"gate west S XOR",
		"gate west",
		"status",
		"quit",
		"enter logic",
	}, "\n")

	buf, err := executePlay(t, "text", db, script)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Error [ROOM_LOCKED]")
	assert.Contains(t, out, "enter: ok")
	assert.Contains(t, out, "· [1] OutputChanged")
	assert.Contains(t, out, "logic target=")
	assert.Contains(t, out, "  east: ")
	assert.Contains(t, out, `Error [E001]: unknown command "bogus"`)
	assert.Contains(t, out, "unknown gate op")
	assert.Contains(t, out, "usage: gate")
	assert.Contains(t, out, "logic: open")
	assert.Contains(t, out, "comparison: locked")
	assert.Equal(t, 1, strings.Count(out, "enter: ok"), "commands after quit are not run")

	assert.Positive(t, maxSeq(t, db), "events are logged")
}

func TestPlay_ResumesSeq(t *testing.T) {
	db := filepath.Join(t.TempDir(), "play.db")

	_, err := executePlay(t, "text", db, "enter logic\n")
	require.NoError(t, err)
	first := maxSeq(t, db)
	require.Positive(t, first)

	_, err = executePlay(t, "text", db, "enter logic\n")
	require.NoError(t, err)
	assert.Equal(t, 2*first, maxSeq(t, db), "second run continues the logged seq")
}

func TestPlay_JSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "play.db")
	buf, err := executePlay(t, "json", db, "enter logic\nstatus\nungate north S\n")
	require.NoError(t, err)

	dec := json.NewDecoder(buf)
	var responses []CLIResponse
	for {
		var resp CLIResponse
		if err := dec.Decode(&resp); err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		responses = append(responses, resp)
	}
	require.Len(t, responses, 3)
	assert.Equal(t, "ok", responses[0].Status)

	data, ok := responses[1].Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "status", data["command"])
	assert.Len(t, data["rooms"], 2)

	assert.Equal(t, "error", responses[2].Status)
	require.NotNil(t, responses[2].Error)
	assert.Equal(t, string(engine.ErrCodeUnknownGroup), responses[2].Error.Code)
}

func TestPlay_InvalidConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "play.db")
	_, err := executePlay(t, "text", db, "", "--numbers", "3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestPlay_MissingWiring(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs([]string{filepath.Join("testdata", "none.json"), "--db", filepath.Join(t.TempDir(), "x.db")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load wiring")
}

// startLevel builds the play level over a temp store with a fixed logic
// preset and runs its host until the test ends.
func startLevel(t *testing.T) (*room.Host, *store.Store) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	st, err := store.Open(filepath.Join(t.TempDir(), "level.db"))
	require.NoError(t, err)

	res, loadErrs := LoadWiring(playWiring)
	require.Empty(t, loadErrs)

	cfg := config.Config{ComparisonGroups: 1, NumbersPerGroup: 2, RetryDelay: time.Second}
	emitter := engine.NewEmitter(engine.NewClockAt(0), store.NewEventLog(ctx, st))
	level, err := buildLevel(res.Table, cfg, 11, st, emitter, testutil.FixedSession("level-test"))
	require.NoError(t, err)

	r, ok := level.Room(LogicRoomID)
	require.True(t, ok)
	r.(*room.LogicRoom).SetPreset(room.Preset{
		Inputs: map[string]map[string]bool{
			"west": {"A": true, "B": false},
			"east": {"C": true, "D": true},
		},
		Target: []bool{true, true},
	})

	host := room.NewHost(level)
	done := make(chan error, 1)
	go func() { done <- host.Run(ctx) }()
	t.Cleanup(func() {
		host.Stop()
		<-done
		cancel()
		st.Close()
	})
	return host, st
}

func runScript(t *testing.T, host *room.Host, f *OutputFormatter, lines ...string) {
	t.Helper()
	for _, line := range lines {
		require.False(t, execute(context.Background(), host, f, line), line)
	}
}

func TestPlay_SolveLevel(t *testing.T) {
	host, st := startLevel(t)
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	runScript(t, host, f,
		"enter logic",
		"gate west S or",
		"gate east T AND",
		"gate east T OR",
		"enter comparison",
		"show",
		"status",
	)

	out := buf.String()
	assert.Contains(t, out, "gate: satisfied=false")
	assert.Contains(t, out, "gate: satisfied=true, room completed")
	assert.Contains(t, out, "Error [ROOM_COMPLETED]")
	assert.Contains(t, out, "comparison\n  0/0  ")
	assert.Contains(t, out, " ? ")
	assert.Contains(t, out, "logic: completed")
	assert.Contains(t, out, "comparison: open")

	done, err := st.IsRoomCompleted(context.Background(), LogicRoomID)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestPlay_SignAndTick(t *testing.T) {
	host, _ := startLevel(t)
	buf := &bytes.Buffer{}
	f := &OutputFormatter{Format: "text", Writer: buf}

	runScript(t, host, f,
		"enter logic",
		"gate west S OR",
		"gate east T AND",
		"enter comparison",
		"sign 0 1 >",
		"sign 3 0 >",
		"sign x 0 >",
		"sign 0 0 >",
		"tick 2s",
		"tick soon",
	)

	out := buf.String()
	assert.Regexp(t, `sign: correct=(true|false)`, out)
	assert.Contains(t, out, "Error [INVALID_PLACEMENT]", "pair 1 does not exist with two numbers")
	assert.Contains(t, out, "Error [UNKNOWN_GROUP]")
	assert.Contains(t, out, "group: strconv.Atoi")
	assert.Contains(t, out, "tick: ok")
	assert.Contains(t, out, `time: invalid duration "soon"`)
}

func TestCommandErrorCode(t *testing.T) {
	assert.Equal(t, "ROOM_LOCKED", commandErrorCode(room.ErrRoomLocked))
	assert.Equal(t, "NOT_ENTERED", commandErrorCode(room.ErrNotEntered))
	assert.Equal(t, "ROOM_COMPLETED", commandErrorCode(room.ErrRoomCompleted))
	assert.Equal(t, ErrCodeGeneric, commandErrorCode(errors.New("boom")))
	assert.Equal(t, "MISSING_REFERENCE", commandErrorCode(engine.NewMissingReferenceError("west", "S", "Z")))
}

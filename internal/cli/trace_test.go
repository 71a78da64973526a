package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/store"
)

func executeTrace(t *testing.T, format string, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	return buf, cmd.Execute()
}

func decodeTrace(t *testing.T, data []byte) TraceResult {
	t.Helper()
	var resp struct {
		Status string      `json:"status"`
		Data   TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestTraceAllRooms(t *testing.T) {
	db := seedStore(t)
	buf, err := executeTrace(t, "json", "--db", db)
	require.NoError(t, err)

	result := decodeTrace(t, buf.Bytes())
	require.Len(t, result.Timeline, 5)
	for i, e := range result.Timeline {
		assert.Equal(t, int64(i+1), e.Seq, "timeline is seq ordered")
		assert.Len(t, e.ID, 64)
	}
	assert.Equal(t, 5, result.Stats.TotalEvents)
	assert.Equal(t, 2, result.Stats.Sessions)
	assert.True(t, result.Stats.Completed)
	assert.Equal(t, 1, result.Stats.ByKind["PairReset"])
}

func TestTraceRoomFilter(t *testing.T) {
	db := seedStore(t)
	buf, err := executeTrace(t, "json", "--db", db, "--room", "comparison")
	require.NoError(t, err)

	result := decodeTrace(t, buf.Bytes())
	require.Len(t, result.Timeline, 2)
	assert.Equal(t, "PairResolved", result.Timeline[0].Kind)
	assert.Equal(t, false, result.Timeline[0].Fields["correct"])
	assert.EqualValues(t, 1, result.Timeline[0].Fields["pair"])
	assert.False(t, result.Stats.Completed)
}

func TestTraceSessionAndKindFilter(t *testing.T) {
	db := seedStore(t)
	buf, err := executeTrace(t, "json", "--db", db, "--session", "s-logic", "--kind", "OutputChanged")
	require.NoError(t, err)

	result := decodeTrace(t, buf.Bytes())
	require.Len(t, result.Timeline, 1)
	assert.Equal(t, "S", result.Timeline[0].Fields["node"])
	assert.NotContains(t, result.Timeline[0].Fields, "kind")
}

func TestTraceText(t *testing.T) {
	db := seedStore(t)
	buf, err := executeTrace(t, "text", "--db", db, "--room", "logic")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Trace for room: logic")
	assert.Contains(t, out, "[1] logic OutputChanged {group=0, node=S, value=true}")
	assert.Contains(t, out, "[3] logic RoomCompleted {}")
	assert.Contains(t, out, "Total Events: 3")
}

func TestTraceEmpty(t *testing.T) {
	db := seedStore(t)
	buf, err := executeTrace(t, "text", "--db", db, "--session", "nobody")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "(no events)")
}

func TestTraceMissingDatabase(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.db")
	_, err := executeTrace(t, "text", "--db", missing)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
	assert.NoFileExists(t, missing, "trace must not create a database")
}

func TestTraceRequiresDB(t *testing.T) {
	_, err := executeTrace(t, "text")
	require.Error(t, err)
}

func TestBuildTimeline(t *testing.T) {
	events := []store.StoredEvent{
		{ID: "a"},
	}
	events[0].Seq, events[0].Room, events[0].Kind = 7, "logic", "GoalSatisfied"

	timeline := buildTimeline(events)
	require.Len(t, timeline, 1)
	assert.Equal(t, TraceEvent{Seq: 7, ID: "a", Room: "logic", Kind: "GoalSatisfied", Fields: map[string]any{}}, timeline[0])
	assert.NotNil(t, buildTimeline(nil))
}

func TestTraceAfterSeq(t *testing.T) {
	db := seedStore(t)
	buf, err := executeTrace(t, "json", "--db", db, "--after", "3")
	require.NoError(t, err)

	result := decodeTrace(t, buf.Bytes())
	require.Len(t, result.Timeline, 2)
	assert.Equal(t, int64(4), result.Timeline[0].Seq)
}

func TestFormatFields(t *testing.T) {
	assert.Equal(t, "{}", formatFields(nil))
	assert.Equal(t, "{a=1, b=x}", formatFields(map[string]any{"b": "x", "a": 1}))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "01234567...89abcdef", truncateID("0123456789abcdef0123456789abcdef"))
}

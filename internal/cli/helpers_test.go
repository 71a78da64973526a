package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// seedStore creates a database holding a solved logic room visit and an
// unsolved comparison visit.
func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gatehouse.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	events := []engine.Event{
		{Seq: 1, Session: "s-logic", Room: "logic", Kind: engine.KindOutputChanged, Group: 0, Node: "S", Value: true},
		{Seq: 2, Session: "s-logic", Room: "logic", Kind: engine.KindGoalSatisfied},
		{Seq: 3, Session: "s-logic", Room: "logic", Kind: engine.KindRoomCompleted},
		{Seq: 4, Session: "s-cmp", Room: "comparison", Kind: engine.KindPairResolved, Group: 0, Pair: 1, Correct: false},
		{Seq: 5, Session: "s-cmp", Room: "comparison", Kind: engine.KindPairReset, Group: 0, Pair: 1},
	}
	for _, e := range events {
		_, err := st.AppendEvent(ctx, e)
		require.NoError(t, err)
	}
	require.NoError(t, st.MarkRoomCompleted(ctx, "logic", "s-logic"))
	return path
}

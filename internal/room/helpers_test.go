package room

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/gatehouse/internal/compiler"
	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
	"github.com/roach88/gatehouse/internal/random"
)

// twoWalls has one slot per wall: west/S reads (A, B), east/T reads (C, D).
func twoWalls(t *testing.T) *ir.WiringTable {
	t.Helper()
	table, errs := compiler.Resolve(ir.WallConnections{Walls: []ir.WallConfig{
		{WallName: "west", Inputs: []string{"A", "B"}, Slots: []ir.SlotConfig{{SlotName: "S", Inputs: []string{"A", "B"}}}},
		{WallName: "east", Inputs: []string{"C", "D"}, Slots: []ir.SlotConfig{{SlotName: "T", Inputs: []string{"C", "D"}}}},
	}})
	require.Empty(t, errs)
	return table
}

var twoWallsPreset = Preset{
	Inputs: map[string]map[string]bool{
		"west": {"A": true, "B": false},
		"east": {"C": true, "D": true},
	},
	Target: []bool{true, true},
}

type fixture struct {
	rec   *engine.Recorder
	store *MemoryCompletions
	opts  []Option
}

func newFixture(sessions ...string) *fixture {
	if len(sessions) == 0 {
		sessions = []string{"s1", "s2", "s3", "s4"}
	}
	f := &fixture{rec: engine.NewRecorder(), store: NewMemoryCompletions()}
	f.opts = []Option{
		WithStore(f.store),
		WithEmitter(engine.NewEmitter(nil, f.rec)),
		WithSessions(engine.NewFixedGenerator(sessions...)),
		WithRNG(random.New(7)),
	}
	return f
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGolden_Scenarios(t *testing.T) {
	for _, name := range []string{"logic_two_walls", "comparison_retry"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_FlattensFields(t *testing.T) {
	result := NewResult()
	result.Session = "s"
	result.Trace = []TraceEvent{
		{Seq: 1, Kind: "PairReset", Fields: map[string]any{"group": 2, "pair": 0}},
		{Seq: 2, Kind: "RoomCompleted"},
	}

	got, err := MarshalSnapshot("snap", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"scenario_name":"snap","session":"s","trace":[{"group":2,"kind":"PairReset","pair":0,"seq":1},{"kind":"RoomCompleted","seq":2}]}`,
		string(got))
}

func TestMarshalSnapshot_EmptyTrace(t *testing.T) {
	got, err := MarshalSnapshot("empty", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"scenario_name":"empty","session":"","trace":[]}`, string(got))
}

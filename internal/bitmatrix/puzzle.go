// Package bitmatrix implements the number-comparison puzzle.
//
// Each group holds an even count of 8-bit numbers stored as bit rows. Pair p
// of a group compares numbers 2p and 2p+1. The player places a sign on each
// pair; a correct sign locks the pair, a wrong one schedules a reset that
// regenerates both numbers after the retry delay.
package bitmatrix

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/ir"
	"github.com/roach88/gatehouse/internal/random"
)

// BitsPerNumber is the width of every number. Bit 0 is the most significant.
const BitsPerNumber = 8

// DefaultRetryDelay is how long a wrong sign stays before its pair resets.
const DefaultRetryDelay = 2 * time.Second

// Bits is one number's bit row, most significant first.
type Bits [BitsPerNumber]bool

// SignState is the per-pair sign. The zero value is unset.
type SignState struct {
	Placed  bool
	Kind    ir.SignKind
	Correct bool
}

// Placement is what PlaceSign reports back to the caller.
type Placement struct {
	Correct        bool
	RetryScheduled bool
	Completed      bool // every pair of every group is correct
}

// Puzzle is the group × number × bit grid plus per-pair sign state.
// Not safe for concurrent use.
type Puzzle struct {
	groups     int
	numbers    int
	grid       [][]Bits
	states     [][]SignState
	sched      *engine.Scheduler
	rng        *rand.Rand
	emitter    *engine.Emitter
	retryDelay time.Duration
}

// Option configures a Puzzle.
type Option func(*Puzzle)

// WithRNG sets the generator used for every number.
func WithRNG(rng *rand.Rand) Option {
	return func(p *Puzzle) { p.rng = rng }
}

// WithEmitter sets the emitter for BitChanged, PairResolved and PairReset.
func WithEmitter(e *engine.Emitter) Option {
	return func(p *Puzzle) { p.emitter = e }
}

// WithRetryDelay overrides DefaultRetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Puzzle) { p.retryDelay = d }
}

// New creates a puzzle with every bit false and every sign unset. Call
// GenerateAll to fill the grid. numbersPerGroup must be even and positive.
// A nil sched gets a private scheduler.
func New(groups, numbersPerGroup int, sched *engine.Scheduler, opts ...Option) (*Puzzle, error) {
	if err := ValidateShape(groups, numbersPerGroup); err != nil {
		return nil, err
	}
	if sched == nil {
		sched = engine.NewScheduler()
	}

	p := &Puzzle{
		groups:     groups,
		numbers:    numbersPerGroup,
		grid:       make([][]Bits, groups),
		states:     make([][]SignState, groups),
		sched:      sched,
		retryDelay: DefaultRetryDelay,
	}
	for g := range p.grid {
		p.grid[g] = make([]Bits, numbersPerGroup)
		p.states[g] = make([]SignState, numbersPerGroup/2)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		seed, err := random.NewSeed()
		if err != nil {
			return nil, err
		}
		p.rng = random.New(seed)
	}
	return p, nil
}

// ValidateShape checks the grid dimensions New accepts.
func ValidateShape(groups, numbersPerGroup int) error {
	if groups <= 0 {
		return fmt.Errorf("groups must be positive, got %d", groups)
	}
	if numbersPerGroup <= 0 || numbersPerGroup%2 != 0 {
		return fmt.Errorf("numbers per group must be even and positive, got %d", numbersPerGroup)
	}
	return nil
}

// Groups returns the group count.
func (p *Puzzle) Groups() int { return p.groups }

// Numbers returns the count of numbers per group.
func (p *Puzzle) Numbers() int { return p.numbers }

// Pairs returns the count of pairs per group.
func (p *Puzzle) Pairs() int { return p.numbers / 2 }

// Scheduler returns the scheduler pair resets are registered on.
func (p *Puzzle) Scheduler() *engine.Scheduler { return p.sched }

func (p *Puzzle) checkGroup(g int) error {
	if g < 0 || g >= p.groups {
		return engine.NewUnknownGroupError(strconv.Itoa(g))
	}
	return nil
}

func (p *Puzzle) checkNumber(g, n int) error {
	if err := p.checkGroup(g); err != nil {
		return err
	}
	if n < 0 || n >= p.numbers {
		return engine.NewInvalidPlacementError(strconv.Itoa(g), "number "+strconv.Itoa(n), "no such number")
	}
	return nil
}

func (p *Puzzle) checkPair(g, pair int) error {
	if err := p.checkGroup(g); err != nil {
		return err
	}
	if pair < 0 || pair >= p.Pairs() {
		return engine.NewInvalidPlacementError(strconv.Itoa(g), "pair "+strconv.Itoa(pair), "no such pair")
	}
	return nil
}

// GenerateGroup fills every number of group g with uniform random bits.
func (p *Puzzle) GenerateGroup(g int) error {
	if err := p.checkGroup(g); err != nil {
		return err
	}
	for n := 0; n < p.numbers; n++ {
		p.generateNumber(g, n)
	}
	return nil
}

// GenerateAll fills every group.
func (p *Puzzle) GenerateAll() {
	for g := 0; g < p.groups; g++ {
		for n := 0; n < p.numbers; n++ {
			p.generateNumber(g, n)
		}
	}
}

// RegeneratePair fills both numbers of a pair with fresh random bits.
// Sign state is untouched.
func (p *Puzzle) RegeneratePair(g, pair int) error {
	if err := p.checkPair(g, pair); err != nil {
		return err
	}
	p.generateNumber(g, 2*pair)
	p.generateNumber(g, 2*pair+1)
	return nil
}

func (p *Puzzle) generateNumber(g, n int) {
	var bits Bits
	for b := range bits {
		bits[b] = p.rng.Intn(2) == 1
	}
	p.writeBits(g, n, bits, true)
}

// writeBits stores a row. With all set every bit is announced, otherwise
// only the bits that changed.
func (p *Puzzle) writeBits(g, n int, bits Bits, all bool) {
	old := p.grid[g][n]
	p.grid[g][n] = bits
	for b := range bits {
		if !all && old[b] == bits[b] {
			continue
		}
		p.emitter.Emit(engine.Event{
			Kind:   engine.KindBitChanged,
			Group:  g,
			Number: n,
			Bit:    b,
			Value:  bits[b],
		})
	}
}

// SetBits overrides a number's bit row.
func (p *Puzzle) SetBits(g, n int, bits Bits) error {
	if err := p.checkNumber(g, n); err != nil {
		return err
	}
	p.writeBits(g, n, bits, false)
	return nil
}

// SetNumber overrides a number with the MSB-first bits of v.
func (p *Puzzle) SetNumber(g, n int, v byte) error {
	return p.SetBits(g, n, BitsOf(v))
}

// Bits returns a number's bit row.
func (p *Puzzle) Bits(g, n int) (Bits, error) {
	if err := p.checkNumber(g, n); err != nil {
		return Bits{}, err
	}
	return p.grid[g][n], nil
}

// NumberValue packs a number's bits MSB-first.
func (p *Puzzle) NumberValue(g, n int) (byte, error) {
	if err := p.checkNumber(g, n); err != nil {
		return 0, err
	}
	return Pack(p.grid[g][n]), nil
}

// Pack converts a bit row to a byte, bit 0 most significant.
func Pack(bits Bits) byte {
	var v byte
	for b, set := range bits {
		if set {
			v |= 1 << (BitsPerNumber - 1 - b)
		}
	}
	return v
}

// BitsOf is the inverse of Pack.
func BitsOf(v byte) Bits {
	var bits Bits
	for b := range bits {
		bits[b] = v&(1<<(BitsPerNumber-1-b)) != 0
	}
	return bits
}

// EvaluateSign reports whether kind holds between the numbers of a pair.
// Comparison is strict, so equal numbers satisfy neither kind.
func (p *Puzzle) EvaluateSign(g, pair int, kind ir.SignKind) (bool, error) {
	if err := p.checkPair(g, pair); err != nil {
		return false, err
	}
	left := Pack(p.grid[g][2*pair])
	right := Pack(p.grid[g][2*pair+1])
	switch kind {
	case ir.SignGreaterThan:
		return left > right, nil
	case ir.SignLessThan:
		return left < right, nil
	default:
		return false, engine.NewInvalidPlacementError(strconv.Itoa(g), "pair "+strconv.Itoa(pair), "unknown sign "+kind.String())
	}
}

func pairKey(g, pair int) string {
	return "pair/" + strconv.Itoa(g) + "/" + strconv.Itoa(pair)
}

// PlaceSign places kind on a pair.
//
// A solved pair rejects the placement with AlreadyLockedError. Otherwise any
// pending reset of the pair is cancelled, the sign is evaluated and stored,
// and PairResolved is emitted. A wrong sign schedules a reset after the
// retry delay. A correct one reports whether the whole puzzle is solved.
func (p *Puzzle) PlaceSign(g, pair int, kind ir.SignKind) (Placement, error) {
	if err := p.checkPair(g, pair); err != nil {
		return Placement{}, err
	}
	if p.states[g][pair].Correct {
		return Placement{}, engine.NewAlreadyLockedError(strconv.Itoa(g), strconv.Itoa(pair))
	}
	correct, err := p.EvaluateSign(g, pair, kind)
	if err != nil {
		return Placement{}, err
	}

	key := pairKey(g, pair)
	if p.sched.Cancel(key) {
		slog.Debug("pending pair reset cancelled", "group", g, "pair", pair)
	}

	p.states[g][pair] = SignState{Placed: true, Kind: kind, Correct: correct}
	engine.RecordSignPlacement(correct)
	p.emitter.Emit(engine.Event{
		Kind:    engine.KindPairResolved,
		Group:   g,
		Pair:    pair,
		Correct: correct,
	})

	if !correct {
		p.sched.ScheduleAfter(key, p.retryDelay, func() { p.resetPair(g, pair) })
		slog.Debug("wrong sign, pair reset scheduled", "group", g, "pair", pair, "delay", p.retryDelay)
		return Placement{RetryScheduled: true}, nil
	}
	return Placement{Correct: true, Completed: p.AllCorrect()}, nil
}

// resetPair is the deferred action behind a wrong sign.
func (p *Puzzle) resetPair(g, pair int) {
	p.states[g][pair] = SignState{}
	p.generateNumber(g, 2*pair)
	p.generateNumber(g, 2*pair+1)
	engine.RecordRetry()
	p.emitter.Emit(engine.Event{Kind: engine.KindPairReset, Group: g, Pair: pair})
	slog.Debug("pair reset", "group", g, "pair", pair)
}

// State returns a pair's sign state.
func (p *Puzzle) State(g, pair int) (SignState, error) {
	if err := p.checkPair(g, pair); err != nil {
		return SignState{}, err
	}
	return p.states[g][pair], nil
}

// Pending reports whether a reset is scheduled for the pair.
func (p *Puzzle) Pending(g, pair int) bool {
	return p.sched.Pending(pairKey(g, pair))
}

// AllCorrect reports whether every pair of every group holds a correct sign.
func (p *Puzzle) AllCorrect() bool {
	for _, row := range p.states {
		for _, s := range row {
			if !s.Correct {
				return false
			}
		}
	}
	return true
}

// SolvedCount returns how many pairs hold a correct sign.
func (p *Puzzle) SolvedCount() int {
	n := 0
	for _, row := range p.states {
		for _, s := range row {
			if s.Correct {
				n++
			}
		}
	}
	return n
}

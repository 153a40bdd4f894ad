package idgen

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/vigilglc/sortid/server/utils/syncutil"
)

// Generator mints IDs for one node. It is safe for concurrent use.
// IDs of one Generator are unique and ordered by (timestamp, sequence)
// in the order Next returned them.
type Generator struct {
	// accessed atomically, kept first for 64-bit alignment
	issued      uint64
	exhausted   uint64
	regressions uint64

	node  uint32
	clock Clock
	rand  io.Reader
	yield func()

	mu            sync.Mutex
	lastTimestamp uint64
	sequence      uint16
}

type Option func(gen *Generator)

// WithClock replaces the default monotonic clock.
func WithClock(clock Clock) Option {
	return func(gen *Generator) { gen.clock = clock }
}

// WithRandSource replaces crypto/rand as the source of the trailing random bits.
func WithRandSource(r io.Reader) Option {
	return func(gen *Generator) { gen.rand = r }
}

// WithSpinYield installs a hook called between clock reads while waiting
// for the next tick after the sequence is exhausted, e.g. runtime.Gosched.
func WithSpinYield(yield func()) Option {
	return func(gen *Generator) { gen.yield = yield }
}

func New(node uint32, opts ...Option) *Generator {
	gen := &Generator{node: node, rand: rand.Reader}
	for _, opt := range opts {
		opt(gen)
	}
	if gen.clock == nil {
		gen.clock = NewMonotonicClock()
	}
	return gen
}

func (gen *Generator) Node() uint32 { return gen.node }

// Next returns a new ID, or an error wrapping ErrClockMovedBackwards if the clock
// reads earlier than the last issued timestamp. Once MaxSequence IDs have been issued
// within one tick, Next spins until the clock advances.
func (gen *Generator) Next() (ID, error) {
	ts, seq, err := gen.advance()
	if err != nil {
		atomic.AddUint64(&gen.regressions, 1)
		return Nil, err
	}
	var random [randomLen]byte
	if _, err := io.ReadFull(gen.rand, random[:]); err != nil {
		log.Panicf("idgen: failed to read random bytes: %v", err)
	}
	atomic.AddUint64(&gen.issued, 1)
	return pack(ts, seq, gen.node, random), nil
}

// MustNext is like Next but panics if the clock moved backwards.
func (gen *Generator) MustNext() ID {
	id, err := gen.Next()
	if err != nil {
		panic(err)
	}
	return id
}

func (gen *Generator) advance() (ts uint64, seq uint16, err error) {
	defer syncutil.SchedLockers(&gen.mu)()
	ts = gen.clock.Ticks()
	if ts < gen.lastTimestamp {
		return 0, 0, fmt.Errorf("%w, refusing to generate id for %d ticks",
			ErrClockMovedBackwards, gen.lastTimestamp-ts)
	}
	if ts != gen.lastTimestamp {
		gen.sequence = 0
		gen.lastTimestamp = ts
	} else if gen.sequence < MaxSequence {
		gen.sequence++
	} else {
		atomic.AddUint64(&gen.exhausted, 1)
		ts = gen.waitNextTick()
		gen.sequence = 0
		gen.lastTimestamp = ts
	}
	return ts, gen.sequence, nil
}

func (gen *Generator) waitNextTick() uint64 {
	for {
		ts := gen.clock.Ticks()
		if ts > gen.lastTimestamp {
			return ts
		}
		if gen.yield != nil {
			gen.yield()
		}
	}
}

// Stats is a point-in-time snapshot of a Generator's counters.
type Stats struct {
	Node          uint32
	Issued        uint64
	Exhausted     uint64
	Regressions   uint64
	LastTimestamp uint64
}

func (gen *Generator) Stats() Stats {
	st := Stats{
		Node:        gen.node,
		Issued:      atomic.LoadUint64(&gen.issued),
		Exhausted:   atomic.LoadUint64(&gen.exhausted),
		Regressions: atomic.LoadUint64(&gen.regressions),
	}
	gen.mu.Lock()
	st.LastTimestamp = gen.lastTimestamp
	gen.mu.Unlock()
	return st
}

package program

import (
	"errors"
	"fmt"
	"math"
)

// LoopRepeatCount is how many times every loop body runs
const LoopRepeatCount = 3

// MaxTraceLength caps how far a program may expand before it is run
const MaxTraceLength = 10000

var ErrTraceTooLong = errors.New("program expands beyond the trace limit")

// Trace is a loop-free sequence of Forward, TurnLeft and TurnRight
type Trace []Opcode

func (t Trace) String() string {
	return Format(t)
}

// Compiler flattens loops. The zero value repeats bodies LoopRepeatCount times.
type Compiler struct {
	Repeat int
}

func (c Compiler) repeat() int {
	if c.Repeat <= 0 {
		return LoopRepeatCount
	}
	return c.Repeat
}

// Compile expands seq with the default repeat count
func Compile(seq []Opcode) Trace {
	return Compiler{}.Compile(seq)
}

// Compile expands every loop in seq. It never fails: a LoopEnd without an
// open loop is dropped, and a LoopStart that is never closed loops over the
// rest of the sequence.
func (c Compiler) Compile(seq []Opcode) Trace {
	out := Trace{}
	for i := 0; i < len(seq); {
		switch op := seq[i]; op {
		case LoopStart:
			body, next := loopBody(seq, i)
			compiled := c.Compile(body)
			for n := 0; n < c.repeat(); n++ {
				out = append(out, compiled...)
			}
			i = next
		case LoopEnd:
			i++
		default:
			if op.IsAtomic() {
				out = append(out, op)
			}
			i++
		}
	}
	return out
}

// ExpandedLength returns len(c.Compile(seq)) without building the trace,
// saturating at math.MaxInt.
func (c Compiler) ExpandedLength(seq []Opcode) int {
	total := 0
	for i := 0; i < len(seq); {
		switch op := seq[i]; op {
		case LoopStart:
			body, next := loopBody(seq, i)
			total = satAdd(total, satMul(c.ExpandedLength(body), c.repeat()))
			i = next
		default:
			if op.IsAtomic() {
				total = satAdd(total, 1)
			}
			i++
		}
	}
	return total
}

// CompileLimited compiles seq unless its expansion exceeds limit
func (c Compiler) CompileLimited(seq []Opcode, limit int) (Trace, error) {
	if n := c.ExpandedLength(seq); n > limit {
		return nil, fmt.Errorf("%w: %d instructions, limit %d", ErrTraceTooLong, n, limit)
	}
	return c.Compile(seq), nil
}

// loopBody returns the instructions strictly inside the loop opened at
// seq[start] and the index just past its matching LoopEnd (or len(seq)).
func loopBody(seq []Opcode, start int) ([]Opcode, int) {
	depth := 1
	i := start + 1
	for ; i < len(seq); i++ {
		switch seq[i] {
		case LoopStart:
			depth++
		case LoopEnd:
			depth--
		}
		if depth == 0 {
			return seq[start+1 : i], i + 1
		}
	}
	return seq[start+1:], len(seq)
}

func satAdd(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func satMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

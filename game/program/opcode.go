// Package program holds the instruction language of the labyrinth: the
// opcodes a player strings together, the editable Program built from them,
// and the compiler that flattens loops into an execution Trace.
package program

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownOpcode = errors.New("unknown opcode")

// Opcode is a single authoring instruction
type Opcode int

const (
	Forward Opcode = iota + 1
	TurnLeft
	TurnRight
	LoopStart
	LoopEnd
)

var opcodeTokens = map[Opcode]string{
	Forward:   "F",
	TurnLeft:  "L",
	TurnRight: "R",
	LoopStart: "LOOP_START",
	LoopEnd:   "LOOP_END",
}

var opcodeAliases = map[string]Opcode{
	"f":          Forward,
	"forward":    Forward,
	"l":          TurnLeft,
	"left":       TurnLeft,
	"r":          TurnRight,
	"right":      TurnRight,
	"loop_start": LoopStart,
	"loop":       LoopStart,
	"loop_end":   LoopEnd,
	"end":        LoopEnd,
}

// String returns the toolbar token for the opcode
func (op Opcode) String() string {
	if token, ok := opcodeTokens[op]; ok {
		return token
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// IsAtomic reports whether op can appear in an execution trace
func (op Opcode) IsAtomic() bool {
	return op == Forward || op == TurnLeft || op == TurnRight
}

// ParseOpcode accepts toolbar tokens and long names, case-insensitively
func ParseOpcode(s string) (Opcode, error) {
	if op, ok := opcodeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOpcode, s)
}

func (op Opcode) MarshalText() ([]byte, error) {
	if _, ok := opcodeTokens[op]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, int(op))
	}
	return []byte(op.String()), nil
}

func (op *Opcode) UnmarshalText(text []byte) error {
	parsed, err := ParseOpcode(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

package program

import (
	"strings"
)

// Program is the player's editable instruction list. Loop delimiters are not
// required to balance; the compiler copes with any sequence.
type Program struct {
	ops []Opcode
}

// New creates a program holding a copy of ops
func New(ops ...Opcode) *Program {
	p := &Program{}
	p.ops = append(p.ops, ops...)
	return p
}

// Append adds op to the end of the program
func (p *Program) Append(op Opcode) {
	p.ops = append(p.ops, op)
}

// RemoveLast drops the final instruction; it does nothing on an empty program
func (p *Program) RemoveLast() {
	if len(p.ops) == 0 {
		return
	}
	p.ops = p.ops[:len(p.ops)-1]
}

// Clear removes every instruction
func (p *Program) Clear() {
	p.ops = nil
}

// Len returns the number of instructions
func (p *Program) Len() int {
	return len(p.ops)
}

// Sequence returns a copy of the instructions in authoring order
func (p *Program) Sequence() []Opcode {
	out := make([]Opcode, len(p.ops))
	copy(out, p.ops)
	return out
}

func (p *Program) String() string {
	return Format(p.ops)
}

// Format joins opcodes with spaces using their toolbar tokens
func Format(ops []Opcode) string {
	tokens := make([]string, len(ops))
	for i, op := range ops {
		tokens[i] = op.String()
	}
	return strings.Join(tokens, " ")
}

// Parse reads whitespace or comma separated tokens into a program
func Parse(text string) (*Program, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	p := &Program{}
	for _, field := range fields {
		op, err := ParseOpcode(field)
		if err != nil {
			return nil, err
		}
		p.Append(op)
	}
	return p, nil
}

// SPDX-License-Identifier: GPL-2.0-or-later

// Package script parses and serializes the bytecode of scriptable
// objects: a fixed-size play-data prelude followed by actions made of
// opcoded instructions. Argument layouts are not self-describing; they
// come from an injected instruction table.
package script

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Instruction id that ends its enclosing action.
	EndOfAction = 0xFF

	actionHeaderSize = 8
)

var (
	ErrTooShort           = errors.New("script: data too short")
	ErrUnterminated       = errors.New("script: missing 0xFD 0x00 terminator")
	ErrUnknownInstruction = errors.New("script: instruction id not in table")
)

// ArgSpec describes one argument slot of an instruction.
type ArgSpec struct {
	Size   uint8 // 1, 2 or 4 bytes
	Signed bool
}

// Table maps instruction ids to their argument layouts. It is
// immutable during a decode pass and safe for shared reads.
type Table map[uint8][]ArgSpec

// Argument is a decoded instruction argument.
type Argument struct {
	Size   uint8
	Value  int64
	Signed bool
}

// Instruction is an opcode plus its arguments. The action-ending
// instruction (id 0xFF) is kept in the list so that re-encoding is
// byte exact.
type Instruction struct {
	ID   uint8
	Args []Argument
}

// Action is an 8-byte header plus instructions up to and including
// the end-of-action instruction.
type Action struct {
	Flags        uint32
	LVFlag       uint16
	Damage       uint8
	Flag2        uint8
	Instructions []Instruction
}

// Script is a decoded bytecode block: the play-data prelude kept as
// raw bytes, the actions, and whatever padding followed the
// terminator.
type Script struct {
	Variables []byte
	Actions   []Action
	Trailer   []byte
}

// Decode parses a script block using the provided instruction table.
func Decode(data []byte, table Table) (*Script, error) {
	prelude, err := preludeSize(data)
	if err != nil {
		return nil, err
	}
	if len(data) < prelude {
		return nil, fmt.Errorf("%w: prelude of %#x in %d bytes", ErrTooShort, prelude, len(data))
	}

	s := &Script{Variables: append([]byte(nil), data[:prelude]...)}
	p := prelude

	for {
		if p+1 < len(data) && data[p] == 0xFD && data[p+1] == 0x00 {
			s.Trailer = append([]byte(nil), data[p+2:]...)
			return s, nil
		}
		if p+actionHeaderSize > len(data) {
			return nil, ErrUnterminated
		}

		action := Action{
			Flags:  binary.LittleEndian.Uint32(data[p:]),
			LVFlag: binary.LittleEndian.Uint16(data[p+4:]),
			Damage: data[p+6],
			Flag2:  data[p+7],
		}
		p += actionHeaderSize

		for {
			if p >= len(data) {
				return nil, ErrUnterminated
			}
			id := data[p]
			p++

			inst := Instruction{ID: id}
			specs, ok := table[id]
			if !ok && id != EndOfAction {
				return nil, fmt.Errorf("%w: %#02x", ErrUnknownInstruction, id)
			}
			for _, spec := range specs {
				arg, n, err := readArg(data[p:], spec)
				if err != nil {
					return nil, err
				}
				inst.Args = append(inst.Args, arg)
				p += n
			}
			action.Instructions = append(action.Instructions, inst)

			if id == EndOfAction {
				break
			}
		}
		s.Actions = append(s.Actions, action)
	}
}

// Encode serializes the script back to bytes, terminator included.
func (s *Script) Encode() []byte {
	out := append([]byte(nil), s.Variables...)
	for _, a := range s.Actions {
		out = binary.LittleEndian.AppendUint32(out, a.Flags)
		out = binary.LittleEndian.AppendUint16(out, a.LVFlag)
		out = append(out, a.Damage, a.Flag2)
		for _, inst := range a.Instructions {
			out = append(out, inst.ID)
			for _, arg := range inst.Args {
				switch arg.Size {
				case 1:
					out = append(out, byte(arg.Value))
				case 2:
					out = binary.LittleEndian.AppendUint16(out, uint16(arg.Value))
				default:
					out = binary.LittleEndian.AppendUint32(out, uint32(arg.Value))
				}
			}
		}
	}
	out = append(out, 0xFD, 0x00)
	return append(out, s.Trailer...)
}

func readArg(data []byte, spec ArgSpec) (Argument, int, error) {
	if len(data) < int(spec.Size) {
		return Argument{}, 0, fmt.Errorf("%w: truncated argument", ErrTooShort)
	}
	arg := Argument{Size: spec.Size, Signed: spec.Signed}
	switch spec.Size {
	case 1:
		if spec.Signed {
			arg.Value = int64(int8(data[0]))
		} else {
			arg.Value = int64(data[0])
		}
		return arg, 1, nil
	case 2:
		v := binary.LittleEndian.Uint16(data)
		if spec.Signed {
			arg.Value = int64(int16(v))
		} else {
			arg.Value = int64(v)
		}
		return arg, 2, nil
	default:
		v := binary.LittleEndian.Uint32(data)
		if spec.Signed {
			arg.Value = int64(int32(v))
		} else {
			arg.Value = int64(v)
		}
		return arg, 4, nil
	}
}

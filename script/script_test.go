// SPDX-License-Identifier: GPL-2.0-or-later

package script

import (
	"bytes"
	"errors"
	"testing"
)

func testTable() Table {
	return Table{
		0x00: nil,
		0x01: {{Size: 2, Signed: true}},
		0x02: {{Size: 1}, {Size: 2}},
		0x03: {{Size: 4}},
	}
}

// Builds a script block with the short 0x80 prelude and one action.
func shortScript() []byte {
	data := make([]byte, 0x80)
	data[0x01] = 0x01

	// Action header: flags, lvflag, damage, flag2.
	data = append(data, 0x01, 0x00, 0x00, 0x00, 0x02, 0x00, 0x30, 0x04)
	// Instruction 0x01 with a signed 16-bit argument of -2.
	data = append(data, 0x01, 0xFE, 0xFF)
	// Instruction 0x02 with byte and word arguments.
	data = append(data, 0x02, 0x12, 0x34, 0x12)
	// End of action.
	data = append(data, 0xFF)
	// Stream terminator.
	data = append(data, 0xFD, 0x00)
	return data
}

func TestDecodeShortPrelude(t *testing.T) {
	s, err := Decode(shortScript(), testTable())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Variables) != 0x80 {
		t.Errorf("prelude: want 0x80 bytes got %#x", len(s.Variables))
	}
	if len(s.Actions) != 1 {
		t.Fatalf("actions: want 1 got %d", len(s.Actions))
	}

	a := s.Actions[0]
	if a.Flags != 1 || a.LVFlag != 2 || a.Damage != 0x30 || a.Flag2 != 0x04 {
		t.Errorf("bad action header: %+v", a)
	}
	if len(a.Instructions) != 3 {
		t.Fatalf("instructions: want 3 got %d", len(a.Instructions))
	}
	if v := a.Instructions[0].Args[0].Value; v != -2 {
		t.Errorf("signed argument: want -2 got %d", v)
	}
	if a.Instructions[2].ID != EndOfAction {
		t.Error("last instruction should be the end marker")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	src := shortScript()
	s, err := Decode(src, testTable())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := s.Encode(); !bytes.Equal(got, src) {
		t.Errorf("round trip:\nwant % x\ngot  % x", src, got)
	}
}

func TestMultipleActions(t *testing.T) {
	data := make([]byte, 0x80)
	data[0x01] = 0x01
	for i := 0; i < 3; i++ {
		data = append(data, byte(i), 0, 0, 0, 0, 0, 0, 0)
		data = append(data, 0x03, 0xEF, 0xBE, 0xAD, 0xDE)
		data = append(data, 0xFF)
	}
	data = append(data, 0xFD, 0x00)

	s, err := Decode(data, testTable())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Actions) != 3 {
		t.Fatalf("want 3 actions got %d", len(s.Actions))
	}
	if v := s.Actions[1].Instructions[0].Args[0].Value; v != 0xDEADBEEF {
		t.Errorf("u32 argument: want 0xDEADBEEF got %#x", v)
	}
	if !bytes.Equal(s.Encode(), data) {
		t.Error("multi-action round trip mismatch")
	}
}

func TestPreludeFlagSizes(t *testing.T) {
	cases := []struct {
		flag byte
		want int
	}{
		{0x00, 0x100},
		{0x01, 0x180},
		{0x02, 0x200},
		{0x03, 0x280},
	}
	for _, c := range cases {
		data := make([]byte, 0x300)
		data[0x01] = 0x00
		data[0x50] = c.flag
		got, err := preludeSize(data)
		if err != nil {
			t.Fatalf("flag %#x: %v", c.flag, err)
		}
		if got != c.want {
			t.Errorf("flag %#x: want %#x got %#x", c.flag, c.want, got)
		}
	}
}

func TestPreludeFiveChain(t *testing.T) {
	data := make([]byte, 0x400)
	data[0x01] = 0x05
	got, err := preludeSize(data)
	if err != nil || got != 0x300 {
		t.Errorf("want 0x300 got %#x (%v)", got, err)
	}
}

func TestPreludeIsukaDoubling(t *testing.T) {
	data := make([]byte, 0x200)
	data[0x01] = 0x01
	data[0x80] = 0xE5
	got, err := preludeSize(data)
	if err != nil || got != 0x100 {
		t.Errorf("want doubled prelude 0x100 got %#x (%v)", got, err)
	}
}

func TestUnterminated(t *testing.T) {
	data := make([]byte, 0x80)
	data[0x01] = 0x01
	data = append(data, 0, 0, 0, 0, 0, 0, 0, 0, 0xFF)
	if _, err := Decode(data, testTable()); !errors.Is(err, ErrUnterminated) {
		t.Errorf("want ErrUnterminated got %v", err)
	}
}

func TestUnknownInstruction(t *testing.T) {
	data := make([]byte, 0x80)
	data[0x01] = 0x01
	data = append(data, 0, 0, 0, 0, 0, 0, 0, 0, 0x7E, 0xFF, 0xFD, 0x00)
	if _, err := Decode(data, testTable()); !errors.Is(err, ErrUnknownInstruction) {
		t.Errorf("want ErrUnknownInstruction got %v", err)
	}
}

func TestTableFromJSON(t *testing.T) {
	table, err := TableFromJSON([]byte(
		`{"1": [{"size":2,"signed":true}], "255": []}`))
	if err != nil {
		t.Fatalf("TableFromJSON: %v", err)
	}
	specs, ok := table[1]
	if !ok || len(specs) != 1 || specs[0].Size != 2 || !specs[0].Signed {
		t.Errorf("bad table entry: %+v ok=%v", specs, ok)
	}
	if _, err := TableFromJSON([]byte(`{"1": [{"size":3}]}`)); err == nil {
		t.Error("argument size 3 should be rejected")
	}
	if _, err := TableFromJSON([]byte(`{"abc": []}`)); err == nil {
		t.Error("non-numeric id should be rejected")
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later

package script

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// TableFromJSON loads an instruction table of the form
//
//	{"0": [{"size":2,"signed":true}, {"size":1}], "255": []}
//
// keyed by decimal instruction id.
func TableFromJSON(data []byte) (Table, error) {
	var raw map[string][]struct {
		Size   uint8 `json:"size"`
		Signed bool  `json:"signed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("script: parse table: %w", err)
	}

	table := make(Table, len(raw))
	for key, specs := range raw {
		id, err := strconv.ParseUint(key, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("script: bad instruction id %q", key)
		}
		args := make([]ArgSpec, 0, len(specs))
		for _, s := range specs {
			if s.Size != 1 && s.Size != 2 && s.Size != 4 {
				return nil, fmt.Errorf("script: instruction %s has argument size %d", key, s.Size)
			}
			args = append(args, ArgSpec{Size: s.Size, Signed: s.Signed})
		}
		table[uint8(id)] = args
	}
	return table, nil
}

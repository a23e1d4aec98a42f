package minter

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML renders Record(compact) as a YAML document.
func (st *State) YAML(compact bool) ([]byte, error) {
	out, err := yaml.Marshal(st.Record(compact))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal minter state: %w", err)
	}
	return out, nil
}

// JSON renders Record(compact) as indented JSON.
func (st *State) JSON(compact bool) ([]byte, error) {
	out, err := json.MarshalIndent(st.Record(compact), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal minter state: %w", err)
	}
	return out, nil
}

package locals

import (
	"encoding/json"
)

// Trace captures why each binding of a scope was kept or dropped by the
// artifact filter.
type Trace struct {
	Bindings []BindingDecision `json:"bindings"`
}

// BindingDecision details the filter's verdict for one binding.
type BindingDecision struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Modules  []string `json:"modules,omitempty"`
	Mirrored bool     `json:"mirrored"`
	Dropped  bool     `json:"dropped"`
}

// Dropped returns the names of the bindings classified as artifacts.
func (t Trace) Dropped() []string {
	var names []string
	for _, decision := range t.Bindings {
		if decision.Dropped {
			names = append(names, decision.Name)
		}
	}
	return names
}

// Kept returns the names of the bindings retained by the filter.
func (t Trace) Kept() []string {
	var names []string
	for _, decision := range t.Bindings {
		if !decision.Dropped {
			names = append(names, decision.Name)
		}
	}
	return names
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}

package params

import (
	"encoding/json"
)

// State is the stage a parameter reached during resolution.
type State string

const (
	StateUnresolved     State = "unresolved"
	StateStoreChecked   State = "store_checked"
	StateDefaultApplied State = "default_applied"
	StateStoreValueUsed State = "store_value_used"
	StateCoerced        State = "coerced"
	StateBoundsChecked  State = "bounds_checked"
	StateAssigned       State = "assigned"
	StateAborted        State = "aborted"
	StateConstantKept   State = "constant_kept"
)

// Source records where a resolved value came from.
type Source string

const (
	SourceStore    Source = "store"
	SourceDefault  Source = "default"
	SourceConstant Source = "constant"
	// SourceZero marks a malformed value with no default, replaced by the
	// zero value of the declared type.
	SourceZero Source = "zero"
)

// Outcome describes how a single parameter was resolved.
type Outcome struct {
	Name     string    `json:"name"`
	Key      string    `json:"key"`
	Source   Source    `json:"source,omitempty"`
	State    State     `json:"state"`
	Value    any       `json:"value,omitempty"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// Report collects the outcome of every parameter visited by a resolution
// pass, in descriptor order. A pass that aborts ends with the aborted
// outcome.
type Report struct {
	Namespace string    `json:"namespace,omitempty"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Warnings flattens the warnings of every outcome.
func (r *Report) Warnings() []Warning {
	if r == nil {
		return nil
	}
	var out []Warning
	for _, o := range r.Outcomes {
		out = append(out, o.Warnings...)
	}
	return out
}

// Outcome returns the outcome recorded for name.
func (r *Report) Outcome(name string) (Outcome, bool) {
	if r == nil {
		return Outcome{}, false
	}
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o, true
		}
	}
	return Outcome{}, false
}

// ToJSON serialises the report for logging or tooling.
func (r Report) ToJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(alias(r))
}

// ReportFromJSON decodes a payload produced by ToJSON. Values decode into
// generic JSON types.
func ReportFromJSON(payload []byte) (Report, error) {
	type alias Report
	var report alias
	if err := json.Unmarshal(payload, &report); err != nil {
		return Report{}, err
	}
	return Report(report), nil
}

package types

// TraceRecord is one ordered decision made by the engine. Traces replace
// free-form debug strings: a separate presentation layer renders them for
// humans, the engine only records what it decided and why.
type TraceRecord struct {
	Stage   string `json:"stage"`
	Subject string `json:"subject,omitempty"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// Trace accumulates decision records in evaluation order.
type Trace struct {
	Records []TraceRecord `json:"records"`
}

// Add appends a record and returns the trace for chaining.
func (t *Trace) Add(stage, subject, outcome, detail string) *Trace {
	t.Records = append(t.Records, TraceRecord{
		Stage:   stage,
		Subject: subject,
		Outcome: outcome,
		Detail:  detail,
	})
	return t
}

package pipeline

// StepMetadata detail type values.
const (
	TypeOptimization = "optimization"
	TypeCompression  = "compression"
	TypeCustom       = "custom"
)

// Details identifies what kind of work a step performed and which concrete
// handler did it.
type Details struct {
	Type      string `json:"type"`
	Component string `json:"component"`
}

// StepMetadata is one audit entry for one executed step. Entries are created
// once per execution and never mutated after append.
type StepMetadata struct {
	StepName     string  `json:"step_name"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	LatencyMS    float64 `json:"latency_ms"`
	Details      Details `json:"details"`
}

// Result is the aggregate output of one run: the final payload, a snapshot
// of the input before any step ran, and the ordered per-step history.
type Result struct {
	RunID           string         `json:"run_id"`
	FinalContent    string         `json:"final_content"`
	OriginalContent string         `json:"original_content"`
	History         []StepMetadata `json:"history"`
}

// TotalLatencyMS sums the per-step latencies.
func (r *Result) TotalLatencyMS() float64 {
	var total float64
	for _, m := range r.History {
		total += m.LatencyMS
	}
	return total
}

// InputTokens returns the token count entering the first accounted step,
// 0 for an empty history.
func (r *Result) InputTokens() int {
	if len(r.History) == 0 {
		return 0
	}
	return r.History[0].InputTokens
}

// OutputTokens returns the token count leaving the last step, 0 for an
// empty history.
func (r *Result) OutputTokens() int {
	if len(r.History) == 0 {
		return 0
	}
	return r.History[len(r.History)-1].OutputTokens
}

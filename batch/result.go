package batch

import "strings"

// ErrorPrefix marks a failed outcome in a Result.
const ErrorPrefix = "ERROR: "

// IsError reports whether outcome records a failure rather than a path.
func IsError(outcome string) bool {
	return strings.HasPrefix(outcome, ErrorPrefix)
}

// Entry is one prompt and its outcome.
type Entry struct {
	Prompt  string `json:"prompt" yaml:"prompt"`
	Outcome string `json:"outcome" yaml:"outcome"`
}

// Failed reports whether the entry records an error.
func (e Entry) Failed() bool {
	return IsError(e.Outcome)
}

// Result maps each input prompt to the written file path or to an
// ErrorPrefix message, in input order. A prompt seen twice keeps its first
// position and its latest outcome.
type Result struct {
	order    []string
	outcomes map[string]string
}

func NewResult() *Result {
	return &Result{outcomes: make(map[string]string)}
}

func (r *Result) set(prompt, outcome string) {
	if _, ok := r.outcomes[prompt]; !ok {
		r.order = append(r.order, prompt)
	}
	r.outcomes[prompt] = outcome
}

func (r *Result) setError(prompt string, err error) {
	r.set(prompt, ErrorPrefix+err.Error())
}

// Get returns the outcome recorded for prompt.
func (r *Result) Get(prompt string) (string, bool) {
	out, ok := r.outcomes[prompt]
	return out, ok
}

func (r *Result) Len() int {
	return len(r.order)
}

// Entries returns the outcomes in input order.
func (r *Result) Entries() []Entry {
	entries := make([]Entry, len(r.order))
	for i, p := range r.order {
		entries[i] = Entry{Prompt: p, Outcome: r.outcomes[p]}
	}
	return entries
}

// Map returns a copy of the outcomes keyed by prompt.
func (r *Result) Map() map[string]string {
	m := make(map[string]string, len(r.outcomes))
	for k, v := range r.outcomes {
		m[k] = v
	}
	return m
}

// Succeeded counts the entries that produced a file.
func (r *Result) Succeeded() int {
	n := 0
	for _, out := range r.outcomes {
		if !IsError(out) {
			n++
		}
	}
	return n
}

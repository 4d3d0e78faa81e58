package verify

// Report is the JSON-friendly envelope `cmd/crev verify --output json`
// emits, the direct descendant of the teacher's cmd/tester `output` struct
// (errors/warnings/result). go-crev's "result" is the row set, and its
// flagged bit is the same worse-than-pass check Summary exposes for the
// exit code.
type Report struct {
	Rows    []Row `json:"rows"`
	Flagged bool  `json:"flagged"`
}

// NewReport wraps rows with the precomputed Summary verdict.
func NewReport(rows []Row) Report {
	return Report{Rows: rows, Flagged: Summary(rows)}
}

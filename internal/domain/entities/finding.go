package entities

// OracleErrorKind tags why an oracle could not produce a finding.
type OracleErrorKind string

const (
	// OracleErrNone means the result carries a usable finding.
	OracleErrNone OracleErrorKind = ""
	// OracleErrUnavailable covers timeouts, rate limits and network failures
	// that outlasted the retry budget.
	OracleErrUnavailable OracleErrorKind = "oracle_unavailable"
	// OracleErrMalformed means the oracle kept answering with payloads that
	// could not be parsed.
	OracleErrMalformed OracleErrorKind = "malformed_oracle_response"
)

// OracleFinding is the raw answer of an oracle for one entity.
type OracleFinding struct {
	SuggestedUpdates map[string]any    `json:"suggested_updates"`
	Reasons          map[string]string `json:"reasons,omitempty"`
	Confidence       float64           `json:"confidence"`
	Evidence         []string          `json:"evidence,omitempty"`
	HasPhoto         bool              `json:"has_photo"`
}

// OracleResult is either a finding or a tagged oracle failure.
type OracleResult struct {
	Finding  OracleFinding
	ErrKind  OracleErrorKind
	Err      error
	Attempts int
}

// OK reports whether the result carries a usable finding.
func (r OracleResult) OK() bool {
	return r.ErrKind == OracleErrNone
}

// FindingResult wraps a successful finding.
func FindingResult(f OracleFinding, attempts int) OracleResult {
	if f.SuggestedUpdates == nil {
		f.SuggestedUpdates = map[string]any{}
	}
	return OracleResult{Finding: f, Attempts: attempts}
}

// FailedResult tags an oracle failure.
func FailedResult(kind OracleErrorKind, err error, attempts int) OracleResult {
	return OracleResult{ErrKind: kind, Err: err, Attempts: attempts}
}

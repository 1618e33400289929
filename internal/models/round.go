// Package models defines the round and prediction types shared by the predictor,
// the collector and the HTTP layer.
package models

// Result is the outcome label of a round.
type Result string

const (
	// ResultTai is the "over" outcome (total 11-18).
	ResultTai Result = "Tài"
	// ResultXiu is the "under" outcome (total 3-10).
	ResultXiu Result = "Xỉu"
)

// Valid reports whether r is one of the two outcome labels.
func (r Result) Valid() bool {
	return r == ResultTai || r == ResultXiu
}

// Opposite returns the other outcome. The zero value maps to ResultTai.
func (r Result) Opposite() Result {
	if r == ResultTai {
		return ResultXiu
	}
	return ResultTai
}

// Letter returns the single-letter code used in pattern strings.
func (r Result) Letter() byte {
	if r == ResultTai {
		return 'T'
	}
	return 'X'
}

// Vote is the integer code a heuristic model emits.
type Vote int

const (
	// VoteNone means the model abstained for lack of history.
	VoteNone Vote = 0
	// VoteTai favors ResultTai.
	VoteTai Vote = 1
	// VoteXiu favors ResultXiu.
	VoteXiu Vote = 2
)

// VoteFor converts an outcome to its vote code.
func VoteFor(r Result) Vote {
	if r == ResultTai {
		return VoteTai
	}
	return VoteXiu
}

// Result converts the vote back to an outcome. ok is false for VoteNone.
func (v Vote) Result() (Result, bool) {
	switch v {
	case VoteTai:
		return ResultTai, true
	case VoteXiu:
		return ResultXiu, true
	default:
		return "", false
	}
}

// Matches reports whether the vote called the given outcome.
func (v Vote) Matches(r Result) bool {
	return (v == VoteTai && r == ResultTai) || (v == VoteXiu && r == ResultXiu)
}

// String returns a short name for logs and metric labels.
func (v Vote) String() string {
	switch v {
	case VoteTai:
		return "tai"
	case VoteXiu:
		return "xiu"
	default:
		return "none"
	}
}

// Round is one completed game round as seen by the heuristics.
type Round struct {
	Session    int64   `json:"session"`
	Result     Result  `json:"result"`
	TotalScore float64 `json:"totalScore"`
}

// Results extracts the outcome labels of rounds in order.
func Results(rounds []Round) []Result {
	out := make([]Result, len(rounds))
	for i, r := range rounds {
		out[i] = r.Result
	}
	return out
}

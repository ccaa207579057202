package transaction

import "fmt"

// Policy states which outcome a scenario expects. It never changes how a
// request is submitted, only how its outcome is judged.
type Policy int

const (
	ExpectSuccess Policy = iota
	ExpectRejection
)

func (p Policy) String() string {
	switch p {
	case ExpectSuccess:
		return "expect success"
	case ExpectRejection:
		return "expect rejection"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Verdict is the pass/fail judgment of an outcome under a policy.
type Verdict struct {
	Pass   bool
	Policy Policy
	// Detail is the rejection reason when there is one, otherwise the
	// transaction hash.
	Detail string
}

// Judge applies policy to outcome:
//
//	ExpectSuccess   + Committed -> pass
//	ExpectSuccess   + Rejected  -> fail, reason surfaced
//	ExpectRejection + Rejected  -> pass, reason surfaced
//	ExpectRejection + Committed -> fail
func Judge(outcome *Outcome, policy Policy) Verdict {
	v := Verdict{Policy: policy}
	if outcome.Committed() {
		v.Pass = policy == ExpectSuccess
		if h, ok := outcome.TxHash(); ok {
			v.Detail = h.Hex()
		}
		return v
	}
	v.Pass = policy == ExpectRejection
	v.Detail = outcome.Reason()
	return v
}

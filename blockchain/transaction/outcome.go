package transaction

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReasonConfirmationTimeout is the reason of an outcome whose transaction
// was accepted but not found in a block in time.
const ReasonConfirmationTimeout = "confirmation timeout"

type Status int

const (
	Committed Status = iota
	Rejected
)

func (s Status) String() string {
	switch s {
	case Committed:
		return "committed"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// RejectionKind tells at which point the ledger refused a transaction.
type RejectionKind int

const (
	// SubmissionRejected: refused before a transaction hash existed
	// (packing, gas estimation, signing, broadcast).
	SubmissionRejected RejectionKind = iota + 1
	// ExecutionReverted: mined, but the receipt carries a failure status.
	ExecutionReverted
	// ConfirmationTimeout: broadcast, never seen in a block in time.
	ConfirmationTimeout
)

func (k RejectionKind) String() string {
	switch k {
	case SubmissionRejected:
		return "submission rejected"
	case ExecutionReverted:
		return "execution reverted"
	case ConfirmationTimeout:
		return ReasonConfirmationTimeout
	default:
		return "none"
	}
}

// Confirmation describes the block a committed transaction landed in.
type Confirmation struct {
	BlockNumber *big.Int
	BlockHash   common.Hash
	GasUsed     uint64
	// ContractAddress is set when the transaction created a contract.
	ContractAddress *common.Address
}

// Outcome is the result of one submission: exactly one of Committed or
// Rejected. Values are produced once by the wallet and not changed after.
type Outcome struct {
	status       Status
	label        string
	txHash       *common.Hash
	confirmation *Confirmation
	kind         RejectionKind
	reason       string
}

func NewCommitted(label string, txHash common.Hash, conf Confirmation) *Outcome {
	return &Outcome{status: Committed, label: label, txHash: &txHash, confirmation: &conf}
}

// NewRejected builds a rejection. txHash is nil when the ledger refused
// the transaction before assigning it a hash.
func NewRejected(label string, kind RejectionKind, reason string, txHash *common.Hash) *Outcome {
	o := &Outcome{status: Rejected, label: label, kind: kind, reason: reason}
	if txHash != nil {
		h := *txHash
		o.txHash = &h
	}
	return o
}

func (o *Outcome) Status() Status {
	return o.status
}

func (o *Outcome) Committed() bool {
	return o.status == Committed
}

func (o *Outcome) Label() string {
	return o.label
}

// TxHash is the transaction id. It is always set for a committed outcome
// and may be set for a rejected one.
func (o *Outcome) TxHash() (common.Hash, bool) {
	if o.txHash == nil {
		return common.Hash{}, false
	}
	return *o.txHash, true
}

// Confirmation is nil unless the outcome is committed.
func (o *Outcome) Confirmation() *Confirmation {
	if o.confirmation == nil {
		return nil
	}
	c := *o.confirmation
	return &c
}

func (o *Outcome) Kind() RejectionKind {
	return o.kind
}

// Reason is empty unless the outcome is rejected.
func (o *Outcome) Reason() string {
	return o.reason
}

func (o *Outcome) String() string {
	if o.status == Committed {
		return fmt.Sprintf("%s: committed (tx: %s, block: %s)", o.label, o.txHash.Hex(), o.confirmation.BlockNumber)
	}
	return fmt.Sprintf("%s: rejected (%s): %s", o.label, o.kind, o.reason)
}

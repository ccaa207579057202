package transaction

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.dedis.ch/bookstore/blockchain/account"
)

// OpDeploy is the operation name of a contract creation.
const OpDeploy = "constructor"

var (
	ErrNoCaller      = errors.New("request has no caller")
	ErrNoOperation   = errors.New("request has no operation")
	ErrNegativeValue = errors.New("attached value is negative")
)

// Request is one state-changing call against a contract. It is built with
// a RequestBuilder and never changes afterwards.
type Request struct {
	from     *account.Account
	to       *common.Address // nil for a deploy
	abi      *abi.ABI
	method   string
	args     []interface{}
	value    *big.Int
	bytecode []byte
	label    string
}

func (r *Request) From() *account.Account {
	return r.from
}

// To is nil when the request creates a contract.
func (r *Request) To() *common.Address {
	if r.to == nil {
		return nil
	}
	to := *r.to
	return &to
}

// Operation is the contract method name, or OpDeploy.
func (r *Request) Operation() string {
	if r.to == nil {
		return OpDeploy
	}
	return r.method
}

func (r *Request) Args() []interface{} {
	return append([]interface{}(nil), r.args...)
}

// Value is the attached amount in wei, never nil.
func (r *Request) Value() *big.Int {
	return new(big.Int).Set(r.value)
}

// Label is the human readable name of the request, defaulting to the
// operation.
func (r *Request) Label() string {
	if r.label != "" {
		return r.label
	}
	return r.Operation()
}

// Data is the call data sent with the transaction: the packed method call,
// or the creation code followed by the packed constructor arguments.
func (r *Request) Data() ([]byte, error) {
	if r.to == nil {
		packed, err := r.abi.Pack("", r.args...)
		if err != nil {
			return nil, fmt.Errorf("cannot pack constructor arguments: %w", err)
		}
		return append(append([]byte(nil), r.bytecode...), packed...), nil
	}
	data, err := r.abi.Pack(r.method, r.args...)
	if err != nil {
		return nil, fmt.Errorf("cannot pack %s arguments: %w", r.method, err)
	}
	return data, nil
}

func (r *Request) String() string {
	return fmt.Sprintf("{op=%s, from=%s, value=%s, args=%v}", r.Operation(), r.from, r.value, r.args)
}

// RequestBuilder assembles a Request.
type RequestBuilder struct {
	req Request
}

func NewRequestBuilder(from *account.Account) *RequestBuilder {
	return &RequestBuilder{req: Request{from: from, value: new(big.Int)}}
}

// Call targets method of the contract deployed at to.
func (rb *RequestBuilder) Call(to common.Address, parsed *abi.ABI, method string, args ...interface{}) *RequestBuilder {
	rb.req.to = &to
	rb.req.abi = parsed
	rb.req.method = method
	rb.req.args = args
	return rb
}

// Deploy creates a new contract from bytecode, passing args to its
// constructor.
func (rb *RequestBuilder) Deploy(parsed *abi.ABI, bytecode []byte, args ...interface{}) *RequestBuilder {
	rb.req.to = nil
	rb.req.abi = parsed
	rb.req.method = ""
	rb.req.args = args
	rb.req.bytecode = append([]byte(nil), bytecode...)
	return rb
}

func (rb *RequestBuilder) WithValue(wei *big.Int) *RequestBuilder {
	if wei != nil {
		rb.req.value = new(big.Int).Set(wei)
	}
	return rb
}

func (rb *RequestBuilder) WithLabel(label string) *RequestBuilder {
	rb.req.label = label
	return rb
}

func (rb *RequestBuilder) Build() (*Request, error) {
	req := rb.req
	if req.from == nil {
		return nil, ErrNoCaller
	}
	if req.abi == nil || (req.to != nil && req.method == "") {
		return nil, ErrNoOperation
	}
	if req.to == nil && len(req.bytecode) == 0 {
		return nil, fmt.Errorf("%w: deploy without bytecode", ErrNoOperation)
	}
	if req.value.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeValue, req.value)
	}
	req.args = append([]interface{}(nil), req.args...)
	req.value = new(big.Int).Set(req.value)
	return &req, nil
}

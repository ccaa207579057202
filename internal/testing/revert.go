package testing

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var errorSelector = []byte{0x08, 0xc3, 0x79, 0xa0}

// RevertPayload encodes reason the way Solidity's require does.
func RevertPayload(reason string) []byte {
	stringType, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		panic(err)
	}
	return append(append([]byte(nil), errorSelector...), packed...)
}

// RevertError is the JSON-RPC error a node answers a reverting call with.
type RevertError struct {
	Reason string
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.Reason
}

func (e *RevertError) ErrorCode() int {
	return 3
}

func (e *RevertError) ErrorData() interface{} {
	if e.Reason == "" {
		return "0x"
	}
	return hexutil.Encode(RevertPayload(e.Reason))
}

package contract

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract couples a compiled contract with the address it is deployed at.
type Contract struct {
	Name     string
	ABI      abi.ABI
	Bytecode []byte

	address *common.Address
}

// At returns a copy of c bound to addr.
func (c *Contract) At(addr common.Address) *Contract {
	cp := *c
	cp.address = &addr
	return &cp
}

// Address is the deployed address; ok is false until the contract is bound
// with At.
func (c *Contract) Address() (addr common.Address, ok bool) {
	if c.address == nil {
		return common.Address{}, false
	}
	return *c.address, true
}

func (c *Contract) Deployed() bool {
	return c.address != nil
}

package wallet

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
)

// AccountInfo is an application-level view of an account.
type AccountInfo struct {
	Addr    common.Address
	Balance *big.Int // wei
}

// Ether renders the balance in ether with up to 18 decimals.
func (a AccountInfo) Ether() string {
	return FormatEther(a.Balance)
}

func (a AccountInfo) String() string {
	return fmt.Sprintf("{Addr=%s, Balance=%s ETH}", a.Addr.Hex(), a.Ether())
}

// FormatEther renders a wei amount in ether, trimming trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	abs := new(big.Int).Abs(wei)
	q, r := new(big.Int).QuoRem(abs, big.NewInt(params.Ether), new(big.Int))
	sign := ""
	if wei.Sign() < 0 {
		sign = "-"
	}
	if r.Sign() == 0 {
		return sign + q.String()
	}
	digits := r.String()
	frac := strings.TrimRight(strings.Repeat("0", 18-len(digits))+digits, "0")
	return sign + q.String() + "." + frac
}

// Ether converts whole ether to wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

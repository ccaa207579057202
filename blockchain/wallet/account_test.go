package wallet

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestFormatEther(t *testing.T) {
	require.Equal(t, "0", FormatEther(nil))
	require.Equal(t, "0", FormatEther(new(big.Int)))
	require.Equal(t, "2", FormatEther(Ether(2)))
	require.Equal(t, "1.5", FormatEther(new(big.Int).Div(Ether(3), big.NewInt(2))))
	require.Equal(t, "0.000000000000000001", FormatEther(big.NewInt(1)))
	require.Equal(t, "-1", FormatEther(Ether(-1)))

	big10k, ok := new(big.Int).SetString("9999999999999999999999", 10)
	require.True(t, ok)
	require.Equal(t, "9999.999999999999999999", FormatEther(big10k))
}

func TestAccountInfoString(t *testing.T) {
	info := AccountInfo{Addr: common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), Balance: Ether(10)}
	require.Equal(t, "{Addr=0x70997970C51812dc3A010C7d01b50e0d17dc79C8, Balance=10 ETH}", info.String())
}

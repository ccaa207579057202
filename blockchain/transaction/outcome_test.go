package transaction

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestJudge(t *testing.T) {
	hash := common.HexToHash("0x01")
	committed := NewCommitted("buy", hash, Confirmation{BlockNumber: big.NewInt(3)})
	rejected := NewRejected("buy", SubmissionRejected, "execution reverted: Incorrect payment amount", nil)

	cases := []struct {
		name    string
		outcome *Outcome
		policy  Policy
		pass    bool
		detail  string
	}{
		{"success committed", committed, ExpectSuccess, true, hash.Hex()},
		{"success rejected", rejected, ExpectSuccess, false, rejected.Reason()},
		{"rejection rejected", rejected, ExpectRejection, true, rejected.Reason()},
		{"rejection committed", committed, ExpectRejection, false, hash.Hex()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := Judge(c.outcome, c.policy)
			require.Equal(t, c.pass, v.Pass)
			require.Equal(t, c.policy, v.Policy)
			require.Equal(t, c.detail, v.Detail)
		})
	}
}

func TestOutcomeVariants(t *testing.T) {
	hash := common.HexToHash("0x02")
	created := common.HexToAddress("0x00000000000000000000000000000000000000bb")
	c := NewCommitted("deploy", hash, Confirmation{BlockNumber: big.NewInt(1), ContractAddress: &created})

	require.True(t, c.Committed())
	require.Equal(t, "committed", c.Status().String())
	require.Empty(t, c.Reason())
	conf := c.Confirmation()
	require.Equal(t, created, *conf.ContractAddress)

	// the caller's copy does not reach back into the outcome
	conf.BlockNumber = big.NewInt(99)
	require.Equal(t, int64(1), c.Confirmation().BlockNumber.Int64())

	r := NewRejected("deploy", ConfirmationTimeout, ReasonConfirmationTimeout, &hash)
	require.False(t, r.Committed())
	require.Nil(t, r.Confirmation())
	got, ok := r.TxHash()
	require.True(t, ok)
	require.Equal(t, hash, got)
	require.Equal(t, "deploy: rejected (confirmation timeout): confirmation timeout", r.String())
}

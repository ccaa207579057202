package contract

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const bookABI = `[
	{"type":"function","name":"getBook","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],
	 "outputs":[{"name":"title","type":"string"},{"name":"price","type":"uint256"},{"name":"seller","type":"address"},{"name":"","type":"bool"}]},
	{"type":"function","name":"books","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],
	 "outputs":[{"name":"","type":"tuple","components":[{"name":"title","type":"string"},{"name":"price","type":"uint256"}]}]}
]`

func TestNewRecordNamesOutputs(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(bookABI))
	require.NoError(t, err)
	seller := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

	packed, err := parsed.Methods["getBook"].Outputs.Pack("Go", big.NewInt(5), seller, true)
	require.NoError(t, err)
	values, err := parsed.Unpack("getBook", packed)
	require.NoError(t, err)

	r := NewRecord("Book #0", parsed.Methods["getBook"].Outputs, values)
	require.Len(t, r.Fields, 4)

	title, ok := r.Get("title")
	require.True(t, ok)
	require.Equal(t, "Go", title)
	require.True(t, r.Bool("out3"))
	require.False(t, r.Bool("missing"))

	out := r.String()
	require.True(t, strings.HasPrefix(out, "Book #0"))
	require.Contains(t, out, `title: "Go"`)
	require.Contains(t, out, "price: 5")
	require.Contains(t, out, "seller: "+seller.Hex())
}

func TestNewRecordFlattensTuple(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(bookABI))
	require.NoError(t, err)

	method := parsed.Methods["books"]
	value := struct {
		Title string   `json:"title"`
		Price *big.Int `json:"price"`
	}{"Go", big.NewInt(5)}
	packed, err := method.Outputs.Pack(value)
	require.NoError(t, err)
	values, err := parsed.Unpack("books", packed)
	require.NoError(t, err)

	r := NewRecord("Book #1", method.Outputs, values)
	require.Len(t, r.Fields, 2)
	price, ok := r.Get("price")
	require.True(t, ok)
	require.Equal(t, big.NewInt(5), price)
}

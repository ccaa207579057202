package contract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const probeABI = `[{"type":"function","name":"poke","inputs":[],"outputs":[],"stateMutability":"payable"}]`

func writeArtifact(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFoundryArtifact(t *testing.T) {
	path := writeArtifact(t, "Probe.json",
		`{"abi":`+probeABI+`,"bytecode":{"object":"0x6001600055","linkReferences":{}}}`)

	c, err := LoadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, "Probe", c.Name)
	require.Equal(t, []byte{0x60, 0x01, 0x60, 0x00, 0x55}, c.Bytecode)
	require.Contains(t, c.ABI.Methods, "poke")
	require.False(t, c.Deployed())
}

func TestLoadHardhatArtifact(t *testing.T) {
	path := writeArtifact(t, "x.json",
		`{"contractName":"Probe","abi":`+probeABI+`,"bytecode":"6001"}`)

	c, err := LoadArtifact(path)
	require.NoError(t, err)
	require.Equal(t, "Probe", c.Name)
	require.Equal(t, []byte{0x60, 0x01}, c.Bytecode)
}

func TestLoadArtifactErrors(t *testing.T) {
	_, err := LoadArtifact(filepath.Join(t.TempDir(), "missing.json"))
	require.True(t, errors.Is(err, ErrArtifactNotFound))

	cases := map[string]string{
		"not json":  `{`,
		"no abi":    `{"bytecode":"0x6001"}`,
		"bad abi":   `{"abi":{"nope":1},"bytecode":"0x6001"}`,
		"no code":   `{"abi":` + probeABI + `}`,
		"empty":     `{"abi":` + probeABI + `,"bytecode":{"object":"0x"}}`,
		"unlinked":  `{"abi":` + probeABI + `,"bytecode":"0x73__$abc$__"}`,
		"odd hex":   `{"abi":` + probeABI + `,"bytecode":"0x600"}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadArtifact(writeArtifact(t, "a.json", content))
			require.True(t, errors.Is(err, ErrBadArtifact), "got %v", err)
		})
	}
}

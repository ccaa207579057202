package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var (
	ErrArtifactNotFound = errors.New("contract artifact not found")
	ErrBadArtifact      = errors.New("malformed contract artifact")
)

// artifact is the JSON written by Foundry (bytecode is an object with an
// "object" field) or Hardhat (bytecode is a hex string).
type artifact struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     json.RawMessage `json:"bytecode"`
}

type foundryBytecode struct {
	Object string `json:"object"`
}

// LoadArtifact reads a compiled contract from path. A missing file wraps
// ErrArtifactNotFound.
func LoadArtifact(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (build the contracts first)", ErrArtifactNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read artifact %s: %w", path, err)
	}
	c, err := ParseArtifact(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

func ParseArtifact(data []byte) (*Contract, error) {
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	if len(art.ABI) == 0 {
		return nil, fmt.Errorf("%w: no abi", ErrBadArtifact)
	}
	parsed, err := abi.JSON(bytes.NewReader(art.ABI))
	if err != nil {
		return nil, fmt.Errorf("%w: abi: %v", ErrBadArtifact, err)
	}

	code, err := parseBytecode(art.Bytecode)
	if err != nil {
		return nil, err
	}
	return &Contract{Name: art.ContractName, ABI: parsed, Bytecode: code}, nil
}

func parseBytecode(raw json.RawMessage) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("%w: no bytecode", ErrBadArtifact)
	}

	var hex string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &hex); err != nil {
			return nil, fmt.Errorf("%w: bytecode: %v", ErrBadArtifact, err)
		}
	} else {
		var fb foundryBytecode
		if err := json.Unmarshal(raw, &fb); err != nil {
			return nil, fmt.Errorf("%w: bytecode: %v", ErrBadArtifact, err)
		}
		hex = fb.Object
	}

	if strings.Contains(hex, "__") {
		return nil, fmt.Errorf("%w: bytecode has unlinked library references", ErrBadArtifact)
	}
	if !strings.HasPrefix(hex, "0x") {
		hex = "0x" + hex
	}
	code, err := hexutil.Decode(hex)
	if err != nil {
		return nil, fmt.Errorf("%w: bytecode: %v", ErrBadArtifact, err)
	}
	if len(code) == 0 {
		return nil, fmt.Errorf("%w: empty bytecode", ErrBadArtifact)
	}
	return code, nil
}

package types

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Mint is a platform-agnostic opaque token identity. It is wide enough to
// hold either a 20-byte EVM address or a 32-byte SVM pubkey, zero-padded on
// construction so the registry can compare identities with ==.
type Mint [32]byte

// MintFromEVMAddress builds a Mint from an EVM token contract address,
// validating it the way go-ethereum itself does before left-padding it into
// the wider Mint representation.
func MintFromEVMAddress(s string) (Mint, error) {
	if !common.IsHexAddress(s) {
		return Mint{}, fmt.Errorf("mint: %q is not a valid EVM address", s)
	}
	addr := common.HexToAddress(s)
	var m Mint
	copy(m[32-len(addr):], addr[:])
	return m, nil
}

// MintFromHex builds a Mint from a hex-encoded address, left-padding the
// result. It accepts an optional "0x" prefix. Unlike MintFromEVMAddress this
// does not require exactly 20 bytes, so it also accepts 32-byte SVM pubkeys
// already rendered as hex.
func MintFromHex(s string) (Mint, error) {
	s = trimHexPrefix(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return Mint{}, fmt.Errorf("mint: decode hex %q: %w", s, err)
	}
	if len(b) > 32 {
		return Mint{}, fmt.Errorf("mint: hex value too long: %d bytes", len(b))
	}
	var m Mint
	copy(m[32-len(b):], b)
	return m, nil
}

// MintFromBase58 is a pluggable hook for SVM-style pubkeys. The concrete
// base58 decoding is left to the chain binding, which is out of scope here;
// this wraps raw bytes directly so callers that already have a decoded
// pubkey can still build a Mint.
func MintFromBase58(decoded []byte) (Mint, error) {
	if len(decoded) > 32 {
		return Mint{}, fmt.Errorf("mint: base58 payload too long: %d bytes", len(decoded))
	}
	var m Mint
	copy(m[32-len(decoded):], decoded)
	return m, nil
}

func (m Mint) String() string {
	return hex.EncodeToString(m[:])
}

// MarshalJSON renders the Mint as a hex string, so cache entries and log
// fields stay human-legible instead of a raw byte array.
func (m Mint) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts the hex string form written by MarshalJSON.
func (m *Mint) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	decoded, err := MintFromHex(s)
	if err != nil {
		return err
	}
	*m = decoded
	return nil
}

func (m Mint) IsZero() bool {
	return m == Mint{}
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

package dsl

import "math/big"

// base58Alphabet is the Bitcoin/IPFS alphabet Zenroom itself renders
// key material with. None of the retrieval pack's example repos ships
// a base58 dependency (see DESIGN.md), so this one encoding — needed
// only to match spec.md S1's "base58-encoded" expectation — is the
// single narrowly-scoped standard-library fallback in this module.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// Base58Encode renders b in base58, preserving leading zero bytes as
// leading '1' characters the way Bitcoin-style base58 does.
func Base58Encode(b []byte) string {
	zero := byte(0)
	var zeros int
	for zeros < len(b) && b[zeros] == zero {
		zeros++
	}

	x := new(big.Int).SetBytes(b)
	base := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, base58Alphabet[0])
	}
	// Reverse.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// Base58Decode reverses Base58Encode.
func Base58Decode(s string) ([]byte, error) {
	x := big.NewInt(0)
	base := big.NewInt(58)
	for _, c := range s {
		idx := -1
		for i, a := range base58Alphabet {
			if a == c {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, TypeError("invalid base58 character")
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(idx)))
	}

	decoded := x.Bytes()

	var zeros int
	for zeros < len(s) && s[zeros] == base58Alphabet[0] {
		zeros++
	}

	out := make([]byte, zeros+len(decoded))
	copy(out[zeros:], decoded)
	return out, nil
}

package ecdsa

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dyne-zen/zendsl/dsl"
)

func TestValidatePublicKeyRequiresUncompressedPoint(t *testing.T) {
	_, err := validatePublicKey(dsl.Octet{0x04, 0x01})
	require.Error(t, err)

	good := make([]byte, 65)
	good[0] = 0x04
	v, err := validatePublicKey(dsl.Octet(good))
	require.NoError(t, err)
	require.Equal(t, dsl.Octet(good), v)
}

func TestEncodeDecodeSignatureRoundTrip(t *testing.T) {
	r := big.NewInt(12345)
	s := big.NewInt(67890)

	enc := encodeSignature(r, s)
	require.Len(t, enc, 64)

	decR, decS, err := decodeSignature(enc)
	require.NoError(t, err)
	require.Equal(t, 0, r.Cmp(decR))
	require.Equal(t, 0, s.Cmp(decS))
}

func TestDecodeSignatureRejectsWrongLength(t *testing.T) {
	_, _, err := decodeSignature(dsl.Octet{1, 2, 3})
	require.Error(t, err)
}

func TestRegisterDoesNotExposeP256Session(t *testing.T) {
	reg := dsl.NewRegistries()
	schemas := dsl.NewSchemaRegistry()
	ctx := dsl.NewTestCtx(nil)
	require.NoError(t, Register(ctx, reg, schemas))

	_, ok := reg.When.Lookup("i create the ecdsa keypair")
	require.True(t, ok)

	for _, pattern := range []string{
		"i create the p256 session",
		"i create a p256 session with ''",
	} {
		_, ok := reg.When.Lookup(pattern)
		require.False(t, ok, "p256_session must not be registered")
	}
}

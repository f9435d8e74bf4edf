package hash

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dyne-zen/zendsl/dsl"
)

func TestConvertSHA256(t *testing.T) {
	digest, err := convertSHA256(dsl.Octet("hello world"))
	require.NoError(t, err)
	octet, ok := digest.(dsl.Octet)
	require.True(t, ok)
	want := sha256.Sum256([]byte("hello world"))
	require.Equal(t, want[:], []byte(octet))
}

func TestConvertBlake3DiffersFromSHA256(t *testing.T) {
	sha, err := convertSHA256(dsl.Octet("hello world"))
	require.NoError(t, err)
	b3, err := convertBlake3(dsl.Octet("hello world"))
	require.NoError(t, err)
	require.NotEqual(t, sha, b3)
	require.Len(t, b3.(dsl.Octet), 32)
}

func TestConvertRejectsUnhashableType(t *testing.T) {
	_, err := convertSHA256(42)
	require.Error(t, err)
}

func TestRegisterInstallsPatternsAndSchemas(t *testing.T) {
	reg := dsl.NewRegistries()
	schemas := dsl.NewSchemaRegistry()
	ctx := dsl.NewTestCtx(nil)
	require.NoError(t, Register(ctx, reg, schemas))

	_, ok := reg.When.Lookup("i create the sha256 hash of ''")
	require.True(t, ok)
	_, ok = reg.When.Lookup("i create the blake3 hash of ''")
	require.True(t, ok)

	_, ok = dsl.NewSchemaRegistry().Lookup("sha256_digest")
	require.False(t, ok)
	_, ok = schemas.Lookup("sha256_digest")
	require.True(t, ok)
}

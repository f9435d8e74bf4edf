// Package ecdsa is a ZenDSL scenario plugin exposing ECDSA over
// P-256 keypair/sign/verify as Given/When/Then patterns, mirroring
// the eddsa plugin's shape (spec.md §1 treats the primitive itself,
// here crypto/ecdsa and crypto/elliptic, as an external collaborator).
//
// p256_session (spec.md §9) is intentionally not implemented: the
// original source leaves it a stub with no session/KEM semantics
// specified, so no pattern is registered for it here.
package ecdsa

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/dyne-zen/zendsl/dsl"
)

func sum256(msg []byte) []byte {
	digest := sha256.Sum256(msg)
	return digest[:]
}

func init() {
	dsl.TheScenarioRegistry.Register(dsl.NewCtx(nil), "ecdsa", Register)
}

// Register populates reg and schemas with this scenario's patterns.
func Register(ctx *dsl.Ctx, reg *dsl.Registries, schemas *dsl.SchemaRegistry) error {
	schemas.Register("ecdsa_public_key", dsl.FuncSchema(validatePublicKey))

	reg.WhenFunc("i create the ecdsa keypair", whenCreateKeypair)
	reg.WhenFunc("i create the ecdsa signature of ''", whenSign)
	reg.WhenFunc("i verify the '' has an ecdsa signature in ''", whenVerify)

	ctx.Indf("ecdsa scenario registered")
	return nil
}

func validatePublicKey(v dsl.Value) (dsl.Value, error) {
	o, ok := v.(dsl.Octet)
	if !ok {
		return nil, fmt.Errorf("ecdsa public key must be an octet")
	}
	// Uncompressed SEC1 point on P-256: 0x04 || X(32) || Y(32).
	if len(o) != 65 || o[0] != 0x04 {
		return nil, fmt.Errorf("ecdsa public key is not an uncompressed P-256 point")
	}
	return o, nil
}

// signature is the (R, S) pair carried as a flat Octet: 32 bytes of R
// followed by 32 bytes of S.
func encodeSignature(r, s *big.Int) dsl.Octet {
	out := make([]byte, 64)
	r.FillBytes(out[:32])
	s.FillBytes(out[32:])
	return dsl.Octet(out)
}

func decodeSignature(o dsl.Octet) (*big.Int, *big.Int, error) {
	if len(o) != 64 {
		return nil, nil, fmt.Errorf("ecdsa signature must be 64 bytes")
	}
	r := new(big.Int).SetBytes(o[:32])
	s := new(big.Int).SetBytes(o[32:])
	return r, s, nil
}

func whenCreateKeypair(ctx *dsl.Ctx, rc *dsl.RunContext, args []string) error {
	w := rc.When()
	who, have := w.Whoami()
	if !have {
		return dsl.IdentityError("create the ecdsa keypair requires identity to be set")
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return dsl.NewBroken(fmt.Errorf("generating ecdsa keypair: %w", err))
	}
	pub := elliptic.Marshal(elliptic.P256(), priv.PublicKey.X, priv.PublicKey.Y)

	ack := w.ACK()
	mine, ok := ack.Get(who)
	myMap, isMap := mine.(*dsl.Map)
	if !ok || !isMap {
		myMap = dsl.NewMap()
		ack.Set(who, myMap)
	}

	keyring, ok := myMap.Get("keyring")
	keyringMap, isMap := keyring.(*dsl.Map)
	if !ok || !isMap {
		keyringMap = dsl.NewMap()
		myMap.Set("keyring", keyringMap)
	}
	keyringMap.Set("ecdsa", dsl.Octet(priv.D.Bytes()))

	keypair, ok := myMap.Get("keypair")
	keypairMap, isMap := keypair.(*dsl.Map)
	if !ok || !isMap {
		keypairMap = dsl.NewMap()
		myMap.Set("keypair", keypairMap)
	}
	pubMap := dsl.NewMap()
	pubMap.Set("ecdsa", dsl.Octet(pub))
	keypairMap.Set("public_key", pubMap)

	ctx.Indf("created ecdsa keypair for %s", who)
	return nil
}

func whenSign(ctx *dsl.Ctx, rc *dsl.RunContext, args []string) error {
	w := rc.When()
	who, have := w.Whoami()
	if !have {
		return dsl.IdentityError("create the ecdsa signature requires identity to be set")
	}

	name := args[0]
	mine, ok := w.ACK().Get(who)
	myMap, isMap := mine.(*dsl.Map)
	if !ok || !isMap {
		return dsl.NotFound(who)
	}
	msgVal, ok := myMap.Get(name)
	if !ok {
		return dsl.NotFound(name)
	}
	msg, ok := msgVal.(dsl.Octet)
	if !ok {
		if s, isStr := msgVal.(string); isStr {
			msg = dsl.Octet(s)
		} else {
			return dsl.TypeError(fmt.Sprintf("%q is not signable", name))
		}
	}

	keyring, ok := myMap.Get("keyring")
	keyringMap, isMap := keyring.(*dsl.Map)
	if !ok || !isMap {
		return dsl.NotFound("keyring")
	}
	dVal, ok := keyringMap.Get("ecdsa")
	dBytes, isOctet := dVal.(dsl.Octet)
	if !ok || !isOctet {
		return dsl.NotFound("ecdsa private key")
	}

	priv := new(ecdsa.PrivateKey)
	priv.PublicKey.Curve = elliptic.P256()
	priv.D = new(big.Int).SetBytes(dBytes)
	priv.PublicKey.X, priv.PublicKey.Y = elliptic.P256().ScalarBaseMult(dBytes)

	digest := sum256(msg)
	r, s, err := ecdsa.Sign(rand.Reader, priv, digest)
	if err != nil {
		return dsl.NewBroken(fmt.Errorf("signing: %w", err))
	}

	sigContainer, ok := myMap.Get("signature")
	sigMap, isMap := sigContainer.(*dsl.Map)
	if !ok || !isMap {
		sigMap = dsl.NewMap()
		myMap.Set("signature", sigMap)
	}
	sigMap.Set(name, encodeSignature(r, s))

	ctx.Indf("signed %s for %s with ecdsa", name, who)
	return nil
}

func whenVerify(ctx *dsl.Ctx, rc *dsl.RunContext, args []string) error {
	w := rc.When()
	who, have := w.Whoami()
	if !have {
		return dsl.IdentityError("verify requires identity to be set")
	}
	msgName, sigName := args[0], args[1]

	mine, ok := w.ACK().Get(who)
	myMap, isMap := mine.(*dsl.Map)
	if !ok || !isMap {
		return dsl.NotFound(who)
	}

	msgVal, ok := myMap.Get(msgName)
	if !ok {
		return dsl.NotFound(msgName)
	}
	msg, ok := msgVal.(dsl.Octet)
	if !ok {
		if s, isStr := msgVal.(string); isStr {
			msg = dsl.Octet(s)
		} else {
			return dsl.TypeError(fmt.Sprintf("%q is not a signable message", msgName))
		}
	}

	sigContainer, ok := myMap.Get("signature")
	sigMap, isMap := sigContainer.(*dsl.Map)
	if !ok || !isMap {
		return dsl.NotFound("signature")
	}
	sigVal, ok := sigMap.Get(sigName)
	sigOctet, isOctet := sigVal.(dsl.Octet)
	if !ok || !isOctet {
		return dsl.NotFound(sigName)
	}
	r, s, err := decodeSignature(sigOctet)
	if err != nil {
		return dsl.TypeError(err.Error())
	}

	keypair, ok := myMap.Get("keypair")
	keypairMap, isMap := keypair.(*dsl.Map)
	if !ok || !isMap {
		return dsl.NotFound("keypair")
	}
	pubMapVal, ok := keypairMap.Get("public_key")
	pubMap, isMap := pubMapVal.(*dsl.Map)
	if !ok || !isMap {
		return dsl.NotFound("public_key")
	}
	pubVal, ok := pubMap.Get("ecdsa")
	pubOctet, isOctet := pubVal.(dsl.Octet)
	if !ok || !isOctet {
		return dsl.NotFound("ecdsa public key")
	}
	x, y := elliptic.Unmarshal(elliptic.P256(), pubOctet)
	if x == nil {
		return dsl.TypeError("invalid ecdsa public key point")
	}
	pub := &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}

	digest := sum256(msg)
	if !ecdsa.Verify(pub, digest, r, s) {
		return dsl.Brokenf("ecdsa signature verification failed")
	}

	ctx.Indf("verified %s against %s for %s with ecdsa", sigName, msgName, who)
	return nil
}

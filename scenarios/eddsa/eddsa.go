// Package eddsa is a ZenDSL scenario plugin exposing Ed25519
// keypair/sign/verify as Given/When/Then patterns. It is a
// collaborator in the sense of spec.md §1: the primitive itself comes
// from crypto/ed25519, and this package only binds it to patterns and
// to the three memory compartments a handler is allowed to touch.
package eddsa

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/dyne-zen/zendsl/dsl"
)

func init() {
	dsl.TheScenarioRegistry.Register(dsl.NewCtx(nil), "eddsa", Register)
}

// Register populates reg and schemas with this scenario's patterns,
// the same factory shape the teacher's chans packages use to populate
// dsl.TheChanRegistry from init().
func Register(ctx *dsl.Ctx, reg *dsl.Registries, schemas *dsl.SchemaRegistry) error {
	schemas.Register("eddsa_public_key", dsl.FuncSchema(validatePublicKey))
	schemas.Register("eddsa_signature", dsl.FuncSchema(validateSignature))

	reg.WhenFunc("i create the keypair", whenCreateKeypair)
	reg.WhenFunc("i create the signature of ''", whenSign)
	reg.WhenFunc("i verify the '' has a signature in ''", whenVerify)

	ctx.Indf("eddsa scenario registered")
	return nil
}

func validatePublicKey(v dsl.Value) (dsl.Value, error) {
	o, ok := v.(dsl.Octet)
	if !ok {
		return nil, fmt.Errorf("eddsa public key must be an octet")
	}
	if len(o) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("eddsa public key must be %d bytes, got %d", ed25519.PublicKeySize, len(o))
	}
	return o, nil
}

func validateSignature(v dsl.Value) (dsl.Value, error) {
	o, ok := v.(dsl.Octet)
	if !ok {
		return nil, fmt.Errorf("eddsa signature must be an octet")
	}
	if len(o) != ed25519.SignatureSize {
		return nil, fmt.Errorf("eddsa signature must be %d bytes, got %d", ed25519.SignatureSize, len(o))
	}
	return o, nil
}

// whenCreateKeypair generates an Ed25519 keypair and stores the
// private key under ACK[whoami].keyring.eddsa and the public key under
// ACK[whoami].keypair.public_key.eddsa, both as Octets, which encode to
// base58 on the wire to match Zenroom's own convention (spec.md S1).
func whenCreateKeypair(ctx *dsl.Ctx, rc *dsl.RunContext, args []string) error {
	w := rc.When()
	who, have := w.Whoami()
	if !have {
		return dsl.IdentityError("create the keypair requires identity to be set")
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return dsl.NewBroken(fmt.Errorf("generating eddsa keypair: %w", err))
	}

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
	keyringMap.Set("eddsa", dsl.Octet(priv))

	keypair, ok := myMap.Get("keypair")
	keypairMap, isMap := keypair.(*dsl.Map)
	if !ok || !isMap {
		keypairMap = dsl.NewMap()
		myMap.Set("keypair", keypairMap)
	}
	pubMap := dsl.NewMap()
	pubMap.Set("eddsa", dsl.Octet(pub))
	keypairMap.Set("public_key", pubMap)

	ctx.Indf("created eddsa keypair for %s", who)
	return nil
}

// whenSign signs the value picked at arg (expected to have been
// ack'd already; in the spirit of spec.md §4.4, it reads straight
// from ACK rather than TMP since signing is a When operation and
// TMP is not in a When handler's capability set).
func whenSign(ctx *dsl.Ctx, rc *dsl.RunContext, args []string) error {
	w := rc.When()
	who, have := w.Whoami()
	if !have {
		return dsl.IdentityError("create the signature requires identity to be set")
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
	privVal, ok := keyringMap.Get("eddsa")
	priv, isOctet := privVal.(dsl.Octet)
	if !ok || !isOctet {
		return dsl.NotFound("eddsa private key")
	}

	sig := ed25519.Sign(ed25519.PrivateKey(priv), msg)

	sigMap, ok := myMap.Get("signature")
	sigMapMap, isMap := sigMap.(*dsl.Map)
	if !ok || !isMap {
		sigMapMap = dsl.NewMap()
		myMap.Set("signature", sigMapMap)
	}
	sigMapMap.Set(name, dsl.Octet(sig))

	ctx.Indf("signed %s for %s", name, who)
	return nil
}

// whenVerify checks a signature against a public key, both taken from
// ACK[whoami].
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
	sig, isOctet := sigVal.(dsl.Octet)
	if !ok || !isOctet {
		return dsl.NotFound(sigName)
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
	pubVal, ok := pubMap.Get("eddsa")
	pub, isOctet := pubVal.(dsl.Octet)
	if !ok || !isOctet {
		return dsl.NotFound("eddsa public key")
	}

	if !ed25519.Verify(ed25519.PublicKey(pub), msg, sig) {
		return dsl.Brokenf("eddsa signature verification failed")
	}

	ctx.Indf("verified %s against %s for %s", sigName, msgName, who)
	return nil
}

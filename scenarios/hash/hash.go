// Package hash is a ZenDSL scenario plugin exposing digest functions
// as convert() targets and a When pattern for hashing an ack'd value,
// mirroring the eddsa/ecdsa plugins' registration shape.
package hash

import (
	"crypto/sha256"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/dyne-zen/zendsl/dsl"
)

func init() {
	dsl.TheScenarioRegistry.Register(dsl.NewCtx(nil), "hash", Register)
}

// Register installs the sha256 and blake3 converters and a When
// pattern for hashing an ack'd value by name.
func Register(ctx *dsl.Ctx, reg *dsl.Registries, schemas *dsl.SchemaRegistry) error {
	dsl.RegisterConverter("sha256", convertSHA256)
	dsl.RegisterConverter("blake3", convertBlake3)

	schemas.Register("sha256_digest", dsl.FuncSchema(validateDigest(sha256.Size)))
	schemas.Register("blake3_digest", dsl.FuncSchema(validateDigest(32)))

	reg.WhenFunc("i create the hash of ''", whenHash("sha256"))
	reg.WhenFunc("i create the sha256 hash of ''", whenHash("sha256"))
	reg.WhenFunc("i create the blake3 hash of ''", whenHash("blake3"))

	ctx.Indf("hash scenario registered")
	return nil
}

func toBytes(v dsl.Value) ([]byte, bool) {
	switch t := v.(type) {
	case dsl.Octet:
		return []byte(t), true
	case string:
		return []byte(t), true
	default:
		return nil, false
	}
}

func convertSHA256(v dsl.Value) (dsl.Value, error) {
	b, ok := toBytes(v)
	if !ok {
		return nil, dsl.TypeError(fmt.Sprintf("cannot hash %T", v))
	}
	sum := sha256.Sum256(b)
	return dsl.Octet(sum[:]), nil
}

func convertBlake3(v dsl.Value) (dsl.Value, error) {
	b, ok := toBytes(v)
	if !ok {
		return nil, dsl.TypeError(fmt.Sprintf("cannot hash %T", v))
	}
	h := blake3.New()
	h.Write(b)
	return dsl.Octet(h.Sum(nil)), nil
}

func validateDigest(size int) func(dsl.Value) (dsl.Value, error) {
	return func(v dsl.Value) (dsl.Value, error) {
		o, ok := v.(dsl.Octet)
		if !ok {
			return nil, fmt.Errorf("digest must be an octet")
		}
		if len(o) != size {
			return nil, fmt.Errorf("digest must be %d bytes, got %d", size, len(o))
		}
		return o, nil
	}
}

// whenHash hashes ACK[whoami][name] with algo and stores the digest
// back under ACK[whoami].hash[algo][name].
func whenHash(algo string) dsl.Handler {
	return func(ctx *dsl.Ctx, rc *dsl.RunContext, args []string) error {
		w := rc.When()
		who, have := w.Whoami()
		if !have {
			return dsl.IdentityError("create the hash requires identity to be set")
		}

		name := args[0]
		mine, ok := w.ACK().Get(who)
		myMap, isMap := mine.(*dsl.Map)
		if !ok || !isMap {
			return dsl.NotFound(who)
		}
		val, ok := myMap.Get(name)
		if !ok {
			return dsl.NotFound(name)
		}
		b, ok := toBytes(val)
		if !ok {
			return dsl.TypeError(fmt.Sprintf("%q is not hashable", name))
		}

		var fn func(dsl.Value) (dsl.Value, error)
		if algo == "blake3" {
			fn = convertBlake3
		} else {
			fn = convertSHA256
		}
		digest, err := fn(dsl.Octet(b))
		if err != nil {
			return err
		}

		hashContainer, ok := myMap.Get("hash")
		hashMap, isMap := hashContainer.(*dsl.Map)
		if !ok || !isMap {
			hashMap = dsl.NewMap()
			myMap.Set("hash", hashMap)
		}
		algoContainer, ok := hashMap.Get(algo)
		algoMap, isMap := algoContainer.(*dsl.Map)
		if !ok || !isMap {
			algoMap = dsl.NewMap()
			hashMap.Set(algo, algoMap)
		}
		algoMap.Set(name, digest)

		ctx.Indf("hashed %s for %s with %s", name, who, algo)
		return nil
	}
}

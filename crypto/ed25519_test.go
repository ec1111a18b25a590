package crypto

import (
	"bytes"
	"testing"

	"github.com/concord-labs/concord"
)

func TestSignAndVerify(t *testing.T) {
	priv := GenPrivKeyEd25519()
	pub := priv.PublicKey()

	msg := []byte("some message to protect")
	sig, err := priv.Sign(msg)
	if err != nil {
		t.Fatalf("cannot sign: %s", err)
	}

	if !pub.Verify(msg, sig) {
		t.Fatal("valid signature rejected")
	}
	if pub.Verify([]byte("other message"), sig) {
		t.Fatal("signature valid for a different message")
	}

	other := GenPrivKeyEd25519().PublicKey()
	if other.Verify(msg, sig) {
		t.Fatal("signature valid for a different key")
	}
}

func TestDeterministicFromSeed(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)

	a := PrivKeyEd25519FromSeed(seed)
	b := PrivKeyEd25519FromSeed(seed)

	if !bytes.Equal(a.PublicKey().Ed25519, b.PublicKey().Ed25519) {
		t.Fatal("same seed must give the same key")
	}
	if !a.PublicKey().Address().Equals(b.PublicKey().Address()) {
		t.Fatal("same seed must give the same address")
	}
}

func TestConditionFormat(t *testing.T) {
	pub := GenPrivKeyEd25519().PublicKey()
	cond := pub.Condition()

	ext, typ, data, err := cond.Parse()
	if err != nil {
		t.Fatalf("invalid condition: %s", err)
	}
	if ext != ExtensionName || typ != "ed25519" {
		t.Fatalf("unexpected condition sections: %s/%s", ext, typ)
	}
	if !bytes.Equal(data, pub.Ed25519) {
		t.Fatal("condition data must be the raw public key")
	}
	if err := concord.Address(cond.Address()).Validate(); err != nil {
		t.Fatalf("invalid address: %s", err)
	}
}

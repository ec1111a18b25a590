package crypto

import (
	"golang.org/x/crypto/ed25519"

	"github.com/concord-labs/concord"
	"github.com/concord-labs/concord/errors"
)

// ExtensionName is used for the conditions we derive from public keys
const ExtensionName = "sigs"

// Signer is the functionality we use from a private key.
// No serializing to support hardware devices as well.
type Signer interface {
	Sign(message []byte) (Signature, error)
	PublicKey() PublicKey
}

// PublicKey is an ed25519 public key.
type PublicKey struct {
	// Ed25519 is the raw 32 byte public key
	Ed25519 []byte
}

// Verify verifies the signature was created with this message and
// public key
func (p PublicKey) Verify(message []byte, sig Signature) bool {
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p.Ed25519), message, sig.Ed25519)
}

// Condition encodes the public key into a concord permission
func (p PublicKey) Condition() concord.Condition {
	return concord.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is a shortcut for Condition().Address()
func (p PublicKey) Address() concord.Address {
	return p.Condition().Address()
}

// Validate ensures the key has the expected size.
func (p PublicKey) Validate() error {
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInput, "public key size: %d", len(p.Ed25519))
	}
	return nil
}

// Signature is an ed25519 signature over a message.
type Signature struct {
	Ed25519 []byte
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	// Ed25519 is the raw 64 byte private key
	Ed25519 []byte
}

var _ Signer = (*PrivateKey)(nil)

// Sign returns a matching signature for this private key
func (p PrivateKey) Sign(message []byte) (Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return Signature{}, errors.Wrapf(errors.ErrInput, "private key size: %d", len(p.Ed25519))
	}
	bz := ed25519.Sign(ed25519.PrivateKey(p.Ed25519), message)
	return Signature{Ed25519: bz}, nil
}

// PublicKey returns the corresponding PublicKey
func (p PrivateKey) PublicKey() PublicKey {
	priv := ed25519.PrivateKey(p.Ed25519)
	pub := priv.Public().(ed25519.PublicKey)
	return PublicKey{Ed25519: pub}
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key
// from a given seed. Use if you have a strong source of external
// randomness, or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) PrivateKey {
	priv := ed25519.NewKeyFromSeed(seed)
	return PrivateKey{Ed25519: priv}
}

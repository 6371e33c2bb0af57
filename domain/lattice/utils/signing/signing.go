// Package signing holds the Schnorr key handling of accounts. An account is
// the serialized x-only public key of its key pair.
package signing

import (
	"github.com/kaspanet/go-secp256k1"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/domain/lattice/utils/hashing"
	"github.com/pkg/errors"
)

// KeyPair is an account's private key together with its account.
type KeyPair struct {
	keyPair *secp256k1.SchnorrKeyPair
	account externalapi.Account
}

// GenerateKeyPair generates a new random key pair.
func GenerateKeyPair() (*KeyPair, error) {
	keyPair, err := secp256k1.GenerateSchnorrKeyPair()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate a key pair")
	}
	return newKeyPair(keyPair)
}

// KeyPairFromPrivateKey restores a key pair from its 32 byte private key.
func KeyPairFromPrivateKey(privateKey []byte) (*KeyPair, error) {
	keyPair, err := secp256k1.DeserializeSchnorrPrivateKeyFromSlice(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return newKeyPair(keyPair)
}

func newKeyPair(keyPair *secp256k1.SchnorrKeyPair) (*KeyPair, error) {
	publicKey, err := keyPair.SchnorrPublicKey()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	serializedPublicKey, err := publicKey.Serialize()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	account, err := externalapi.NewAccountFromByteSlice(serializedPublicKey[:])
	if err != nil {
		return nil, err
	}
	return &KeyPair{keyPair: keyPair, account: account}, nil
}

// Account returns the account of the key pair.
func (kp *KeyPair) Account() externalapi.Account {
	return kp.account
}

// PrivateKey returns the serialized private key.
func (kp *KeyPair) PrivateKey() []byte {
	serialized := kp.keyPair.SerializePrivateKey()
	return serialized[:]
}

// Sign signs the given hash.
func (kp *KeyPair) Sign(hash externalapi.DomainHash) (externalapi.Signature, error) {
	secpHash := secp256k1.Hash(hash.ByteArray())
	signature, err := kp.keyPair.SchnorrSign(&secpHash)
	if err != nil {
		return externalapi.Signature{}, errors.Wrap(err, "cannot sign hash")
	}
	return externalapi.Signature(*signature.Serialize()), nil
}

// SignBlock sets the signature of the block to the signature of its hash.
func (kp *KeyPair) SignBlock(block externalapi.Block) error {
	signature, err := kp.Sign(hashing.BlockHash(block))
	if err != nil {
		return err
	}
	switch b := block.(type) {
	case *externalapi.SendBlock:
		b.Signature = signature
	case *externalapi.ReceiveBlock:
		b.Signature = signature
	case *externalapi.OpenBlock:
		b.Signature = signature
	case *externalapi.ChangeBlock:
		b.Signature = signature
	case *externalapi.StateBlock:
		b.Signature = signature
	default:
		return errors.Errorf("unknown block type %T", block)
	}
	return nil
}

// SignVote sets the signature of the vote.
func (kp *KeyPair) SignVote(vote *externalapi.Vote) error {
	signature, err := kp.Sign(hashing.VoteHash(vote.Sequence, vote.Hashes))
	if err != nil {
		return err
	}
	vote.Signature = signature
	return nil
}

// Verify returns whether signature is a valid signature of hash by account.
// Malformed accounts and signatures do not verify.
func Verify(account externalapi.Account, hash externalapi.DomainHash, signature externalapi.Signature) bool {
	publicKey, err := secp256k1.DeserializeSchnorrPubKey(account.ByteSlice())
	if err != nil {
		return false
	}
	schnorrSignature, err := secp256k1.DeserializeSchnorrSignatureFromSlice(signature[:])
	if err != nil {
		return false
	}
	secpHash := secp256k1.Hash(hash.ByteArray())
	return publicKey.SchnorrVerify(&secpHash, schnorrSignature)
}

// VerifyVote returns whether the vote is signed by its account.
func VerifyVote(vote *externalapi.Vote) bool {
	return Verify(vote.Account, hashing.VoteHash(vote.Sequence, vote.Hashes), vote.Signature)
}

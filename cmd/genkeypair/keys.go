package main

import (
	"encoding/binary"
	"strings"

	"github.com/orvnet/orvd/domain/lattice/utils/signing"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/blake2b"
)

// createMnemonic returns a new 24 word mnemonic
func createMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return bip39.NewMnemonic(entropy)
}

// keyPairFromMnemonic derives the key at index from mnemonic. The private key
// is blake2b(seed || index) with the index encoded big endian.
func keyPairFromMnemonic(mnemonic string, index uint32) (*signing.KeyPair, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, errors.Wrap(err, "invalid mnemonic")
	}

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	hasher.Write(seed)
	var indexBytes [4]byte
	binary.BigEndian.PutUint32(indexBytes[:], index)
	hasher.Write(indexBytes[:])

	return signing.KeyPairFromPrivateKey(hasher.Sum(nil))
}

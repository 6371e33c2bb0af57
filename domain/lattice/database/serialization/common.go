package serialization

import (
	"io"

	"github.com/holiman/uint256"
	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/util/binaryserializer"
)

// AmountSize is the size of a serialized amount
const AmountSize = 32

func writeHash(w io.Writer, hash externalapi.DomainHash) error {
	return binaryserializer.PutBytes(w, hash.ByteSlice())
}

func readHash(r io.Reader) (externalapi.DomainHash, error) {
	var hashBytes [externalapi.DomainHashSize]byte
	err := binaryserializer.FixedBytes(r, hashBytes[:])
	if err != nil {
		return externalapi.DomainHash{}, err
	}
	return externalapi.NewDomainHashFromByteArray(&hashBytes), nil
}

func writeAccount(w io.Writer, account externalapi.Account) error {
	return binaryserializer.PutBytes(w, account.ByteSlice())
}

func readAccount(r io.Reader) (externalapi.Account, error) {
	var accountBytes [externalapi.AccountSize]byte
	err := binaryserializer.FixedBytes(r, accountBytes[:])
	if err != nil {
		return externalapi.Account{}, err
	}
	return externalapi.NewAccountFromByteArray(&accountBytes), nil
}

func writeAmount(w io.Writer, amount *uint256.Int) error {
	amountBytes := amount.Bytes32()
	return binaryserializer.PutBytes(w, amountBytes[:])
}

func readAmount(r io.Reader) (uint256.Int, error) {
	var amountBytes [AmountSize]byte
	err := binaryserializer.FixedBytes(r, amountBytes[:])
	if err != nil {
		return uint256.Int{}, err
	}
	var amount uint256.Int
	amount.SetBytes32(amountBytes[:])
	return amount, nil
}

func writeSignature(w io.Writer, signature externalapi.Signature) error {
	return binaryserializer.PutBytes(w, signature[:])
}

func readSignature(r io.Reader) (externalapi.Signature, error) {
	var signature externalapi.Signature
	err := binaryserializer.FixedBytes(r, signature[:])
	return signature, err
}

// SerializeAmount serializes amount as a 32 byte big-endian integer
func SerializeAmount(amount uint256.Int) []byte {
	amountBytes := amount.Bytes32()
	return amountBytes[:]
}

// DeserializeAmount deserializes an amount serialized by SerializeAmount
func DeserializeAmount(amountBytes []byte) (uint256.Int, error) {
	if len(amountBytes) != AmountSize {
		return uint256.Int{}, errUnexpectedLength("amount", AmountSize, len(amountBytes))
	}
	var amount uint256.Int
	amount.SetBytes32(amountBytes)
	return amount, nil
}

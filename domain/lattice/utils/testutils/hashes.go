package testutils

import "github.com/orvnet/orvd/domain/lattice/model/externalapi"

// HashFromByte returns a hash whose first byte is b and the rest zero
func HashFromByte(b byte) externalapi.DomainHash {
	var hashBytes [externalapi.DomainHashSize]byte
	hashBytes[0] = b
	return externalapi.NewDomainHashFromByteArray(&hashBytes)
}

// AccountFromByte returns an account whose first byte is b and the rest zero
func AccountFromByte(b byte) externalapi.Account {
	var keyBytes [externalapi.AccountSize]byte
	keyBytes[0] = b
	return externalapi.NewAccountFromByteArray(&keyBytes)
}

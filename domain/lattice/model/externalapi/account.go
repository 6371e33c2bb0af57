package externalapi

import (
	"bytes"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// AccountSize is the size of a serialized account public key.
const AccountSize = 32

const (
	accountPrefix       = "orv_"
	accountChecksumSize = 4
)

// Account is an account public key: the x-only serialization of a Schnorr
// public key. Accounts are value types and may be used as map keys.
type Account struct {
	key [AccountSize]byte
}

// BurnAccount is the zero account. Sends to it destroy the amount, and it
// can never be opened.
var BurnAccount = Account{}

// NewAccountFromByteArray constructs a new Account out of a byte array
func NewAccountFromByteArray(keyBytes *[AccountSize]byte) Account {
	return Account{key: *keyBytes}
}

// NewAccountFromByteSlice constructs a new Account out of a byte slice.
func NewAccountFromByteSlice(keyBytes []byte) (Account, error) {
	if len(keyBytes) != AccountSize {
		return Account{}, errors.Errorf("invalid account size. Want: %d, got: %d",
			AccountSize, len(keyBytes))
	}
	account := Account{}
	copy(account.key[:], keyBytes)
	return account, nil
}

// AccountFromHash reinterprets the 32 bytes of a hash as an account. State
// block links carry either.
func AccountFromHash(hash DomainHash) Account {
	return Account{key: hash.hashArray}
}

// AsHash reinterprets the account's 32 bytes as a hash. Open blocks use
// their account as root.
func (account Account) AsHash() DomainHash {
	return DomainHash{hashArray: account.key}
}

// ByteArray returns the account key bytes.
func (account Account) ByteArray() [AccountSize]byte {
	return account.key
}

// ByteSlice returns a copy of the account key bytes.
func (account Account) ByteSlice() []byte {
	slice := make([]byte, AccountSize)
	copy(slice, account.key[:])
	return slice
}

// IsZero returns whether this is the burn account.
func (account Account) IsZero() bool {
	return account == BurnAccount
}

// Less returns whether account is lexicographically smaller than other.
func (account Account) Less(other Account) bool {
	return bytes.Compare(account.key[:], other.key[:]) < 0
}

// String encodes the account as "orv_" followed by the base58 of the key and
// a 4 byte blake2b checksum.
func (account Account) String() string {
	encoded := make([]byte, 0, AccountSize+accountChecksumSize)
	encoded = append(encoded, account.key[:]...)
	encoded = append(encoded, accountChecksum(account.key[:])...)
	return accountPrefix + base58.Encode(encoded)
}

// ParseAccount decodes an account previously encoded with Account.String.
func ParseAccount(encoded string) (Account, error) {
	if !strings.HasPrefix(encoded, accountPrefix) {
		return Account{}, errors.Errorf("account %s does not start with %s", encoded, accountPrefix)
	}
	decoded, err := base58.Decode(strings.TrimPrefix(encoded, accountPrefix))
	if err != nil {
		return Account{}, errors.Wrapf(err, "account %s is not valid base58", encoded)
	}
	if len(decoded) != AccountSize+accountChecksumSize {
		return Account{}, errors.Errorf("account %s decodes to %d bytes, expected %d",
			encoded, len(decoded), AccountSize+accountChecksumSize)
	}
	key, checksum := decoded[:AccountSize], decoded[AccountSize:]
	if !bytes.Equal(checksum, accountChecksum(key)) {
		return Account{}, errors.Errorf("account %s has a bad checksum", encoded)
	}
	return NewAccountFromByteSlice(key)
}

func accountChecksum(key []byte) []byte {
	hasher, err := blake2b.New(accountChecksumSize, nil)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. blake2b accepts any size up to 64"))
	}
	hasher.Write(key)
	return hasher.Sum(nil)
}

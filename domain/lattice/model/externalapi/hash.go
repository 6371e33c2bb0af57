package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize of array used to store hashes.
const DomainHashSize = 32

// DomainHash is the domain representation of a Hash. It is a value type and
// may be used as a map key.
type DomainHash struct {
	hashArray [DomainHashSize]byte
}

// ZeroHash is the hash of no block. It is the previous of every first block.
var ZeroHash = DomainHash{}

// NewDomainHashFromByteArray constructs a new DomainHash out of a byte array
func NewDomainHashFromByteArray(hashBytes *[DomainHashSize]byte) DomainHash {
	return DomainHash{
		hashArray: *hashBytes,
	}
}

// NewDomainHashFromByteSlice constructs a new DomainHash out of a byte slice.
// Returns an error if the length of the byte slice is not exactly `DomainHashSize`
func NewDomainHashFromByteSlice(hashBytes []byte) (DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return DomainHash{}, errors.Errorf("invalid hash size. Want: %d, got: %d",
			DomainHashSize, len(hashBytes))
	}
	domainHash := DomainHash{}
	copy(domainHash.hashArray[:], hashBytes)
	return domainHash, nil
}

// NewDomainHashFromString constructs a new DomainHash out of a hex-encoded string.
func NewDomainHashFromString(hashString string) (DomainHash, error) {
	expectedLength := DomainHashSize * 2
	if len(hashString) != expectedLength {
		return DomainHash{}, errors.Errorf("hash string length is %d, while it should be be %d",
			len(hashString), expectedLength)
	}

	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return DomainHash{}, errors.WithStack(err)
	}

	return NewDomainHashFromByteSlice(hashBytes)
}

// String returns the Hash as the hexadecimal string of the hash.
func (hash DomainHash) String() string {
	return hex.EncodeToString(hash.hashArray[:])
}

// ByteArray returns the bytes in this hash represented as a bytes array.
func (hash DomainHash) ByteArray() [DomainHashSize]byte {
	return hash.hashArray
}

// ByteSlice returns a copy of the bytes in this hash.
func (hash DomainHash) ByteSlice() []byte {
	slice := make([]byte, DomainHashSize)
	copy(slice, hash.hashArray[:])
	return slice
}

// IsZero returns whether this is the zero hash.
func (hash DomainHash) IsZero() bool {
	return hash == ZeroHash
}

// Equal returns whether hash equals to other
func (hash DomainHash) Equal(other DomainHash) bool {
	return hash == other
}

// Less returns whether hash is lexicographically smaller than other.
func (hash DomainHash) Less(other DomainHash) bool {
	return bytes.Compare(hash.hashArray[:], other.hashArray[:]) < 0
}

// HashesEqual returns whether the given hash slices are equal.
func HashesEqual(a, b []DomainHash) bool {
	if len(a) != len(b) {
		return false
	}
	for i, hash := range a {
		if hash != b[i] {
			return false
		}
	}
	return true
}

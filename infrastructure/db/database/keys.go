package database

import (
	"bytes"
	"encoding/hex"
)

var separator = []byte("/")

// Key is a helper type meant to combine prefix
// and keys into a single full key-value
// database key.
type Key struct {
	prefix, suffix []byte
}

// Bytes returns the prefix concatenated to the suffix.
func (k *Key) Bytes() []byte {
	keyPath := make([]byte, len(k.prefix)+len(k.suffix))
	copy(keyPath, k.prefix)
	copy(keyPath[len(k.prefix):], k.suffix)
	return keyPath
}

func (k *Key) String() string {
	return string(k.prefix) + hex.EncodeToString(k.suffix)
}

// Bucket returns the bucket this key lives in.
func (k *Key) Bucket() *Bucket {
	return BucketFromPath(k.prefix)
}

// Suffix returns the key without its bucket prefix.
func (k *Key) Suffix() []byte {
	return k.suffix
}

// newKey returns a new key composed of the given prefix and suffix.
// prefix must already include the final separator.
func newKey(prefix, suffix []byte) *Key {
	return &Key{prefix: prefix, suffix: suffix}
}

// Bucket is a helper type meant to combine buckets
// and sub-buckets that can be used to create database
// keys and prefix-based cursors.
type Bucket struct {
	path []byte
}

// MakeBucket creates a new Bucket using the given path
// of buckets.
func MakeBucket(path ...[]byte) *Bucket {
	var joined []byte
	if len(path) > 0 {
		joined = bytes.Join(path, separator)
		joined = append(joined, separator...)
	}
	return &Bucket{path: joined}
}

// BucketFromPath returns the bucket whose full path, including the final
// separator, is path.
func BucketFromPath(path []byte) *Bucket {
	return &Bucket{path: path}
}

// Bucket returns the sub-bucket of the current bucket
// defined by bucketBytes.
func (b *Bucket) Bucket(bucketBytes []byte) *Bucket {
	newPath := make([]byte, 0, len(b.path)+len(bucketBytes)+len(separator))
	newPath = append(newPath, b.path...)
	newPath = append(newPath, bucketBytes...)
	newPath = append(newPath, separator...)
	return &Bucket{path: newPath}
}

// Key returns the key inside of the current bucket.
func (b *Bucket) Key(suffix []byte) *Key {
	return newKey(b.path, suffix)
}

// Path returns the full path of the current bucket, including the final
// separator.
func (b *Bucket) Path() []byte {
	return b.path
}

// KeyFromBytes splits a raw database key that was found under the given
// bucket back into a Key.
func (b *Bucket) KeyFromBytes(raw []byte) *Key {
	suffix := make([]byte, len(raw)-len(b.path))
	copy(suffix, raw[len(b.path):])
	return newKey(b.path, suffix)
}

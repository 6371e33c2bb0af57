// Package binaryserializer reads and writes fixed-width little-endian values
// to and from streams, borrowing scratch buffers from a shared free list.
package binaryserializer

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	freeListSize = 1024
	scratchSize  = 8
)

// scratchBuffers is a concurrent safe free list of 8 byte buffers used for
// integer conversions.
var scratchBuffers = make(chan []byte, freeListSize)

// Borrow returns an 8 byte buffer from the free list, allocating one if the
// list is empty.
func Borrow() []byte {
	select {
	case buf := <-scratchBuffers:
		return buf[:scratchSize]
	default:
		return make([]byte, scratchSize)
	}
}

// Return puts a buffer obtained from Borrow back on the free list.
func Return(buf []byte) {
	select {
	case scratchBuffers <- buf:
	default:
	}
}

func readScratch(r io.Reader, size int) ([]byte, error) {
	buf := Borrow()[:size]
	_, err := io.ReadFull(r, buf)
	if err != nil {
		Return(buf)
		return nil, errors.WithStack(err)
	}
	return buf, nil
}

// Uint8 reads a single byte from r.
func Uint8(r io.Reader) (uint8, error) {
	buf, err := readScratch(r, 1)
	if err != nil {
		return 0, err
	}
	defer Return(buf)
	return buf[0], nil
}

// Uint32 reads a little-endian uint32 from r.
func Uint32(r io.Reader) (uint32, error) {
	buf, err := readScratch(r, 4)
	if err != nil {
		return 0, err
	}
	defer Return(buf)
	return binary.LittleEndian.Uint32(buf), nil
}

// Uint64 reads a little-endian uint64 from r.
func Uint64(r io.Reader) (uint64, error) {
	buf, err := readScratch(r, 8)
	if err != nil {
		return 0, err
	}
	defer Return(buf)
	return binary.LittleEndian.Uint64(buf), nil
}

// Int64 reads a little-endian int64 from r.
func Int64(r io.Reader) (int64, error) {
	value, err := Uint64(r)
	return int64(value), err
}

// Bool reads a single byte from r and reports whether it is non-zero.
func Bool(r io.Reader) (bool, error) {
	value, err := Uint8(r)
	return value != 0, err
}

// FixedBytes fills dst from r.
func FixedBytes(r io.Reader, dst []byte) error {
	_, err := io.ReadFull(r, dst)
	return errors.WithStack(err)
}

// PutUint8 writes val to w.
func PutUint8(w io.Writer, val uint8) error {
	buf := Borrow()[:1]
	defer Return(buf)
	buf[0] = val
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// PutUint32 writes val to w in little-endian order.
func PutUint32(w io.Writer, val uint32) error {
	buf := Borrow()[:4]
	defer Return(buf)
	binary.LittleEndian.PutUint32(buf, val)
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// PutUint64 writes val to w in little-endian order.
func PutUint64(w io.Writer, val uint64) error {
	buf := Borrow()
	defer Return(buf)
	binary.LittleEndian.PutUint64(buf, val)
	_, err := w.Write(buf)
	return errors.WithStack(err)
}

// PutInt64 writes val to w in little-endian order.
func PutInt64(w io.Writer, val int64) error {
	return PutUint64(w, uint64(val))
}

// PutBool writes val to w as a single byte.
func PutBool(w io.Writer, val bool) error {
	if val {
		return PutUint8(w, 1)
	}
	return PutUint8(w, 0)
}

// PutBytes writes b to w as is.
func PutBytes(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return errors.WithStack(err)
}

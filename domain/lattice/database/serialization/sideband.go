package serialization

import (
	"bytes"
	"io"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/util/binaryserializer"
	"github.com/pkg/errors"
)

const (
	detailsIsSend = 1 << iota
	detailsIsReceive
	detailsIsEpoch
)

// SerializeBlockWithSideband serializes a stored block and its sideband
func SerializeBlockWithSideband(block *externalapi.BlockWithSideband) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := writeBlock(buffer, block.Block)
	if err != nil {
		return nil, err
	}
	err = writeSideband(buffer, block.Sideband)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeBlockWithSideband deserializes bytes produced by SerializeBlockWithSideband
func DeserializeBlockWithSideband(blockBytes []byte) (*externalapi.BlockWithSideband, error) {
	reader := bytes.NewReader(blockBytes)
	block, err := readBlock(reader)
	if err != nil {
		return nil, err
	}
	sideband, err := readSideband(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.Wrapf(ErrMalformedEntry, "%d trailing bytes after sideband", reader.Len())
	}
	return &externalapi.BlockWithSideband{Block: block, Sideband: sideband}, nil
}

func writeSideband(w io.Writer, sideband *externalapi.Sideband) error {
	err := writeAccount(w, sideband.Account)
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint64(w, sideband.Height)
	if err != nil {
		return err
	}
	err = writeAmount(w, &sideband.Balance)
	if err != nil {
		return err
	}
	err = binaryserializer.PutInt64(w, sideband.Timestamp)
	if err != nil {
		return err
	}
	err = writeHash(w, sideband.Successor)
	if err != nil {
		return err
	}
	err = binaryserializer.PutUint8(w, uint8(sideband.Details.Epoch))
	if err != nil {
		return err
	}

	var flags uint8
	if sideband.Details.IsSend {
		flags |= detailsIsSend
	}
	if sideband.Details.IsReceive {
		flags |= detailsIsReceive
	}
	if sideband.Details.IsEpoch {
		flags |= detailsIsEpoch
	}
	err = binaryserializer.PutUint8(w, flags)
	if err != nil {
		return err
	}
	return binaryserializer.PutUint8(w, uint8(sideband.SourceEpoch))
}

func readSideband(r io.Reader) (*externalapi.Sideband, error) {
	sideband := &externalapi.Sideband{}
	var err error
	if sideband.Account, err = readAccount(r); err != nil {
		return nil, err
	}
	if sideband.Height, err = binaryserializer.Uint64(r); err != nil {
		return nil, err
	}
	if sideband.Balance, err = readAmount(r); err != nil {
		return nil, err
	}
	if sideband.Timestamp, err = binaryserializer.Int64(r); err != nil {
		return nil, err
	}
	if sideband.Successor, err = readHash(r); err != nil {
		return nil, err
	}
	epoch, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}
	flags, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}
	sourceEpoch, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}

	sideband.Details = externalapi.BlockDetails{
		Epoch:     externalapi.Epoch(epoch),
		IsSend:    flags&detailsIsSend != 0,
		IsReceive: flags&detailsIsReceive != 0,
		IsEpoch:   flags&detailsIsEpoch != 0,
	}
	sideband.SourceEpoch = externalapi.Epoch(sourceEpoch)
	return sideband, nil
}

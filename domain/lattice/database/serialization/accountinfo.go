package serialization

import (
	"bytes"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/util/binaryserializer"
)

// SerializeAccountInfo serializes an account head
func SerializeAccountInfo(info *externalapi.AccountInfo) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := writeHash(buffer, info.Head)
	if err != nil {
		return nil, err
	}
	err = writeAccount(buffer, info.Representative)
	if err != nil {
		return nil, err
	}
	err = writeHash(buffer, info.OpenBlock)
	if err != nil {
		return nil, err
	}
	err = writeAmount(buffer, &info.Balance)
	if err != nil {
		return nil, err
	}
	err = binaryserializer.PutInt64(buffer, info.Modified)
	if err != nil {
		return nil, err
	}
	err = binaryserializer.PutUint64(buffer, info.BlockCount)
	if err != nil {
		return nil, err
	}
	err = binaryserializer.PutUint8(buffer, uint8(info.Epoch))
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeAccountInfo deserializes bytes produced by SerializeAccountInfo
func DeserializeAccountInfo(infoBytes []byte) (*externalapi.AccountInfo, error) {
	reader := bytes.NewReader(infoBytes)
	info := &externalapi.AccountInfo{}
	var err error
	if info.Head, err = readHash(reader); err != nil {
		return nil, err
	}
	if info.Representative, err = readAccount(reader); err != nil {
		return nil, err
	}
	if info.OpenBlock, err = readHash(reader); err != nil {
		return nil, err
	}
	if info.Balance, err = readAmount(reader); err != nil {
		return nil, err
	}
	if info.Modified, err = binaryserializer.Int64(reader); err != nil {
		return nil, err
	}
	if info.BlockCount, err = binaryserializer.Uint64(reader); err != nil {
		return nil, err
	}
	epoch, err := binaryserializer.Uint8(reader)
	if err != nil {
		return nil, err
	}
	info.Epoch = externalapi.Epoch(epoch)
	return info, nil
}

// SerializePendingInfo serializes a receivable entry
func SerializePendingInfo(info *externalapi.PendingInfo) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := writeAccount(buffer, info.Source)
	if err != nil {
		return nil, err
	}
	err = writeAmount(buffer, &info.Amount)
	if err != nil {
		return nil, err
	}
	err = binaryserializer.PutUint8(buffer, uint8(info.Epoch))
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializePendingInfo deserializes bytes produced by SerializePendingInfo
func DeserializePendingInfo(infoBytes []byte) (*externalapi.PendingInfo, error) {
	reader := bytes.NewReader(infoBytes)
	info := &externalapi.PendingInfo{}
	var err error
	if info.Source, err = readAccount(reader); err != nil {
		return nil, err
	}
	if info.Amount, err = readAmount(reader); err != nil {
		return nil, err
	}
	epoch, err := binaryserializer.Uint8(reader)
	if err != nil {
		return nil, err
	}
	info.Epoch = externalapi.Epoch(epoch)
	return info, nil
}

// SerializePendingKey serializes a receivable key so that all entries of an
// account share a common prefix
func SerializePendingKey(key externalapi.PendingKey) []byte {
	keyBytes := make([]byte, 0, externalapi.AccountSize+externalapi.DomainHashSize)
	keyBytes = append(keyBytes, key.Account.ByteSlice()...)
	return append(keyBytes, key.Hash.ByteSlice()...)
}

// DeserializePendingKey deserializes bytes produced by SerializePendingKey
func DeserializePendingKey(keyBytes []byte) (externalapi.PendingKey, error) {
	expected := externalapi.AccountSize + externalapi.DomainHashSize
	if len(keyBytes) != expected {
		return externalapi.PendingKey{}, errUnexpectedLength("pending key", expected, len(keyBytes))
	}
	account, err := externalapi.NewAccountFromByteSlice(keyBytes[:externalapi.AccountSize])
	if err != nil {
		return externalapi.PendingKey{}, err
	}
	hash, err := externalapi.NewDomainHashFromByteSlice(keyBytes[externalapi.AccountSize:])
	if err != nil {
		return externalapi.PendingKey{}, err
	}
	return externalapi.PendingKey{Account: account, Hash: hash}, nil
}

// SerializeConfirmationHeightInfo serializes a cementing boundary
func SerializeConfirmationHeightInfo(info externalapi.ConfirmationHeightInfo) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := binaryserializer.PutUint64(buffer, info.Height)
	if err != nil {
		return nil, err
	}
	err = writeHash(buffer, info.Frontier)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeConfirmationHeightInfo deserializes bytes produced by SerializeConfirmationHeightInfo
func DeserializeConfirmationHeightInfo(infoBytes []byte) (externalapi.ConfirmationHeightInfo, error) {
	reader := bytes.NewReader(infoBytes)
	height, err := binaryserializer.Uint64(reader)
	if err != nil {
		return externalapi.ConfirmationHeightInfo{}, err
	}
	frontier, err := readHash(reader)
	if err != nil {
		return externalapi.ConfirmationHeightInfo{}, err
	}
	return externalapi.ConfirmationHeightInfo{Height: height, Frontier: frontier}, nil
}

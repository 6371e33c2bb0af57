package serialization

import (
	"bytes"
	"io"

	"github.com/orvnet/orvd/domain/lattice/model/externalapi"
	"github.com/orvnet/orvd/util/binaryserializer"
	"github.com/pkg/errors"
)

// SerializeBlock serializes block, prefixed with its type
func SerializeBlock(block externalapi.Block) ([]byte, error) {
	buffer := &bytes.Buffer{}
	err := writeBlock(buffer, block)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeBlock deserializes a block serialized by SerializeBlock
func DeserializeBlock(blockBytes []byte) (externalapi.Block, error) {
	reader := bytes.NewReader(blockBytes)
	block, err := readBlock(reader)
	if err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.Wrapf(ErrMalformedEntry, "%d trailing bytes after block", reader.Len())
	}
	return block, nil
}

func writeBlock(w io.Writer, block externalapi.Block) error {
	err := binaryserializer.PutUint8(w, uint8(block.Type()))
	if err != nil {
		return err
	}

	switch b := block.(type) {
	case *externalapi.SendBlock:
		err = writeSendBlock(w, b)
	case *externalapi.ReceiveBlock:
		err = writeReceiveBlock(w, b)
	case *externalapi.OpenBlock:
		err = writeOpenBlock(w, b)
	case *externalapi.ChangeBlock:
		err = writeChangeBlock(w, b)
	case *externalapi.StateBlock:
		err = writeStateBlock(w, b)
	default:
		return errors.Errorf("cannot serialize block of type %T", block)
	}
	if err != nil {
		return err
	}

	err = writeSignature(w, block.BlockSignature())
	if err != nil {
		return err
	}
	return binaryserializer.PutUint64(w, block.BlockWork())
}

func writeSendBlock(w io.Writer, b *externalapi.SendBlock) error {
	err := writeHash(w, b.PreviousHash)
	if err != nil {
		return err
	}
	err = writeAccount(w, b.Destination)
	if err != nil {
		return err
	}
	return writeAmount(w, &b.Balance)
}

func writeReceiveBlock(w io.Writer, b *externalapi.ReceiveBlock) error {
	err := writeHash(w, b.PreviousHash)
	if err != nil {
		return err
	}
	return writeHash(w, b.Source)
}

func writeOpenBlock(w io.Writer, b *externalapi.OpenBlock) error {
	err := writeHash(w, b.Source)
	if err != nil {
		return err
	}
	err = writeAccount(w, b.Representative)
	if err != nil {
		return err
	}
	return writeAccount(w, b.Account)
}

func writeChangeBlock(w io.Writer, b *externalapi.ChangeBlock) error {
	err := writeHash(w, b.PreviousHash)
	if err != nil {
		return err
	}
	return writeAccount(w, b.Representative)
}

func writeStateBlock(w io.Writer, b *externalapi.StateBlock) error {
	err := writeAccount(w, b.Account)
	if err != nil {
		return err
	}
	err = writeHash(w, b.PreviousHash)
	if err != nil {
		return err
	}
	err = writeAccount(w, b.Representative)
	if err != nil {
		return err
	}
	err = writeAmount(w, &b.Balance)
	if err != nil {
		return err
	}
	return writeHash(w, b.Link)
}

func readBlock(r io.Reader) (externalapi.Block, error) {
	blockType, err := binaryserializer.Uint8(r)
	if err != nil {
		return nil, err
	}

	var block externalapi.Block
	var signature *externalapi.Signature
	var work *uint64

	switch externalapi.BlockType(blockType) {
	case externalapi.BlockTypeSend:
		b := &externalapi.SendBlock{}
		if b.PreviousHash, err = readHash(r); err != nil {
			return nil, err
		}
		if b.Destination, err = readAccount(r); err != nil {
			return nil, err
		}
		if b.Balance, err = readAmount(r); err != nil {
			return nil, err
		}
		block, signature, work = b, &b.Signature, &b.Work
	case externalapi.BlockTypeReceive:
		b := &externalapi.ReceiveBlock{}
		if b.PreviousHash, err = readHash(r); err != nil {
			return nil, err
		}
		if b.Source, err = readHash(r); err != nil {
			return nil, err
		}
		block, signature, work = b, &b.Signature, &b.Work
	case externalapi.BlockTypeOpen:
		b := &externalapi.OpenBlock{}
		if b.Source, err = readHash(r); err != nil {
			return nil, err
		}
		if b.Representative, err = readAccount(r); err != nil {
			return nil, err
		}
		if b.Account, err = readAccount(r); err != nil {
			return nil, err
		}
		block, signature, work = b, &b.Signature, &b.Work
	case externalapi.BlockTypeChange:
		b := &externalapi.ChangeBlock{}
		if b.PreviousHash, err = readHash(r); err != nil {
			return nil, err
		}
		if b.Representative, err = readAccount(r); err != nil {
			return nil, err
		}
		block, signature, work = b, &b.Signature, &b.Work
	case externalapi.BlockTypeState:
		b := &externalapi.StateBlock{}
		if b.Account, err = readAccount(r); err != nil {
			return nil, err
		}
		if b.PreviousHash, err = readHash(r); err != nil {
			return nil, err
		}
		if b.Representative, err = readAccount(r); err != nil {
			return nil, err
		}
		if b.Balance, err = readAmount(r); err != nil {
			return nil, err
		}
		if b.Link, err = readHash(r); err != nil {
			return nil, err
		}
		block, signature, work = b, &b.Signature, &b.Work
	default:
		return nil, errors.Wrapf(ErrMalformedEntry, "unknown block type %d", blockType)
	}

	if *signature, err = readSignature(r); err != nil {
		return nil, err
	}
	if *work, err = binaryserializer.Uint64(r); err != nil {
		return nil, err
	}
	return block, nil
}

package model

// Writer identifies the class of a write transaction. Classes are granted
// the write slot in priority order, highest first.
type Writer uint8

// Writer classes, lowest priority first
const (
	WriterGeneric Writer = iota
	WriterBlockProcessor
	WriterConfirmationHeight
	WriterTesting
)

func (w Writer) String() string {
	switch w {
	case WriterGeneric:
		return "generic"
	case WriterBlockProcessor:
		return "block_processor"
	case WriterConfirmationHeight:
		return "confirmation_height"
	case WriterTesting:
		return "testing"
	default:
		return "unknown"
	}
}

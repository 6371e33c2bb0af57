package model

// Store is a common interface for data stores. Stores are stateless
// accessors: every read takes the reader it reads from and every write
// takes the transaction it writes into.
type Store interface {
	// Name returns the bucket name the store keeps its data under.
	Name() string
}

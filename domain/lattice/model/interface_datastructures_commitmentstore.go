package model

// CommitmentStore stores the multiset commitment over every cemented block
type CommitmentStore interface {
	Store
	Put(dbTx DBWriter, multiset Multiset) error
	Get(dbContext DBReader) (Multiset, error)
}

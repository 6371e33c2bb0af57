package externalapi

import "github.com/holiman/uint256"

// OnlineWeightSample is one persisted measurement of online representative weight
type OnlineWeightSample struct {
	Timestamp int64
	Weight    uint256.Int
}

// OnlineWeightInfo is a snapshot of the online weight tracker
type OnlineWeightInfo struct {
	Online  uint256.Int
	Trended uint256.Int
	Delta   uint256.Int
}

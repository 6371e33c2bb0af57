package externalapi

// PeerID identifies a remote node as seen by the network collaborator
type PeerID string

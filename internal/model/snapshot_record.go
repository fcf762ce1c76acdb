package model

import "time"

// SnapshotRecord is a computed snapshot with the context it was taken in.
type SnapshotRecord struct {
	PoolID         string       `json:"pool_id"`
	ChainID        uint64       `json:"chain_id"`
	Account        string       `json:"account,omitempty"`
	BlockNumber    uint64       `json:"block_number"`
	BlockTimestamp uint64       `json:"block_timestamp"`
	TakenAt        time.Time    `json:"taken_at"`
	Snapshot       PoolSnapshot `json:"snapshot"`
}

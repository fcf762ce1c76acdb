package chain

import (
	"context"
	"fmt"
	"math/big"
)

// BlockRef pins a set of reads to one block.
type BlockRef struct {
	ChainID   uint64
	Number    uint64
	Timestamp uint64
}

// Latest resolves the chain ID and the latest block with its timestamp.
func (c *Client) Latest(ctx context.Context) (BlockRef, error) {
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return BlockRef{}, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return BlockRef{}, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	number, err := c.LatestBlockNumber(ctx)
	if err != nil {
		return BlockRef{}, fmt.Errorf("get latest block: %w", err)
	}

	ts, err := c.BlockTimestamp(ctx, number)
	if err != nil {
		return BlockRef{}, fmt.Errorf("block timestamp %d: %w", number, err)
	}

	return BlockRef{ChainID: chainID.Uint64(), Number: number, Timestamp: ts}, nil
}

// BlockNumber returns the block as a *big.Int for eth_call, nil meaning latest.
func (b BlockRef) BlockNumber() *big.Int {
	if b.Number == 0 {
		return nil
	}
	return new(big.Int).SetUint64(b.Number)
}

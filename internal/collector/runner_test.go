package collector

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldScope/internal/chain"
	"yieldScope/internal/config"
	"yieldScope/internal/farm"
	"yieldScope/internal/model"
	"yieldScope/internal/observability"
	"yieldScope/internal/price"
	"yieldScope/internal/snapshot"
)

type fixedBlock struct {
	ref chain.BlockRef
	err error
}

func (f fixedBlock) Latest(context.Context) (chain.BlockRef, error) {
	return f.ref, f.err
}

type fakeReader struct {
	mu       sync.Mutex
	stakes   map[common.Address]farm.StakeReading
	weekly   map[common.Address]decimal.Decimal
	failures map[common.Address]error
	blocks   []*big.Int
	nows     []uint64
	accounts []*common.Address
}

func (f *fakeReader) ReadStake(_ context.Context, addrs farm.PoolAddresses, account *common.Address, block *big.Int) (farm.StakeReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocks = append(f.blocks, block)
	f.accounts = append(f.accounts, account)
	if err := f.failures[addrs.StakingPool]; err != nil {
		return farm.StakeReading{}, err
	}
	return f.stakes[addrs.StakingPool], nil
}

func (f *fakeReader) WeeklyReward(_ context.Context, addrs farm.PoolAddresses, now uint64, _ *big.Int) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nows = append(f.nows, now)
	return f.weekly[addrs.StakingPool], nil
}

type memorySink struct {
	records []model.SnapshotRecord
	err     error
}

func (m *memorySink) PutSnapshots(_ context.Context, records []model.SnapshotRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, records...)
	return nil
}

var (
	lendPool = common.HexToAddress("0x6009A344C7F993B16EBa2c673fefd2e07f9be5FD")
	yffiPool = common.HexToAddress("0x1111111111111111111111111111111111111111")
	account  = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testPools() []Pool {
	return []Pool{
		{
			Meta: model.PoolMetadata{
				ID: "yam-lend", Name: "Yam LEND", Provider: "Yam",
				StakingTicker: "LEND", RewardTicker: "YAM",
				PoolRewards: []string{"YAM"},
			},
			Addresses:      farm.PoolAddresses{StakingPool: lendPool},
			StakingPriceID: "ethlend",
			RewardPriceID:  "yam",
		},
		{
			Meta: model.PoolMetadata{
				ID: "yffi-ycrv", Name: "YFFI yCRV", Provider: "YFFI",
				StakingTicker: "yCRV", RewardTicker: "YFFI",
			},
			Addresses:      farm.PoolAddresses{StakingPool: yffiPool},
			StakingPriceID: "curve-fi-ydai-yusdc-yusdt-ytusd",
			RewardPriceID:  "yffi",
		},
	}
}

func testReader() *fakeReader {
	return &fakeReader{
		stakes: map[common.Address]farm.StakeReading{
			lendPool: {
				StakedAmount: decimal.NewFromInt(100),
				EarnedReward: decimal.NewFromInt(5),
				TotalStaked:  decimal.NewFromInt(1000),
			},
			yffiPool: {TotalStaked: decimal.NewFromInt(500)},
		},
		weekly: map[common.Address]decimal.Decimal{
			lendPool: decimal.NewFromInt(50),
			yffiPool: decimal.NewFromInt(10),
		},
	}
}

func testPrices() price.Static {
	return price.Static{
		"ethlend":                         decimal.NewFromInt(2),
		"yam":                             decimal.NewFromInt(4),
		"curve-fi-ydai-yusdc-yusdt-ytusd": decimal.NewFromInt(1),
		"yffi":                            decimal.NewFromInt(3),
	}
}

var testBlock = chain.BlockRef{ChainID: 1, Number: 10_600_000, Timestamp: 1597190400}

func newTestRunner(reader *fakeReader, prices price.Lookup, sink *memorySink, metrics *observability.Metrics) *Runner {
	cfg := RunConfig{Pools: testPools(), Account: &account, Concurrency: 2}
	runner := NewRunner(cfg, fixedBlock{ref: testBlock}, reader, prices, sink, metrics, nil)
	runner.now = func() time.Time { return time.Date(2020, 8, 12, 0, 0, 0, 0, time.UTC) }
	return runner
}

func TestRunOnceSnapshotsEveryPool(t *testing.T) {
	reader := testReader()
	sink := &memorySink{}
	records, err := newTestRunner(reader, testPrices(), sink, nil).RunOnce(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, records, sink.records)

	lend := records[0]
	assert.Equal(t, "yam-lend", lend.PoolID)
	assert.Equal(t, uint64(1), lend.ChainID)
	assert.Equal(t, testBlock.Number, lend.BlockNumber)
	assert.Equal(t, testBlock.Timestamp, lend.BlockTimestamp)
	assert.Equal(t, account.Hex(), lend.Account)
	assert.True(t, lend.Snapshot.APR.Equal(decimal.NewFromInt(520)), "apr %s", lend.Snapshot.APR)
	assert.Equal(t, "$2,000.00", lend.Snapshot.Staking[0].Value)

	assert.Equal(t, "yffi-ycrv", records[1].PoolID)

	for _, block := range reader.blocks {
		assert.Equal(t, int64(testBlock.Number), block.Int64())
	}
	for _, now := range reader.nows {
		assert.Equal(t, testBlock.Timestamp, now)
	}
}

func TestRunOnceIsolatesPoolFailures(t *testing.T) {
	reader := testReader()
	reader.failures = map[common.Address]error{yffiPool: errors.New("rpc timeout")}
	sink := &memorySink{}
	metrics := observability.NewMetrics("test")

	records, err := newTestRunner(reader, testPrices(), sink, metrics).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "yam-lend", records[0].PoolID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsTotal.WithLabelValues("yam-lend", observability.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsTotal.WithLabelValues("yffi-ycrv", observability.StatusError)))
	assert.Equal(t, 520.0, testutil.ToFloat64(metrics.PoolAPR.WithLabelValues("yam-lend")))
}

func TestRunOnceMissingPriceIsValidationFailure(t *testing.T) {
	prices := testPrices()
	delete(prices, "yffi")
	metrics := observability.NewMetrics("test")

	records, err := newTestRunner(testReader(), prices, &memorySink{}, metrics).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SnapshotsTotal.WithLabelValues("yffi-ycrv", observability.StatusInvalid)))
}

func TestSnapshotPoolMissingPriceError(t *testing.T) {
	runner := newTestRunner(testReader(), price.Static{}, &memorySink{}, nil)
	_, err := runner.snapshotPool(context.Background(), testPools()[0], testBlock, time.Now())

	require.ErrorIs(t, err, snapshot.ErrValidation)
	var missing *price.MissingPriceError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"ethlend", "yam"}, missing.IDs)
}

func TestRunOnceAllPoolsFailing(t *testing.T) {
	sink := &memorySink{}
	_, err := newTestRunner(testReader(), price.Static{}, sink, nil).RunOnce(context.Background())
	require.ErrorIs(t, err, snapshot.ErrValidation)
	assert.Empty(t, sink.records)
}

func TestRunOnceBlockError(t *testing.T) {
	runner := newTestRunner(testReader(), testPrices(), &memorySink{}, nil)
	runner.blocks = fixedBlock{err: errors.New("rpc down")}
	_, err := runner.RunOnce(context.Background())
	require.ErrorContains(t, err, "pin block")
}

func TestRunOnceSinkError(t *testing.T) {
	sink := &memorySink{err: errors.New("disk full")}
	records, err := newTestRunner(testReader(), testPrices(), sink, nil).RunOnce(context.Background())
	require.ErrorContains(t, err, "store snapshots")
	assert.Len(t, records, 2)
}

func TestRunOnceWithoutAccount(t *testing.T) {
	reader := testReader()
	runner := newTestRunner(reader, testPrices(), &memorySink{}, nil)
	runner.cfg.Account = nil

	records, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	for _, record := range records {
		assert.Empty(t, record.Account)
	}
	for _, acct := range reader.accounts {
		assert.Nil(t, acct)
	}
}

func TestRunWithoutIntervalRunsOnce(t *testing.T) {
	sink := &memorySink{}
	require.NoError(t, newTestRunner(testReader(), testPrices(), sink, nil).Run(context.Background()))
	assert.Len(t, sink.records, 2)
}

func TestRunStopsOnCancel(t *testing.T) {
	sink := &memorySink{}
	runner := newTestRunner(testReader(), testPrices(), sink, nil)
	runner.cfg.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()
	require.NoError(t, runner.Run(ctx))
	assert.GreaterOrEqual(t, len(sink.records), 2)
}

func TestRunOncePaddedPriceIDsResolve(t *testing.T) {
	cfg := config.PoolConfig{
		ID:             "yam-lend",
		StakingPool:    lendPool.Hex(),
		StakingToken:   "0x80fB784B7eD66730e8b1DBd9820aFD29931aab03",
		StakingPriceID: "ethlend ",
		RewardPriceID:  "\tyam",
	}
	pool, err := BuildPool(cfg)
	require.NoError(t, err)

	runner := newTestRunner(testReader(), price.Chain{testPrices()}, &memorySink{}, nil)
	runner.cfg.Pools = []Pool{pool}

	records, err := runner.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Snapshot.APR.Equal(decimal.NewFromInt(520)), "apr %s", records[0].Snapshot.APR)
}

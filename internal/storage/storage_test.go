package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yieldScope/internal/model"
	"yieldScope/internal/snapshot"
)

func lendSnapshot() model.PoolSnapshot {
	snap, err := snapshot.Compute(model.PoolReading{
		StakedAmount:       decimal.NewFromInt(100),
		EarnedReward:       decimal.NewFromInt(5),
		TotalStaked:        decimal.NewFromInt(1000),
		WeeklyRewardAmount: decimal.NewFromInt(50),
		StakingTokenPrice:  decimal.NewFromInt(2),
		RewardTokenPrice:   decimal.NewFromInt(4),
	}, model.PoolMetadata{Name: "Yam LEND", StakingTicker: "LEND", RewardTicker: "YAM"})
	if err != nil {
		panic(err)
	}
	return snap
}

func sampleRecords() []model.SnapshotRecord {
	return []model.SnapshotRecord{
		{
			PoolID:      "yam-lend",
			ChainID:     1,
			BlockNumber: 10_000_000,
			TakenAt:     time.Date(2020, 8, 12, 0, 0, 0, 0, time.UTC),
			Snapshot:    lendSnapshot(),
		},
		{PoolID: "yffi-ycrv", ChainID: 1, BlockNumber: 10_000_000},
	}
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshots.jsonl")
	store := NewJsonlStorage(path)

	require.NoError(t, store.PutSnapshots(context.Background(), sampleRecords()))
	require.NoError(t, store.PutSnapshots(context.Background(), sampleRecords()[:1]))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var ids []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.SnapshotRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		ids = append(ids, record.PoolID)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"yam-lend", "yffi-ycrv", "yam-lend"}, ids)
}

func TestJsonlStorageEmptyBatchCreatesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots.jsonl")
	require.NoError(t, NewJsonlStorage(path).PutSnapshots(context.Background(), nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriterSink(&buf).PutSnapshots(context.Background(), sampleRecords()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), `"apr":"520"`)
	assert.Contains(t, string(lines[0]), `"apr_text":"520.0000"`)
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

func TestMultiWritesEverySink(t *testing.T) {
	failure := errors.New("disk full")
	first := &memorySink{}
	broken := &memorySink{err: failure}
	last := &memorySink{}

	err := Multi{first, broken, nil, last}.PutSnapshots(context.Background(), sampleRecords())
	require.ErrorIs(t, err, failure)
	assert.Len(t, first.records, 2)
	assert.Len(t, last.records, 2)
}

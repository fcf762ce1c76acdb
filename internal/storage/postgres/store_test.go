package postgres

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"yieldScope/internal/model"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"farm_pools", "pool_snapshots"} {
		if !strings.Contains(schemaSQL, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Fatalf("schema missing table %s", table)
		}
	}
}

func TestSnapshotRow(t *testing.T) {
	takenAt := time.Date(2020, 8, 12, 0, 0, 0, 0, time.UTC)
	record := model.SnapshotRecord{
		PoolID:         "yam-lend",
		ChainID:        1,
		Account:        "0xabc",
		BlockNumber:    10_600_000,
		BlockTimestamp: 1597190400,
		TakenAt:        takenAt,
		Snapshot: model.PoolSnapshot{
			Name: "Yam LEND",
			APR:  decimal.NewFromInt(520),
			Staking: []model.Valuation{
				{Label: model.StakingPoolTotal, USD: decimal.NewFromInt(2000)},
				{Label: model.StakingCallerTotal, USD: decimal.NewFromInt(200)},
			},
			ROIs: []model.ROI{
				{Label: model.ROIHourly, Percent: decimal.RequireFromString("0.0595")},
				{Label: model.ROIWeekly, Percent: decimal.NewFromInt(10)},
			},
		},
	}

	row, err := snapshotRow(record)
	if err != nil {
		t.Fatalf("snapshot row: %v", err)
	}
	if len(row) != 10 {
		t.Fatalf("expected 10 columns, got %d", len(row))
	}
	if row[0] != "yam-lend" || row[2] != int64(10_600_000) || row[4] != "0xabc" {
		t.Fatalf("unexpected key columns: %v", row[:5])
	}
	if row[5] != "520" || row[6] != "10" || row[7] != "2000" {
		t.Fatalf("unexpected numeric columns: %v", row[5:8])
	}
	var decoded model.PoolSnapshot
	if err := json.Unmarshal([]byte(row[8].(string)), &decoded); err != nil {
		t.Fatalf("snapshot column is not json: %v", err)
	}
	if decoded.Name != "Yam LEND" {
		t.Fatalf("unexpected snapshot name %q", decoded.Name)
	}
	if row[9] != takenAt {
		t.Fatalf("unexpected taken_at %v", row[9])
	}
}

func TestSummaryFiguresDefaultToZero(t *testing.T) {
	var snap model.PoolSnapshot
	if !WeeklyROI(snap).IsZero() {
		t.Fatalf("expected zero weekly roi")
	}
	if !PoolTVL(snap).IsZero() {
		t.Fatalf("expected zero pool tvl")
	}
}

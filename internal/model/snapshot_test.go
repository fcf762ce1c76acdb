package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPoolSnapshotJSONDecimalFields(t *testing.T) {
	snap := PoolSnapshot{
		Name:     "Curve-yCRV",
		Provider: "yffi.finance",
		APR:      decimal.RequireFromString("520"),
		Prices: []Valuation{
			{Label: "YFFI", USD: decimal.RequireFromString("4.25"), Value: "$4.25"},
		},
		ROIs: []ROI{
			{Label: ROIWeekly, Percent: decimal.RequireFromString("10"), Value: "10.0000%"},
		},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if _, ok := decoded["apr"].(string); !ok {
		t.Fatalf("apr should be string")
	}
	if _, ok := decoded["risk"]; ok {
		t.Fatalf("risk should be omitted when nil")
	}
	prices, ok := decoded["prices"].([]interface{})
	if !ok || len(prices) != 1 {
		t.Fatalf("prices mismatch: %v", decoded["prices"])
	}
	if _, ok := prices[0].(map[string]interface{})["usd"].(string); !ok {
		t.Fatalf("usd should be string")
	}
}

package model

import "github.com/shopspring/decimal"

// PoolSnapshot is the display-ready summary for one pool.
type PoolSnapshot struct {
	Name        string          `json:"name"`
	Provider    string          `json:"provider"`
	PoolRewards []string        `json:"pool_rewards"`
	APR         decimal.Decimal `json:"apr"`
	APRText     string          `json:"apr_text"`
	Prices      []Valuation     `json:"prices"`
	Staking     []Valuation     `json:"staking"`
	Rewards     []Valuation     `json:"rewards"`
	ROIs        []ROI           `json:"rois"`
	Risk        *Risk           `json:"risk,omitempty"`
	Links       []Link          `json:"links"`
}

// Valuation is a labelled USD amount.
type Valuation struct {
	Label string          `json:"label"`
	USD   decimal.Decimal `json:"usd"`
	Value string          `json:"value"`
}

// ROI is a labelled return percentage.
type ROI struct {
	Label   string          `json:"label"`
	Percent decimal.Decimal `json:"percent"`
	Value   string          `json:"value"`
}

// ROI labels, in display order.
const (
	ROIHourly = "Hourly"
	ROIDaily  = "Daily"
	ROIWeekly = "Weekly"
)

// Staking labels.
const (
	StakingPoolTotal   = "Pool Total"
	StakingCallerTotal = "Your Total"
)

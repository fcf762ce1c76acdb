package model

// PoolMetadata is the static description of a pool. None of it depends on live state.
type PoolMetadata struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Provider      string   `json:"provider"`
	StakingTicker string   `json:"staking_ticker"`
	RewardTicker  string   `json:"reward_ticker"`
	PoolRewards   []string `json:"pool_rewards"`
	Risk          *Risk    `json:"risk,omitempty"`
	Links         []Link   `json:"links"`
}

// Link is a titled reference URL.
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

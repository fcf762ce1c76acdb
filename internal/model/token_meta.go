package model

// TokenMeta captures the ERC20 metadata needed to scale raw amounts.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
}

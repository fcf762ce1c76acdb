package model

import (
	"fmt"
	"strings"
)

// RiskLevel is a qualitative risk label.
type RiskLevel string

const (
	RiskNone   RiskLevel = "NONE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Risk groups the risk labels shown for a pool.
type Risk struct {
	SmartContract   RiskLevel `json:"smart_contract"`
	ImpermanentLoss RiskLevel `json:"impermanent_loss"`
}

// ParseRiskLevel accepts any casing of the known levels.
func ParseRiskLevel(input string) (RiskLevel, error) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(input))) {
	case RiskNone:
		return RiskNone, nil
	case RiskLow:
		return RiskLow, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskHigh:
		return RiskHigh, nil
	default:
		return "", fmt.Errorf("unknown risk level: %q", input)
	}
}

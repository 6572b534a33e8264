package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetCombined is the joined view of one asset's balance across both
// venues, plus its valuation in quote currency.
type AssetCombined struct {
	TotalA     decimal.Decimal
	AvailA     decimal.Decimal
	TotalB     decimal.Decimal
	AvailB     decimal.Decimal
	ValueQuote decimal.Decimal
}

// DistributionRatioA returns total_a / (total_a + total_b). The second
// return value is false when the combined total is zero, per spec: the
// ratio is only defined when the sum is positive.
func (a AssetCombined) DistributionRatioA() (decimal.Decimal, bool) {
	sum := a.TotalA.Add(a.TotalB)
	if !sum.IsPositive() {
		return decimal.Zero, false
	}
	return a.TotalA.DivRound(sum, 12), true
}

// BalancePoolSnapshot is one point-in-time joint view of both venues'
// wallets, appended to a bounded history.
type BalancePoolSnapshot struct {
	Ts               time.Time
	BalancesA        Balances
	BalancesB        Balances
	Combined         map[string]AssetCombined
	TotalValueQuote  decimal.Decimal
	PeakValueQuote   decimal.Decimal
}

// EmergencyReason identifies which protection trigger fired.
type EmergencyReason string

const (
	ReasonMaxDrawdown        EmergencyReason = "MaxDrawdown"
	ReasonMaxLoss            EmergencyReason = "MaxLoss"
	ReasonConsecutiveLosses  EmergencyReason = "ConsecutiveLosses"
	ReasonRapidLoss          EmergencyReason = "RapidLoss"
	ReasonCriticalImbalance  EmergencyReason = "CriticalImbalance"
)

// EmergencyAction is the recommended/required response to a trigger.
type EmergencyAction string

const (
	ActionPauseTrading      EmergencyAction = "PauseTrading"
	ActionStopTrading       EmergencyAction = "StopTrading"
	ActionRebalanceImmediate EmergencyAction = "RebalanceImmediate"
	ActionHedge             EmergencyAction = "Hedge"
	ActionAlertOnly         EmergencyAction = "AlertOnly"
)

// EmergencyCheck is the verdict produced by one balance-pool evaluation.
type EmergencyCheck struct {
	ShouldTrigger bool
	Reason        EmergencyReason
	Current       decimal.Decimal
	Threshold     decimal.Decimal
	Action        EmergencyAction
}

// RebalanceUrgency grades how badly a rebalance is needed.
type RebalanceUrgency string

const (
	UrgencyNone     RebalanceUrgency = "None"
	UrgencyLow      RebalanceUrgency = "Low"
	UrgencyMedium   RebalanceUrgency = "Medium"
	UrgencyHigh     RebalanceUrgency = "High"
	UrgencyCritical RebalanceUrgency = "Critical"
)

// RebalanceAction is a single suggested transfer between venues.
type RebalanceAction struct {
	Asset  string
	From   string // "A" or "B"
	To     string
	Amount decimal.Decimal
	Reason string
}

// RebalanceRecommendation bundles the suggested corrective moves.
type RebalanceRecommendation struct {
	Actions []RebalanceAction
	Urgency RebalanceUrgency
	Summary string
}

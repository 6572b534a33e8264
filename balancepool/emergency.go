package balancepool

import (
	"github.com/shopspring/decimal"

	"spotarb.trade/config"
	"spotarb.trade/model"
)

var (
	hundred        = decimal.NewFromInt(100)
	rebalanceHalf  = decimal.NewFromFloat(0.5)
	rebalance30pct = decimal.NewFromFloat(0.30)
	rebalance35pct = decimal.NewFromFloat(0.35)
	rebalance40pct = decimal.NewFromFloat(0.40)
	onePercent     = decimal.NewFromFloat(0.01)
)

// CheckEmergency evaluates the five priority-ordered triggers of spec.md
// §4.5 against the pool's current state. consecutiveLosses is read from
// the shared model.DailyPnL the risk gate also consults, so both the gate
// and the pool agree on what counts as a loss streak.
func (p *Pool) CheckEmergency(risk config.RiskConfig, consecutiveLosses int) model.EmergencyCheck {
	p.mu.Lock()
	currentDD := p.drawdownPctLocked()
	realized := p.current.TotalValueQuote.Sub(p.initial.TotalValueQuote)
	initialTotal := p.initial.TotalValueQuote
	recent := make([]decimal.Decimal, len(p.recentTradePnL))
	copy(recent, p.recentTradePnL)
	p.mu.Unlock()

	if risk.MaxDrawdownPercent.IsPositive() && currentDD.GreaterThanOrEqual(risk.MaxDrawdownPercent) {
		return model.EmergencyCheck{
			ShouldTrigger: true, Reason: model.ReasonMaxDrawdown,
			Current: currentDD, Threshold: risk.MaxDrawdownPercent, Action: model.ActionStopTrading,
		}
	}

	negRealized := realized.Neg()
	if risk.MaxDailyLoss.IsPositive() && negRealized.GreaterThanOrEqual(risk.MaxDailyLoss) {
		return model.EmergencyCheck{
			ShouldTrigger: true, Reason: model.ReasonMaxLoss,
			Current: negRealized, Threshold: risk.MaxDailyLoss, Action: model.ActionStopTrading,
		}
	}

	if risk.MaxConsecutiveLosses > 0 && consecutiveLosses >= risk.MaxConsecutiveLosses {
		return model.EmergencyCheck{
			ShouldTrigger: true, Reason: model.ReasonConsecutiveLosses,
			Current:   decimal.NewFromInt(int64(consecutiveLosses)),
			Threshold: decimal.NewFromInt(int64(risk.MaxConsecutiveLosses)),
			Action:    model.ActionPauseTrading,
		}
	}

	if len(recent) >= 5 && initialTotal.IsPositive() {
		sum := decimal.Zero
		for _, v := range recent[len(recent)-5:] {
			sum = sum.Add(v)
		}
		rapidLossThreshold := initialTotal.Mul(onePercent).Neg()
		if sum.LessThanOrEqual(rapidLossThreshold) {
			return model.EmergencyCheck{
				ShouldTrigger: true, Reason: model.ReasonRapidLoss,
				Current: sum, Threshold: rapidLossThreshold, Action: model.ActionPauseTrading,
			}
		}
	}

	rebalance := p.CalculateRebalance()
	if rebalance.Urgency == model.UrgencyCritical {
		return model.EmergencyCheck{
			ShouldTrigger: true, Reason: model.ReasonCriticalImbalance,
			Current: decimal.Zero, Threshold: rebalance40pct.Mul(hundred), Action: model.ActionRebalanceImmediate,
		}
	}

	return model.EmergencyCheck{ShouldTrigger: false, Action: model.ActionAlertOnly}
}

// CalculateRebalance implements spec.md §4.5's rebalance recommendation:
// for each asset with a positive combined balance whose venue split
// deviates from 50/50 by more than 30 percentage points, recommend moving
// the excess from the heavy venue to the light one.
func (p *Pool) CalculateRebalance() model.RebalanceRecommendation {
	p.mu.Lock()
	combined := make(map[string]model.AssetCombined, len(p.current.Combined))
	for k, v := range p.current.Combined {
		combined[k] = v
	}
	p.mu.Unlock()

	rec := model.RebalanceRecommendation{Urgency: model.UrgencyNone}

	for asset, c := range combined {
		ratio, ok := c.DistributionRatioA()
		if !ok {
			continue
		}
		deviation := ratio.Sub(rebalanceHalf).Abs()
		if deviation.LessThanOrEqual(rebalance30pct) {
			continue
		}

		total := c.TotalA.Add(c.TotalB)
		amount := total.Mul(deviation)

		from, to := "A", "B"
		if ratio.LessThan(rebalanceHalf) {
			from, to = "B", "A"
		}

		rec.Actions = append(rec.Actions, model.RebalanceAction{
			Asset: asset, From: from, To: to, Amount: amount,
			Reason: "distribution deviates from 50/50 by more than 30%",
		})

		urgency := urgencyFor(deviation)
		if severity(urgency) > severity(rec.Urgency) {
			rec.Urgency = urgency
		}
	}

	if rec.Urgency != model.UrgencyNone {
		rec.Summary = "one or more assets are unevenly distributed across venues"
	}
	return rec
}

func urgencyFor(deviation decimal.Decimal) model.RebalanceUrgency {
	switch {
	case deviation.GreaterThan(rebalance40pct):
		return model.UrgencyCritical
	case deviation.GreaterThan(rebalance35pct):
		return model.UrgencyHigh
	default:
		return model.UrgencyMedium
	}
}

func severity(u model.RebalanceUrgency) int {
	switch u {
	case model.UrgencyCritical:
		return 4
	case model.UrgencyHigh:
		return 3
	case model.UrgencyMedium:
		return 2
	case model.UrgencyLow:
		return 1
	default:
		return 0
	}
}

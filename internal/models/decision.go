package models

// Signal is the discrete trade decision token.
type Signal string

const (
	SignalNone Signal = ""
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// TradingDecision is the final result handed to driving collaborators.
type TradingDecision struct {
	Symbol    string `json:"symbol"`
	TradeDate string `json:"trade_date"`

	Action    Signal `json:"action"`
	Ambiguous bool   `json:"ambiguous"`

	ResearchVerdict string            `json:"research_verdict"`
	TraderPlan      string            `json:"trader_plan"`
	RiskVerdict     string            `json:"risk_verdict"`
	Reports         map[string]string `json:"reports"`

	Status RunStatus `json:"status"`
}

// DecisionFromState assembles the final result from a finished run.
func DecisionFromState(s *TradingState) *TradingDecision {
	reports := make(map[string]string, len(s.Reports))
	for k, v := range s.Reports {
		reports[k] = v
	}
	return &TradingDecision{
		Symbol:          s.CompanyOfInterest,
		TradeDate:       s.TradeDate,
		Action:          s.Signal,
		Ambiguous:       s.SignalAmbiguous,
		ResearchVerdict: s.InvestDebate.Verdict,
		TraderPlan:      s.TraderPlan,
		RiskVerdict:     s.RiskDebate.Verdict,
		Reports:         reports,
		Status:          s.Status,
	}
}

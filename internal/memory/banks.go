package memory

// Bank names. Each reflective agent recalls from and reflects into its own
// bank; banks are never shared across components.
const (
	BankBull        = "bull_memory"
	BankBear        = "bear_memory"
	BankTrader      = "trader_memory"
	BankInvestJudge = "invest_judge_memory"
	BankRiskManager = "risk_manager_memory"
)

// Banks lists every bank the pipeline maintains.
func Banks() []string {
	return []string{BankBull, BankBear, BankTrader, BankInvestJudge, BankRiskManager}
}

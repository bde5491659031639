package consts

// Graph node keys. Every agent node in the orchestrator is addressed by one
// of these names; routers write them into state.Goto.
const (
	// Analyst team
	MarketAnalyst       = "market_analyst"
	SocialMediaAnalyst  = "social_media_analyst"
	NewsAnalyst         = "news_analyst"
	FundamentalsAnalyst = "fundamentals_analyst"

	// Research team
	BullResearcher  = "bull_researcher"
	BearResearcher  = "bear_researcher"
	ResearchManager = "research_manager"

	// Trading team
	Trader = "trader"

	// Risk management team
	RiskyAnalyst   = "risky_analyst"
	SafeAnalyst    = "safe_analyst"
	NeutralAnalyst = "neutral_analyst"
	RiskJudge      = "risk_judge"

	// Terminal signal extraction step
	SignalProcessor = "signal_processor"
)

// Report categories. One slot per configured analyst; an analyst only ever
// writes its own slot, and at most once per run.
const (
	ReportMarket       = "market"
	ReportSocial       = "social"
	ReportNews         = "news"
	ReportFundamentals = "fundamentals"
)

// Debate role names shared by the research and risk protocols.
const (
	RoleBull    = "bull"
	RoleBear    = "bear"
	RoleRisky   = "risky"
	RoleSafe    = "safe"
	RoleNeutral = "neutral"
)

// AnalystForReport maps a report category to the node that produces it.
var AnalystForReport = map[string]string{
	ReportMarket:       MarketAnalyst,
	ReportSocial:       SocialMediaAnalyst,
	ReportNews:         NewsAnalyst,
	ReportFundamentals: FundamentalsAnalyst,
}

// ReportForAnalyst is the inverse of AnalystForReport.
var ReportForAnalyst = map[string]string{
	MarketAnalyst:       ReportMarket,
	SocialMediaAnalyst:  ReportSocial,
	NewsAnalyst:         ReportNews,
	FundamentalsAnalyst: ReportFundamentals,
}

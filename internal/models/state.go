package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"tradedesk/consts"
	"tradedesk/internal/config"
)

// RunStatus is the user-visible outcome of a run. Every run finishes with
// exactly one of these, alongside whatever partial result exists.
type RunStatus string

const (
	RunInProgress RunStatus = "in-progress"
	RunCompleted  RunStatus = "completed"
	RunDegraded   RunStatus = "completed-with-degradation"
	RunAborted    RunStatus = "aborted"
)

// RoleSet fixes the speaking order of one debate protocol. The research and
// risk debates share the DebateState shape and differ only in their RoleSet.
type RoleSet struct {
	Kind  string   `json:"kind"`
	Order []string `json:"order"`
}

func ResearchRoles() RoleSet {
	return RoleSet{Kind: "research", Order: []string{consts.RoleBull, consts.RoleBear}}
}

func RiskRoles() RoleSet {
	return RoleSet{Kind: "risk", Order: []string{consts.RoleRisky, consts.RoleSafe, consts.RoleNeutral}}
}

// DebateTurn is one argument in a debate history, in actual turn order.
type DebateTurn struct {
	Role     string `json:"role"`
	Argument string `json:"argument"`
}

// DebateState tracks one bounded-round debate. A round is a full cycle
// through all roles; RoundCount never exceeds MaxRounds, and Verdict is set
// by the judge step only once RoundCount reaches MaxRounds.
type DebateState struct {
	Roles       RoleSet           `json:"roles"`
	MaxRounds   int               `json:"max_rounds"`
	Turns       []DebateTurn      `json:"turns"`
	Current     map[string]string `json:"current_responses"`
	LastSpeaker string            `json:"last_speaker"`
	TurnCount   int               `json:"turn_count"`
	RoundCount  int               `json:"round_count"`
	Verdict     string            `json:"verdict"`
}

func NewDebateState(roles RoleSet, maxRounds int) *DebateState {
	return &DebateState{
		Roles:     roles,
		MaxRounds: maxRounds,
		Current:   make(map[string]string),
	}
}

// SpeakerForTurn returns the role that speaks at 0-indexed turn i: roles
// cycle in fixed order, so the research debate alternates bull, bear.
func (d *DebateState) SpeakerForTurn(i int) string {
	return d.Roles.Order[i%len(d.Roles.Order)]
}

// NextSpeaker returns the role whose turn is next.
func (d *DebateState) NextSpeaker() string {
	return d.SpeakerForTurn(d.TurnCount)
}

// AddTurn appends one argument to the history and advances the counters.
// The round counter increments only when a full cycle of roles completes.
func (d *DebateState) AddTurn(role, argument string) {
	d.Turns = append(d.Turns, DebateTurn{Role: role, Argument: argument})
	d.Current[role] = argument
	d.LastSpeaker = role
	d.TurnCount++
	if d.TurnCount%len(d.Roles.Order) == 0 {
		d.RoundCount++
	}
}

// Finished reports whether the round budget is spent and the judge step
// should run. There is no early-convergence exit: debates always run their
// configured rounds.
func (d *DebateState) Finished() bool {
	return d.RoundCount >= d.MaxRounds
}

// History renders the labeled transcript of the debate so far.
func (d *DebateState) History() string {
	var b strings.Builder
	for _, t := range d.Turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Argument)
	}
	return strings.TrimSpace(b.String())
}

// HistoryFor renders only the given role's arguments.
func (d *DebateState) HistoryFor(role string) string {
	var b strings.Builder
	for _, t := range d.Turns {
		if t.Role == role {
			fmt.Fprintf(&b, "%s\n", t.Argument)
		}
	}
	return strings.TrimSpace(b.String())
}

func (d *DebateState) clone() *DebateState {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Turns = append([]DebateTurn(nil), d.Turns...)
	cp.Current = make(map[string]string, len(d.Current))
	for k, v := range d.Current {
		cp.Current[k] = v
	}
	return &cp
}

// TradingState is the single mutable context of one trading evaluation. It
// is created at run start, mutated only by agent nodes and the coordinator,
// and frozen once the run reaches a terminal status.
type TradingState struct {
	Messages          []*schema.Message `json:"messages"`
	CompanyOfInterest string            `json:"company_of_interest"`
	TradeDate         string            `json:"trade_date"`

	// Reports holds one slot per configured analyst; a slot is written at
	// most once per run.
	Reports      map[string]string `json:"reports"`
	AnalystOrder []string          `json:"analyst_order"`

	InvestDebate *DebateState `json:"investment_debate_state"`
	RiskDebate   *DebateState `json:"risk_debate_state"`

	TraderPlan         string `json:"trader_investment_plan"`
	FinalTradeDecision string `json:"final_trade_decision"`

	Signal          Signal `json:"final_signal"`
	SignalAmbiguous bool   `json:"signal_ambiguous"`

	Status   RunStatus `json:"status"`
	Degraded bool      `json:"degraded"`
	FatalErr string    `json:"fatal_err,omitempty"`

	// Goto names the next node; Transitions counts router hops and is
	// bounded by Config.MaxRecurLimit.
	Goto        string `json:"goto"`
	Transitions int    `json:"transitions"`

	Config *config.Config `json:"config"`
}

func NewTradingState(symbol string, date time.Time, cfg *config.Config) *TradingState {
	reports := make(map[string]string, len(cfg.Analysts))
	order := append([]string(nil), cfg.Analysts...)

	return &TradingState{
		Messages: []*schema.Message{
			schema.UserMessage(fmt.Sprintf("Analyze trading opportunities for %s on %s", symbol, date.Format("2006-01-02"))),
		},
		CompanyOfInterest: symbol,
		TradeDate:         date.Format("2006-01-02"),
		Reports:           reports,
		AnalystOrder:      order,
		InvestDebate:      NewDebateState(ResearchRoles(), cfg.MaxDebateRounds),
		RiskDebate:        NewDebateState(RiskRoles(), cfg.MaxRiskDiscussRounds),
		Status:            RunInProgress,
		Goto:              consts.AnalystForReport[order[0]],
		Config:            cfg,
	}
}

// SetReport writes an analyst's report slot. Unknown slots and double
// writes are configuration errors, not data errors.
func (s *TradingState) SetReport(category, text string) error {
	known := false
	for _, a := range s.AnalystOrder {
		if a == category {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("report slot %q is not configured for this run", category)
	}
	if _, dup := s.Reports[category]; dup {
		return fmt.Errorf("report slot %q already written", category)
	}
	s.Reports[category] = text
	return nil
}

// CurrentSituation joins the analyst reports in configured order. It is the
// memory-query key for researcher recall and reflection.
func (s *TradingState) CurrentSituation() string {
	parts := make([]string, 0, len(s.AnalystOrder))
	for _, a := range s.AnalystOrder {
		if r, ok := s.Reports[a]; ok && r != "" {
			parts = append(parts, r)
		}
	}
	return strings.Join(parts, "\n\n")
}

// NextUnwrittenAnalyst returns the report category of the first configured
// analyst without a report, or "" when the analysis phase is complete.
func (s *TradingState) NextUnwrittenAnalyst() string {
	for _, a := range s.AnalystOrder {
		if _, ok := s.Reports[a]; !ok {
			return a
		}
	}
	return ""
}

// Snapshot returns a deep copy safe to hand to progress displays while the
// run keeps mutating the original.
func (s *TradingState) Snapshot() *TradingState {
	cp := *s
	cp.Messages = append([]*schema.Message(nil), s.Messages...)
	cp.Reports = make(map[string]string, len(s.Reports))
	for k, v := range s.Reports {
		cp.Reports[k] = v
	}
	cp.AnalystOrder = append([]string(nil), s.AnalystOrder...)
	cp.InvestDebate = s.InvestDebate.clone()
	cp.RiskDebate = s.RiskDebate.clone()
	return &cp
}

// Package reflection closes the learning loop: after a run's outcome is
// known, each reflective component is reviewed against the realized
// returns and the lesson is stored in that component's memory bank.
package reflection

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"tradedesk/consts"
	"tradedesk/internal/agents"
	"tradedesk/internal/config"
	"tradedesk/internal/memory"
	"tradedesk/internal/models"
	"tradedesk/internal/utils"
)

// Reflector reviews completed runs and writes lessons to memory.
type Reflector struct {
	gen     agents.Generator
	banks   map[string]*memory.SituationMemory
	retries int
	log     *zap.Logger
}

func New(ctx context.Context, cm model.ToolCallingChatModel, cfg *config.Config, banks map[string]*memory.SituationMemory, log *zap.Logger) (*Reflector, error) {
	if log == nil {
		log = zap.NewNop()
	}
	gen, err := agents.NewGenerator(ctx, cm, nil, cfg)
	if err != nil {
		return nil, fmt.Errorf("create reflector generator: %w", err)
	}
	return &Reflector{
		gen:     gen,
		banks:   banks,
		retries: cfg.ModelRetries,
		log:     log,
	}, nil
}

// component pairs one reflective agent's run output with its bank.
type component struct {
	bank   string
	output string
}

// ReflectOnRun reviews every reflective component of a finished run against
// the realized returns and appends one lesson per component to its bank.
// Components that produced no output are skipped.
func (r *Reflector) ReflectOnRun(ctx context.Context, state *models.TradingState, returns float64) error {
	situation := state.CurrentSituation()
	if strings.TrimSpace(situation) == "" {
		return fmt.Errorf("run for %s on %s has no analyst reports to reflect on", state.CompanyOfInterest, state.TradeDate)
	}

	tplText, err := utils.LoadPrompt("reflection/reflector")
	if err != nil {
		return err
	}
	tpl := prompt.FromMessages(schema.FString, schema.UserMessage(tplText))

	components := []component{
		{memory.BankBull, state.InvestDebate.HistoryFor(consts.RoleBull)},
		{memory.BankBear, state.InvestDebate.HistoryFor(consts.RoleBear)},
		{memory.BankInvestJudge, state.InvestDebate.Verdict},
		{memory.BankTrader, state.TraderPlan},
		{memory.BankRiskManager, state.FinalTradeDecision},
	}

	for _, c := range components {
		if strings.TrimSpace(c.output) == "" {
			continue
		}
		bank, ok := r.banks[c.bank]
		if !ok || bank == nil {
			continue
		}

		msgs, err := tpl.Format(ctx, map[string]any{
			"returns":          fmt.Sprintf("%.2f%%", returns*100),
			"situation":        situation,
			"component_output": c.output,
		})
		if err != nil {
			return fmt.Errorf("format reflection prompt for %s: %w", c.bank, err)
		}

		msg, err := agents.GenerateWithRetry(ctx, r.gen, msgs, r.retries, r.log)
		if err != nil {
			return fmt.Errorf("reflect on %s: %w", c.bank, err)
		}

		outcome := returns
		if err := bank.Store(ctx, situation, models.MessageText(msg), &outcome); err != nil {
			return fmt.Errorf("store reflection for %s: %w", c.bank, err)
		}
		r.log.Info("stored reflection", zap.String("bank", c.bank))
	}
	return nil
}

// Package graph wires the agents into the run pipeline: analysts, the
// investment debate, the trader, the risk debate, and the terminal signal
// extraction, with the hand-off branch routing between them.
package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tradedesk/consts"
	"tradedesk/internal/agents"
	"tradedesk/internal/agents/analysts"
	"tradedesk/internal/agents/managers"
	"tradedesk/internal/agents/researchers"
	"tradedesk/internal/agents/riskmgmt"
	"tradedesk/internal/agents/trader"
	"tradedesk/internal/config"
	"tradedesk/internal/dataflows"
	"tradedesk/internal/memory"
	"tradedesk/internal/models"
	"tradedesk/internal/providers"
	"tradedesk/internal/reflection"
	"tradedesk/internal/storage"
	"tradedesk/internal/tools"
)

// TradingGraph owns everything one evaluation needs: the data feeds, the
// chat models, the memory banks, and the agent nodes. It is safe to reuse
// across runs; each Propagate call builds its own state and graph.
type TradingGraph struct {
	cfg   *config.Config
	log   *zap.Logger
	flows dataflows.Service
	store *storage.Store

	quick    model.ToolCallingChatModel
	deep     model.ToolCallingChatModel
	embedder memory.Embedder

	toolkit   *tools.Toolkit
	memories  map[string]*memory.SituationMemory
	nodes     map[string]*agents.Node
	nodeOrder []string
	reflector *reflection.Reflector
}

// Option customizes graph construction, mainly for tests and the CLI.
type Option func(*TradingGraph)

func WithLogger(log *zap.Logger) Option {
	return func(tg *TradingGraph) { tg.log = log }
}

func WithDataFlows(flows dataflows.Service) Option {
	return func(tg *TradingGraph) { tg.flows = flows }
}

func WithStore(store *storage.Store) Option {
	return func(tg *TradingGraph) { tg.store = store }
}

func WithChatModels(quick, deep model.ToolCallingChatModel) Option {
	return func(tg *TradingGraph) {
		tg.quick = quick
		tg.deep = deep
	}
}

func WithEmbedder(e memory.Embedder) Option {
	return func(tg *TradingGraph) { tg.embedder = e }
}

func NewTradingGraph(ctx context.Context, cfg *config.Config, opts ...Option) (*TradingGraph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tg := &TradingGraph{
		cfg: cfg,
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(tg)
	}

	if tg.flows == nil {
		tg.flows = dataflows.New(cfg)
	}
	if tg.quick == nil || tg.deep == nil {
		quick, err := providers.NewChatModel(ctx, cfg, providers.QuickThink)
		if err != nil {
			return nil, err
		}
		deep, err := providers.NewChatModel(ctx, cfg, providers.DeepThink)
		if err != nil {
			return nil, err
		}
		tg.quick, tg.deep = quick, deep
	}
	if tg.embedder == nil {
		if cfg.EmbeddingAPIKey != "" {
			tg.embedder = memory.NewOpenAIEmbedder(cfg)
		} else {
			tg.embedder = memory.NewHashEmbedder()
		}
	}

	tg.memories = make(map[string]*memory.SituationMemory, len(memory.Banks()))
	for _, bank := range memory.Banks() {
		m, err := memory.New(bank, tg.embedder, tg.store)
		if err != nil {
			return nil, err
		}
		tg.memories[bank] = m
	}

	tg.toolkit = tools.NewToolkit(cfg, tg.flows, tg.log)
	if err := tg.buildNodes(); err != nil {
		return nil, err
	}

	reflector, err := reflection.New(ctx, tg.deep, cfg, tg.memories, tg.log)
	if err != nil {
		return nil, err
	}
	tg.reflector = reflector

	return tg, nil
}

func (tg *TradingGraph) buildNodes() error {
	analystNodes, err := analysts.All(tg.cfg.Analysts, tg.toolkit)
	if err != nil {
		return err
	}

	all := analystNodes
	all = append(all,
		researchers.NewBullResearcher(tg.memories[memory.BankBull]),
		researchers.NewBearResearcher(tg.memories[memory.BankBear]),
		managers.NewResearchManager(tg.memories[memory.BankInvestJudge]),
		trader.NewTrader(tg.memories[memory.BankTrader]),
		riskmgmt.NewRiskyAnalyst(),
		riskmgmt.NewSafeAnalyst(),
		riskmgmt.NewNeutralAnalyst(),
		riskmgmt.NewRiskJudge(tg.memories[memory.BankRiskManager]),
	)

	tg.nodes = make(map[string]*agents.Node, len(all))
	tg.nodeOrder = make([]string, 0, len(all))
	for _, n := range all {
		tg.nodes[n.Name] = n
		tg.nodeOrder = append(tg.nodeOrder, n.Name)
	}
	return nil
}

// Memory returns a bank by name, for inspection and tests.
func (tg *TradingGraph) Memory(bank string) *memory.SituationMemory {
	return tg.memories[bank]
}

// NewRunState builds the initial state for one evaluation. Callers that
// want to observe a run in flight create the state here and pass it to
// PropagateState.
func (tg *TradingGraph) NewRunState(symbol string, date time.Time) *models.TradingState {
	return models.NewTradingState(symbol, date, tg.cfg)
}

// Propagate runs one full evaluation for a symbol and trade date. The
// returned state always carries a terminal status; the error is non-nil
// only for failures before the pipeline could start.
func (tg *TradingGraph) Propagate(ctx context.Context, symbol string, date time.Time) (*models.TradingState, error) {
	return tg.PropagateState(ctx, tg.NewRunState(symbol, date))
}

// PropagateState drives a prepared state through the pipeline.
func (tg *TradingGraph) PropagateState(ctx context.Context, state *models.TradingState) (*models.TradingState, error) {
	symbol := state.CompanyOfInterest
	tg.toolkit.ResetDegraded()

	tg.log.Info("starting run",
		zap.String("symbol", symbol),
		zap.String("trade_date", state.TradeDate),
		zap.Bool("parallel_analysts", tg.cfg.ParallelAnalysts),
	)

	if flows, ok := tg.flows.(*dataflows.Flows); ok && tg.cfg.OnlineTools {
		if err := flows.Prefetch(ctx, symbol, state.TradeDate); err != nil {
			tg.log.Warn("prefetch incomplete", zap.Error(err))
		}
	}

	start := state.Goto
	if tg.cfg.ParallelAnalysts {
		if err := tg.runAnalystsParallel(ctx, state); err != nil {
			state.Status = models.RunAborted
			state.FatalErr = err.Error()
			state.Signal = models.SignalNone
			tg.persist(state)
			return state, err
		}
		start = consts.BullResearcher
		state.Goto = start
	}

	runnable, err := tg.compile(ctx, state, start)
	if err != nil {
		return nil, fmt.Errorf("compile run graph: %w", err)
	}

	if _, err := runnable.Invoke(ctx, "begin"); err != nil {
		state.Status = models.RunAborted
		state.FatalErr = err.Error()
		state.Signal = models.SignalNone
	}

	if state.Status == models.RunInProgress {
		if state.Degraded || tg.toolkit.Degraded() {
			state.Degraded = true
			state.Status = models.RunDegraded
		} else {
			state.Status = models.RunCompleted
		}
	}

	tg.log.Info("run finished",
		zap.String("symbol", symbol),
		zap.String("status", string(state.Status)),
		zap.String("signal", string(state.Signal)),
	)

	tg.persist(state)
	return state, nil
}

// runAnalystsParallel fans the analyst phase out with one goroutine per
// analyst, then applies the reports in configured order so writes stay
// deterministic. Degraded analysts produce placeholder reports instead of
// failing the phase.
func (tg *TradingGraph) runAnalystsParallel(ctx context.Context, state *models.TradingState) error {
	var mu sync.Mutex
	results := make([]*schema.Message, len(state.AnalystOrder))

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range state.AnalystOrder {
		node := tg.nodes[consts.AnalystForReport[category]]
		g.Go(func() error {
			gen, err := agents.NewGenerator(gctx, tg.quick, node.Tools, tg.cfg)
			if err != nil {
				return err
			}

			mu.Lock()
			msgs, err := node.Load(gctx, state)
			mu.Unlock()
			if err != nil {
				return err
			}

			msg, err := agents.GenerateWithRetry(gctx, gen, msgs, tg.cfg.ModelRetries, tg.log)
			if err != nil {
				tg.log.Error("analyst degraded", zap.String("analyst", node.Name), zap.Error(err))
				msg = agents.DegradedMessage(node.Name, err)
				mu.Lock()
				state.Degraded = true
				mu.Unlock()
			}
			results[i] = msg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, category := range state.AnalystOrder {
		if err := state.SetReport(category, models.MessageText(results[i])); err != nil {
			return err
		}
		state.Messages = append(state.Messages, results[i])
	}
	return nil
}

// Reflect reviews a finished run against its realized returns and stores
// the lessons in the memory banks.
func (tg *TradingGraph) Reflect(ctx context.Context, state *models.TradingState, returns float64) error {
	return tg.reflector.ReflectOnRun(ctx, state, returns)
}

func (tg *TradingGraph) persist(state *models.TradingState) {
	if tg.store == nil {
		return
	}
	if err := tg.store.SaveRun(state); err != nil {
		tg.log.Error("persist run", zap.Error(err))
	}
}

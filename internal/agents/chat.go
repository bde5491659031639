package agents

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

// Generator is one model call, with or without a tool loop behind it.
type Generator interface {
	Generate(ctx context.Context, msgs []*schema.Message) (*schema.Message, error)
}

type modelGenerator struct {
	cm model.BaseChatModel
}

func (g *modelGenerator) Generate(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
	return g.cm.Generate(ctx, msgs)
}

type reactGenerator struct {
	agent *react.Agent
}

func (g *reactGenerator) Generate(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
	return g.agent.Generate(ctx, msgs)
}

// NewGenerator wraps a chat model as a Generator. Nodes with tools get a
// react loop bounded by MaxAgentSteps; the rest call the model directly.
func NewGenerator(ctx context.Context, cm model.ToolCallingChatModel, tls []tool.BaseTool, cfg *config.Config) (Generator, error) {
	if len(tls) == 0 {
		return &modelGenerator{cm: cm}, nil
	}

	agent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:          cfg.MaxAgentSteps,
		ToolCallingModel: cm,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tls,
		},
		StreamToolCallChecker: ToolCallChecker,
	})
	if err != nil {
		return nil, err
	}
	return &reactGenerator{agent: agent}, nil
}

// ToolCallChecker classifies a streamed response: any chunk carrying tool
// calls makes the whole message a tool call, everything else is plain text.
func ToolCallChecker(_ context.Context, sr *schema.StreamReader[*schema.Message]) (bool, error) {
	defer sr.Close()
	for {
		msg, err := sr.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
		if models.HasToolCall(msg) {
			return true, nil
		}
	}
}

// GenerateWithRetry retries transient model failures and empty responses
// with linear backoff, re-sending the same transcript each attempt. The
// caller decides what a final failure means for the run.
func GenerateWithRetry(ctx context.Context, gen Generator, msgs []*schema.Message, retries int, log *zap.Logger) (*schema.Message, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			log.Warn("retrying model call", zap.Int("attempt", attempt), zap.Error(lastErr))
		}

		msg, err := gen.Generate(ctx, msgs)
		if err != nil {
			lastErr = err
			continue
		}
		// A blank response with no tool calls is as useless as a transport
		// error, so it spends a retry too.
		if models.MessageText(msg) == "" && !models.HasToolCall(msg) {
			lastErr = errors.New("model returned empty output")
			continue
		}
		return msg, nil
	}
	return nil, lastErr
}

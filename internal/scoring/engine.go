// Package scoring computes digital-native and incident-fit scores for
// company records. The model-backed scorer is primary; deterministic rules
// take over whenever it fails.
package scoring

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/digital-native-cli/internal/config"
	"github.com/sells-group/digital-native-cli/internal/model"
	"github.com/sells-group/digital-native-cli/pkg/anthropic"
)

// Engine scores companies. With a nil client it runs in fallback-only mode.
type Engine struct {
	client  anthropic.Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
}

// NewEngine creates a scoring engine. client may be nil to disable the
// model-backed scorer entirely.
func NewEngine(client anthropic.Client, cfg config.AnthropicConfig) *Engine {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return &Engine{
		client:  client,
		cfg:     cfg,
		limiter: limiter,
	}
}

// Score produces a result for the record. It is total: any failure of the
// model path yields the deterministic fallback rather than an error.
func (e *Engine) Score(ctx context.Context, record model.CompanyRecord) *model.ScoreResult {
	if e.client == nil {
		return Fallback(record)
	}

	result, err := e.scorePrimary(ctx, record)
	if err != nil {
		zap.L().Warn("scoring: model scorer failed, using fallback",
			zap.String("company", record.Name),
			zap.Error(err),
		)
		return Fallback(record)
	}
	return result
}

func (e *Engine) scorePrimary(ctx context.Context, record model.CompanyRecord) (*model.ScoreResult, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req := anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(scoreSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserPrompt(record)},
		},
	}

	resp, err := e.client.CreateMessage(ctx, req)
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(e.cfg.Model, "scoring")

	result, err := parseScoreResult(extractText(resp))
	if err != nil {
		return nil, err
	}

	zap.L().Debug("scoring: model scorer complete",
		zap.String("company", record.Name),
		zap.Float64("digital_native_score", result.DigitalNativeScore),
		zap.Float64("incident_fit_score", result.IncidentFitScore),
	)
	return result, nil
}

package risk

import (
	"context"
	"fmt"
	"time"

	"careshift/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RemoteEvaluator calls the platform's analytics service for trend
// scoring and falls back to the built-in rule engine when the service
// is unreachable. Handover generation must never fail on risk scoring.
type RemoteEvaluator struct {
	httpClient *resty.Client
	fallback   Evaluator
	logger     *zap.Logger
}

// remoteResponse is the analytics service's wire format.
type remoteResponse struct {
	Level         string   `json:"level"`
	Score         float64  `json:"score"`
	Justification string   `json:"justification"`
	Details       []string `json:"details"`
}

func NewRemoteEvaluator(baseURL string, timeout time.Duration, logger *zap.Logger) *RemoteEvaluator {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RemoteEvaluator{
		httpClient: client,
		fallback:   NewRuleEvaluator(),
		logger:     logger,
	}
}

var _ Evaluator = (*RemoteEvaluator)(nil)

func (e *RemoteEvaluator) EvaluateTrend(ctx context.Context, logs []domain.RoutineLog) (*Assessment, error) {
	var out remoteResponse
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]any{"logs": logs}).
		SetResult(&out).
		Post("/risk/api/v1/trend")

	if err != nil || resp.IsError() {
		if err == nil {
			err = fmt.Errorf("risk service returned %s", resp.Status())
		}
		e.logger.Warn("Trend risk service unavailable, using rule engine",
			zap.Int("log_count", len(logs)),
			zap.Error(err),
		)
		return e.fallback.EvaluateTrend(ctx, logs)
	}

	return &Assessment{
		Level:         out.Level,
		Score:         out.Score,
		Justification: out.Justification,
		Details:       out.Details,
	}, nil
}

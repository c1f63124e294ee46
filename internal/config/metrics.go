package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	validationMetricOnce sync.Once
	validationCounter    metric.Int64Counter
)

// recordConfigValidationEvent counts Load outcomes so a crash-looping
// deployment with bad config shows up in metrics, not just logs.
func recordConfigValidationEvent(ctx context.Context, profile, outcome, errorClass string) {
	validationMetricOnce.Do(func() {
		if counter, err := otel.Meter("attendance-service").Int64Counter("config.validation.events"); err == nil {
			validationCounter = counter
		}
	})
	if validationCounter == nil {
		return
	}
	validationCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", errorClass),
	))
}

func normalizeConfigProfile(profile string) string {
	if v := strings.TrimSpace(strings.ToLower(profile)); v != "" {
		return v
	}
	return "unknown"
}

// classifyConfigLoadError buckets Load failures by the error prefixes
// load() produces: "validate config: ..." for precondition failures and
// "parse KEY: ..." for malformed values.
func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.Contains(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}

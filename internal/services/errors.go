package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lllllllleong/careercopilot/internal/models"
)

// classify wraps an upstream failure with its taxonomy kind.
func classify(op string, err error) error {
	switch {
	case errors.Is(err, models.ErrTimeout), errors.Is(err, models.ErrUpstreamUnavailable),
		errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrUnsupportedFormat):
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, models.ErrTimeout, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, models.ErrUpstreamUnavailable, err)
	}
}

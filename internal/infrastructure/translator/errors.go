package translator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/yourusername/translate-relay-bot/internal/domain/entity"
)

// statusError maps an HTTP status from a provider onto the provider error taxonomy
func statusError(engine string, status int, body string) error {
	var kind error
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		kind = entity.ErrProviderTimeout
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity,
		status == http.StatusRequestEntityTooLarge:
		kind = entity.ErrProviderUnsupported
	default:
		kind = entity.ErrProviderUnavailable
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Errorf("%w: %s returned %d: %s", kind, engine, status, body)
}

// transportError classifies a failed request that produced no HTTP status
func transportError(engine string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %v", entity.ErrProviderTimeout, engine, err)
	}
	return fmt.Errorf("%w: %s: %v", entity.ErrProviderUnavailable, engine, err)
}

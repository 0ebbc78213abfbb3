package transport

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/sheetlens/sheetlens/internal/domain/models"
	"github.com/sheetlens/sheetlens/pkg/constants"
	apperrors "github.com/sheetlens/sheetlens/pkg/errors"
)

// CallbackRegistry tracks in-flight callback-style retrievals by their
// correlation token. The original client registered a uniquely named global
// callback before injecting a script tag; here each token owns a delivery
// channel instead, with the same contract: the registration must be released
// on every outcome, or repeated loads accumulate entries.
type CallbackRegistry struct {
	mu      sync.Mutex
	pending map[string]chan string
}

// NewCallbackRegistry creates an empty registry
func NewCallbackRegistry() *CallbackRegistry {
	return &CallbackRegistry{pending: make(map[string]chan string)}
}

// Register allocates a delivery channel for a token
func (r *CallbackRegistry) Register(token string) chan string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan string, 1)
	r.pending[token] = ch
	return ch
}

// Unregister releases a token's registration. Safe to call more than once.
func (r *CallbackRegistry) Unregister(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, token)
}

// Deliver hands a payload to the registered waiter, if any
func (r *CallbackRegistry) Deliver(token, payload string) bool {
	r.mu.Lock()
	ch, ok := r.pending[token]
	r.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- payload:
		return true
	default:
		return false
	}
}

// Len reports the number of live registrations
func (r *CallbackRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// FetchGvizCallback retrieves the visualization endpoint through its
// responseHandler variant: an out-of-band request correlated by a uniquely
// named token, bounded by a 15-second timeout. The token registration is
// released on success, timeout and transport error alike.
func (c *Client) FetchGvizCallback(ctx context.Context, ref *models.SheetReference) (string, error) {
	token := "sheetlens_cb_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	ch := c.callbacks.Register(token)
	defer c.callbacks.Unregister(token)

	ctx, cancel := context.WithTimeout(ctx, constants.CallbackTimeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		body, err := c.get(ctx, c.gvizURL(ref, token))
		if err != nil {
			errCh <- err
			return
		}
		payload, err := unwrapCallback(string(body), token)
		if err != nil {
			errCh <- err
			return
		}
		if !c.callbacks.Deliver(token, payload) {
			errCh <- apperrors.NewMalformedResponseError("gviz-callback", "no live registration for correlation token")
		}
	}()

	select {
	case payload := <-ch:
		return payload, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// unwrapCallback strips the `token(...)` invocation wrapper, leaving the
// payload text for the normalizer
func unwrapCallback(body, token string) (string, error) {
	trimmed := strings.TrimSpace(body)
	idx := strings.Index(trimmed, token+"(")
	if idx < 0 {
		return "", apperrors.NewMalformedResponseError("gviz-callback", "response does not invoke the correlation token")
	}
	inner := trimmed[idx+len(token)+1:]
	end := strings.LastIndex(inner, ")")
	if end < 0 {
		return "", apperrors.NewMalformedResponseError("gviz-callback", "unterminated callback invocation")
	}
	return inner[:end], nil
}

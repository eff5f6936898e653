package app

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultTimeout = 10 * time.Second
	maxAttempts    = 5

	// SignatureHeader carries the hex HMAC-SHA256 of the request body.
	SignatureHeader = "X-Paycore-Signature"
)

// Envelope is the canonical JSON body of every synchronous call to an app.
type Envelope struct {
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
}

// statusError distinguishes HTTP-level failures from transport failures so
// the retry policy can skip 4xx responses.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("app returned status %d: %s", e.status, e.body)
}

// transport posts signed envelopes to a single app endpoint.
type transport struct {
	client   *http.Client
	endpoint string
	secret   []byte
}

func newTransport(endpoint string, secret []byte, timeout time.Duration) *transport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &transport{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		secret:   secret,
	}
}

// Sign computes the hex HMAC-SHA256 of body with the given secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// post sends the envelope and returns the raw response body. Transport
// errors and 5xx responses are retried with exponential backoff and jitter;
// 4xx responses fail immediately.
func (t *transport) post(ctx context.Context, eventType string, payload map[string]any) ([]byte, error) {
	body, err := json.Marshal(Envelope{EventType: eventType, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	signature := Sign(t.secret, body)

	return retry.DoWithData(
		func() ([]byte, error) { return t.doOnce(ctx, body, signature) },
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			se, ok := err.(*statusError)
			if !ok {
				return true // transport error
			}
			return se.status >= 500
		}),
	)
}

func (t *transport) doOnce(ctx context.Context, body []byte, signature string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SignatureHeader, signature)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &statusError{status: resp.StatusCode, body: string(respBody)}
	}
	return respBody, nil
}

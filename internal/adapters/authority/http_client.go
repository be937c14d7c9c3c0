// Package authority holds the clients that deliver registry entries to the tax authority.
package authority

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/invoice_registry/internal/core/domain"
	portssvc "github.com/SscSPs/invoice_registry/internal/core/ports/services"
	"github.com/SscSPs/invoice_registry/internal/utils/envelope"
	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	contentTypeXML  = "application/xml; charset=utf-8"
	maxResponseSize = 1 << 20
)

// HTTPConfig configures the HTTP authority client.
type HTTPConfig struct {
	URL     string
	Timeout time.Duration
	// Retries bounds transport-level retries inside one submission attempt.
	Retries int
}

// HTTPClient posts XML envelopes to the authority endpoint.
type HTTPClient struct {
	url    string
	client *retryablehttp.Client
}

var _ portssvc.AuthorityClient = (*HTTPClient)(nil)

// NewHTTPClient creates a client for cfg. Only connection failures are retried
// here; HTTP statuses are classified and returned to the submission service.
func NewHTTPClient(cfg HTTPConfig, logger *slog.Logger) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.RetryMax = max(0, cfg.Retries)
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.Logger = nil
	if logger != nil {
		rc.Logger = logger
	}
	rc.CheckRetry = retryTransportErrors
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return &HTTPClient{url: cfg.URL, client: rc}
}

func retryTransportErrors(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	return err != nil, nil
}

// Submit sends one envelope. Errors mean the outcome is unknown.
func (c *HTTPClient) Submit(ctx context.Context, payload []byte) (domain.AuthorityOutcome, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.url, payload)
	if err != nil {
		return domain.AuthorityOutcome{}, errors.Wrap(err, "build authority request")
	}
	req.Header.Set("Content-Type", contentTypeXML)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.AuthorityOutcome{}, errors.Wrap(err, "call authority")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return domain.AuthorityOutcome{}, errors.Wrap(err, "read authority response")
	}
	return classify(resp.StatusCode, body), nil
}

// classify maps an HTTP reply onto an outcome.
func classify(status int, body []byte) domain.AuthorityOutcome {
	raw := string(body)
	switch {
	case status == http.StatusOK:
		reply, err := envelope.DecodeResponse(body)
		if err != nil {
			return domain.AuthorityOutcome{Kind: domain.OutcomeTransient, Reason: err.Error(), RawResponse: raw}
		}
		if reply.Accepted() {
			return domain.AuthorityOutcome{Kind: domain.OutcomeAccepted, Code: reply.Code, RawResponse: raw}
		}
		return domain.AuthorityOutcome{Kind: domain.OutcomeRejected, Reason: reply.Reason(), RawResponse: raw}
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return domain.AuthorityOutcome{Kind: domain.OutcomeTransient, Reason: fmt.Sprintf("authority returned %d", status), RawResponse: raw}
	case status >= 400:
		reason := strings.TrimSpace(raw)
		if reason == "" {
			reason = http.StatusText(status)
		}
		return domain.AuthorityOutcome{Kind: domain.OutcomeRejected, Reason: fmt.Sprintf("%d %s", status, reason), RawResponse: raw}
	default:
		return domain.AuthorityOutcome{Kind: domain.OutcomeTransient, Reason: fmt.Sprintf("unexpected authority status %d", status), RawResponse: raw}
	}
}

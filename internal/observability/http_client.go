package observability

import (
	"net/http"
	"net/url"
	"time"

	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

func WrapRoundTripper(base http.RoundTripper, targets ...string) http.RoundTripper {
	return sentryhttpclient.NewSentryRoundTripper(
		base,
		sentryhttpclient.WithTracePropagationTargets(targets),
	)
}

// NewHTTPClient builds an instrumented client that propagates traces to
// the given hosts. baseURLs that fail to parse are skipped.
func NewHTTPClient(timeout time.Duration, baseURLs ...string) *http.Client {
	targets := make([]string, 0, len(baseURLs))
	for _, raw := range baseURLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		targets = append(targets, parsed.Hostname())
	}

	client := &http.Client{
		Transport: WrapRoundTripper(http.DefaultTransport, targets...),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}

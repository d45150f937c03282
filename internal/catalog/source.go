package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

const (
	productsPath             = "/api/v1/sweets/"
	defaultTimeout           = 10 * time.Second
	errorBodyReadLimit int64 = 1024
)

// Source delivers the full product catalog.
type Source interface {
	FetchAll(ctx context.Context) ([]Product, error)
}

// HTTPSource pulls the catalog from the storefront REST backend.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional source behavior.
type Option func(*HTTPSource)

// WithTimeout sets the per request timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(s *HTTPSource) {
		if timeout > 0 {
			s.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewHTTPSource builds a catalog source rooted at baseURL.
func NewHTTPSource(baseURL string, opts ...Option) (*HTTPSource, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog base url is required")
	}
	source := &HTTPSource{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(source)
		}
	}
	return source, nil
}

// FetchAll returns every product currently listed by the backend.
func (s *HTTPSource) FetchAll(ctx context.Context) ([]Product, error) {
	if s == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "catalog source not configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+productsPath, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed")
	}

	var products []Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode catalog response")
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// pollinationsAdapter encodes the keyless Pollinations contract: a GET
// request with the URL-encoded prompt embedded in the path, the model as a
// query parameter, and the plain-text answer as the whole response body.
// There is no error envelope; any non-success status is a provider failure.
type pollinationsAdapter struct{}

var _ adapter = (*pollinationsAdapter)(nil)

func (a *pollinationsAdapter) generate(ctx context.Context, hc *http.Client, p Provider, id Identity, model, credential, prompt string) (*Response, error) {
	endpoint := strings.TrimRight(id.Endpoint, "/") + "/" + url.PathEscape(prompt)
	if model != "" {
		endpoint += "?model=" + url.QueryEscape(model)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, networkErr(p, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, networkErr(p, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:     KindProvider,
			Provider: p,
			Message:  fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkErr(p, fmt.Errorf("read body: %w", err))
	}
	if len(text) == 0 {
		return nil, &Error{Kind: KindEmptyResponse, Provider: p, Message: "empty response body"}
	}
	return &Response{Text: string(text)}, nil
}

// Package mock provides a test double for the backend dispatcher.
//
// Use Dispatcher in unit tests to feed controlled answers to the pipeline
// without live provider backends, and to assert on the exact prompts that
// were dispatched.
//
// Example:
//
//	d := &mock.Dispatcher{Response: &backend.Response{Text: "OK"}}
//	resp, err := d.Dispatch(ctx, backend.ProviderOpenAI, "", "key", prompt)
package mock

import (
	"context"
	"sync"

	"github.com/parley-ai/parley/pkg/backend"
)

// Call records a single invocation of Dispatch.
type Call struct {
	Provider   backend.Provider
	Model      string
	Credential string
	Prompt     string
}

// Dispatcher is a mock drop-in for [backend.Dispatcher]. Zero values cause
// Dispatch to return (nil, nil); set Response or Err to control the outcome.
type Dispatcher struct {
	mu sync.Mutex

	// Response is returned by Dispatch when Err is nil.
	Response *backend.Response

	// Err, if non-nil, is returned by Dispatch instead of Response.
	Err error

	// Calls records every invocation of Dispatch in order.
	Calls []Call
}

// Dispatch records the call and returns the configured outcome.
func (d *Dispatcher) Dispatch(_ context.Context, provider backend.Provider, model, credential, prompt string) (*backend.Response, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, Call{Provider: provider, Model: model, Credential: credential, Prompt: prompt})
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	return d.Response, nil
}

// CallCount returns the number of recorded Dispatch invocations.
func (d *Dispatcher) CallCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Calls)
}

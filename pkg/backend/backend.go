// Package backend routes an assembled prompt to one of a fixed set of
// interchangeable text-generation providers and normalises every outcome into
// a single response/error contract.
//
// Each provider speaks its own wire dialect — chat-completions JSON with
// Bearer auth, a URL-keyed generateContent call, or a keyless GET with the
// prompt embedded in the path — and each adapter owns that encoding
// completely. Nothing provider-shaped leaks past this package: callers see a
// [Response] or a typed [*Error], never a raw payload.
//
// Dispatch is single-attempt. There are no retries and no cross-provider
// fallback; switching providers is a caller configuration decision.
package backend

import (
	"context"
	"fmt"
	"net/http"
)

// Provider identifies one of the supported text-generation backends.
type Provider string

const (
	// ProviderPollinations is the keyless free-tier backend.
	ProviderPollinations Provider = "pollinations"

	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
	ProviderOpenRouter Provider = "openrouter"
	ProviderGroq       Provider = "groq"
)

// Providers lists every supported provider in a stable order.
func Providers() []Provider {
	return []Provider{
		ProviderPollinations,
		ProviderOpenAI,
		ProviderGemini,
		ProviderOpenRouter,
		ProviderGroq,
	}
}

// IsValid reports whether p is a recognised provider.
func (p Provider) IsValid() bool {
	_, ok := identities[p]
	return ok
}

// Identity is the static configuration of a provider: how it is displayed,
// where it lives, and whether it needs a credential. The endpoint may contain
// a "{model}" placeholder that the adapter substitutes per request.
type Identity struct {
	// DisplayName is the human-readable provider name used in error
	// messages and logs.
	DisplayName string

	// Endpoint is the provider's HTTP endpoint template.
	Endpoint string

	// DefaultModel is used when the caller does not select a model.
	DefaultModel string

	// RequiresKey reports whether dispatching to this provider needs a
	// non-empty credential.
	RequiresKey bool
}

// identities is the closed provider table. Adding a provider means adding a
// row here plus an adapter in newAdapters.
var identities = map[Provider]Identity{
	ProviderPollinations: {
		DisplayName: "Pollinations (Free)",
		Endpoint:    "https://text.pollinations.ai/",
		RequiresKey: false,
	},
	ProviderOpenAI: {
		DisplayName:  "OpenAI",
		Endpoint:     "https://api.openai.com/v1/chat/completions",
		DefaultModel: "gpt-4o-mini",
		RequiresKey:  true,
	},
	ProviderGemini: {
		DisplayName:  "Google Gemini",
		Endpoint:     "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent",
		DefaultModel: "gemini-1.5-flash",
		RequiresKey:  true,
	},
	ProviderOpenRouter: {
		DisplayName:  "OpenRouter",
		Endpoint:     "https://openrouter.ai/api/v1/chat/completions",
		DefaultModel: "google/gemini-flash-1.5",
		RequiresKey:  true,
	},
	ProviderGroq: {
		DisplayName:  "Groq",
		Endpoint:     "https://api.groq.com/openai/v1/chat/completions",
		DefaultModel: "llama-3.1-8b-instant",
		RequiresKey:  true,
	},
}

// Lookup returns the static [Identity] for p.
func Lookup(p Provider) (Identity, bool) {
	id, ok := identities[p]
	return id, ok
}

// Response is a successful generation result.
type Response struct {
	// Text is the generated answer. Never empty on success; a success
	// status with no extractable text is reported as a [KindEmptyResponse]
	// error instead.
	Text string
}

// adapter encodes one provider's wire contract. Implementations issue exactly
// one HTTP request per generate call and translate every outcome into either
// a [Response] or a [*Error].
type adapter interface {
	generate(ctx context.Context, hc *http.Client, p Provider, id Identity, model, credential, prompt string) (*Response, error)
}

// Dispatcher validates the provider selection and routes prompts to the
// matching adapter. Safe for concurrent use.
type Dispatcher struct {
	httpClient *http.Client
	adapters   map[Provider]adapter
	endpoints  map[Provider]string
}

// DispatcherOption is a functional option for [NewDispatcher].
type DispatcherOption func(*Dispatcher)

// WithHTTPClient replaces the HTTP client used for all provider calls. The
// dispatcher enforces no timeout of its own; set one on the client if the
// transport's default is not acceptable.
func WithHTTPClient(hc *http.Client) DispatcherOption {
	return func(d *Dispatcher) {
		if hc != nil {
			d.httpClient = hc
		}
	}
}

// WithEndpoint overrides the endpoint template for a single provider.
// Intended for tests and self-hosted gateways; the override must keep the
// provider's placeholder structure (e.g. "{model}" for Gemini).
func WithEndpoint(p Provider, endpoint string) DispatcherOption {
	return func(d *Dispatcher) {
		d.endpoints[p] = endpoint
	}
}

// NewDispatcher creates a ready-to-use [Dispatcher].
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		httpClient: &http.Client{},
		adapters:   newAdapters(),
		endpoints:  make(map[Provider]string),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// newAdapters builds the closed adapter set, one per provider.
func newAdapters() map[Provider]adapter {
	return map[Provider]adapter{
		ProviderPollinations: &pollinationsAdapter{},
		ProviderOpenAI:       &chatAdapter{},
		ProviderOpenRouter: &chatAdapter{extraHeaders: map[string]string{
			"HTTP-Referer": "https://github.com/parley-ai/parley",
			"X-Title":      "Parley",
		}},
		ProviderGroq:   &chatAdapter{},
		ProviderGemini: &geminiAdapter{},
	}
}

// Dispatch routes prompt to the selected provider and returns the normalised
// result. model falls back to the provider's default when empty.
//
// A key-required provider with an empty credential is rejected with a
// [KindConfiguration] error before any network I/O. Exactly one HTTP request
// is issued otherwise; its outcome is a [Response] or a [*Error] of kind
// Network, Provider, or EmptyResponse.
func (d *Dispatcher) Dispatch(ctx context.Context, provider Provider, model, credential, prompt string) (*Response, error) {
	id, ok := identities[provider]
	if !ok {
		return nil, &Error{
			Kind:     KindConfiguration,
			Provider: provider,
			Message:  fmt.Sprintf("unknown provider %q", provider),
		}
	}
	if id.RequiresKey && credential == "" {
		return nil, &Error{
			Kind:     KindConfiguration,
			Provider: provider,
			Message:  "missing API credential",
		}
	}
	if model == "" {
		model = id.DefaultModel
	}
	if override, ok := d.endpoints[provider]; ok {
		id.Endpoint = override
	}

	return d.adapters[provider].generate(ctx, d.httpClient, provider, id, model, credential, prompt)
}

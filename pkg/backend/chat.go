package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// chatAdapter encodes the OpenAI-style chat-completions contract shared by
// OpenAI, OpenRouter, and Groq: a JSON POST with Bearer authentication, the
// prompt carried as a single system message, errors reported in an
// {"error": {"message": ...}} envelope, and the answer at
// choices[0].message.content.
type chatAdapter struct {
	// extraHeaders are provider-specific headers added to every request
	// (OpenRouter requires attribution headers).
	extraHeaders map[string]string
}

var _ adapter = (*chatAdapter)(nil)

// chatRequest is the outbound chat-completions body.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the inbound chat-completions body. Error and Choices are
// mutually exclusive in practice; Error wins when both appear.
type chatResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (a *chatAdapter) generate(ctx context.Context, hc *http.Client, p Provider, id Identity, model, credential, prompt string) (*Response, error) {
	body, err := json.Marshal(chatRequest{
		Model:    model,
		Messages: []chatMessage{{Role: "system", Content: prompt}},
	})
	if err != nil {
		return nil, networkErr(p, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, id.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, networkErr(p, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	for k, v := range a.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, networkErr(p, err)
	}
	defer resp.Body.Close()

	// Chat-completions backends report structured errors with non-2xx
	// statuses, so the body is decoded before the status is judged.
	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &Error{
			Kind:     KindProvider,
			Provider: p,
			Message:  fmt.Sprintf("undecodable response (status %d)", resp.StatusCode),
		}
	}
	if result.Error != nil {
		return nil, &Error{Kind: KindProvider, Provider: p, Message: result.Error.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:     KindProvider,
			Provider: p,
			Message:  fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, &Error{Kind: KindEmptyResponse, Provider: p, Message: "no choices in response"}
	}
	return &Response{Text: result.Choices[0].Message.Content}, nil
}

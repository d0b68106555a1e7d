package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Generation settings for Gemini. The output cap mirrors the short-answer
// constraint baked into the prompt template.
const (
	geminiTemperature     = 0.7
	geminiMaxOutputTokens = 256
)

// geminiAdapter encodes the Google Generative Language generateContent
// contract: the model is part of the URL path, the API key travels as a
// query parameter rather than a header, and the answer sits at
// candidates[0].content.parts[0].text.
type geminiAdapter struct{}

var _ adapter = (*geminiAdapter)(nil)

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (a *geminiAdapter) generate(ctx context.Context, hc *http.Client, p Provider, id Identity, model, credential, prompt string) (*Response, error) {
	endpoint := strings.ReplaceAll(id.Endpoint, "{model}", url.PathEscape(model))
	endpoint += "?key=" + url.QueryEscape(credential)

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			Temperature:     geminiTemperature,
			MaxOutputTokens: geminiMaxOutputTokens,
		},
	})
	if err != nil {
		return nil, networkErr(p, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, networkErr(p, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, networkErr(p, err)
	}
	defer resp.Body.Close()

	var result geminiResponse
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
	if len(result.Candidates) == 0 ||
		len(result.Candidates[0].Content.Parts) == 0 ||
		result.Candidates[0].Content.Parts[0].Text == "" {
		return nil, &Error{Kind: KindEmptyResponse, Provider: p, Message: "no response generated"}
	}
	return &Response{Text: result.Candidates[0].Content.Parts[0].Text}, nil
}

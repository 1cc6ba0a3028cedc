package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"google.golang.org/genai"

	"github.com/unowned-ai/nutriscan/pkg/utils"
)

const DefaultModel = "gemini-2.5-flash"

var ErrMissingAPIKey = errors.New("GEMINI_API_KEY is not set")

// Gemini is the Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAIRequestFailed, err)
	}
	return &Gemini{client: client, model: model, logger: utils.Component(logger, "ai")}, nil
}

func (g *Gemini) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents(req), config(req))
	if err != nil {
		g.logger.Warn("generate failed", "model", g.model, "error", err)
		return Response{}, fmt.Errorf("%w: %v", ErrAIRequestFailed, err)
	}
	text := resp.Text()
	if text == "" {
		return Response{}, fmt.Errorf("%w: empty response", ErrAIRequestFailed)
	}
	return Response{Text: text, Sources: sources(resp)}, nil
}

func (g *Gemini) Stream(ctx context.Context, req Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents(req), config(req)) {
			if err != nil {
				g.logger.Warn("stream failed", "model", g.model, "error", err)
				yield("", fmt.Errorf("%w: %v", ErrAIRequestFailed, err))
				return
			}
			if text := resp.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func contents(req Request) []*genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func config(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}
	if req.Grounded {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

func sources(resp *genai.GenerateContentResponse) []Source {
	var out []Source
	for _, cand := range resp.Candidates {
		if cand == nil || cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			out = append(out, Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}
	return out
}

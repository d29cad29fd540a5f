// Package gemini drafts content with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/xraph/scribe/generation"
)

const DefaultModel = "gemini-2.5-flash"

const systemInstruction = "You are an SEO copywriter. Write original, well-structured articles in plain Markdown. Never copy text from existing sources."

// Generator implements generation.Generator on the Gemini API.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ generation.Generator = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) { g.temperature = t }
}

// New creates a Generator authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Generator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	g := &Generator{
		client:      client,
		model:       DefaultModel,
		temperature: 0.7,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate sends the rendered prompt and parses the reply into a draft.
func (g *Generator) Generate(ctx context.Context, req generation.Request) (*generation.Draft, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(generation.BuildPrompt(req), genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(g.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini: empty response")
	}

	title, body := generation.ParseDraft(text)
	if body == "" {
		body, title = title, req.Topic
	}
	return &generation.Draft{Title: title, Body: body, Model: g.model, WordCount: len(strings.Fields(body))}, nil
}

// Name returns the generator name.
func (g *Generator) Name() string {
	return "gemini:" + g.model
}

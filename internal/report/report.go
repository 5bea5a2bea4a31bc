// Package report generates a short narrative report about the board via the
// Gemini API. The feature is optional: without an API key no generator is
// constructed and the rest of the system runs unaffected.
package report

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/nuvemlab/nuvem/internal/config"
	"github.com/nuvemlab/nuvem/internal/models"
)

// Generator produces a free-form report from the current prompt, the
// submitted entries, and the top-token statistics.
type Generator interface {
	Generate(ctx context.Context, prompt string, entries []models.Entry, top []models.WordCount) (string, error)
}

// GeminiGenerator implements Generator against the Gemini API.
type GeminiGenerator struct {
	client     *genai.Client
	model      string
	maxSamples int
}

// NewGeminiGenerator creates a generator from report config. It returns
// (nil, nil) when no API key is configured: the capability is resolved once
// at startup and absence is a normal branch, not an error.
func NewGeminiGenerator(ctx context.Context, cfg config.ReportConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiGenerator{
		client:     client,
		model:      cfg.Model,
		maxSamples: cfg.MaxSampleEntries,
	}, nil
}

// Generate asks Gemini for a short report. Failures are returned to the
// caller as errors to surface as a message; they are never fatal.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, entries []models.Entry, top []models.WordCount) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildPrompt(prompt, entries, top, g.maxSamples), genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("report generation failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("report generation returned no text")
	}
	return text, nil
}

// BuildPrompt assembles the instruction sent to the model: the board prompt,
// the top-token statistics, and at most maxSamples raw entries.
func BuildPrompt(prompt string, entries []models.Entry, top []models.WordCount, maxSamples int) string {
	var b strings.Builder
	b.WriteString("Você é um facilitador resumindo uma dinâmica de nuvem de palavras.\n")
	b.WriteString("Escreva um relatório curto (3 a 5 parágrafos, em português) sobre as respostas abaixo.\n\n")
	fmt.Fprintf(&b, "Pergunta exibida ao público: %s\n\n", prompt)

	if len(top) > 0 {
		b.WriteString("Palavras mais frequentes:\n")
		for _, wc := range top {
			fmt.Fprintf(&b, "- %s: %d\n", wc.Word, wc.Count)
		}
		b.WriteString("\n")
	}

	sampled := entries
	if maxSamples > 0 && len(sampled) > maxSamples {
		sampled = sampled[len(sampled)-maxSamples:]
	}
	fmt.Fprintf(&b, "Respostas (%d de %d):\n", len(sampled), len(entries))
	for _, entry := range sampled {
		fmt.Fprintf(&b, "- %s\n", entry.Text)
	}
	return b.String()
}

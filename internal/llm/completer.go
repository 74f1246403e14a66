package llm

import (
	"context"
	"errors"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// Completer is the text-completion capability the agent components consume.
// Short is the deterministic low-budget mode (classification, tagging);
// Generate is the longer mode (SQL and content generation).
type Completer interface {
	Short(ctx context.Context, prompt string) (string, error)
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini backs Completer with the Gemini API through langchaingo.
type Gemini struct {
	Client llms.Model
}

// NewGemini initializes the Gemini client from GEMINI_API_KEY.
func NewGemini(ctx context.Context) (*Gemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, err
	}
	return &Gemini{Client: client}, nil
}

func (g *Gemini) Short(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.Client, prompt,
		llms.WithTemperature(0),
		llms.WithMaxTokens(400),
	)
}

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, g.Client, prompt,
		llms.WithTemperature(0),
		llms.WithMaxTokens(1024),
	)
}

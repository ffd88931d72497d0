package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/atvirokodosprendimai/realmforge/internal/domain"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// gameMasterPrompt constrains every generation: a short immersive
// description followed by one machine-parsable label line.
const gameMasterPrompt = `You are the Game Master for a text-based MUD driven by player actions.
Goals:
- Be immersive, but concise. 2-3 vivid sentences max.
- After the description, answer the player's request in a SHORT label.
- The label should be as brief as possible:
   - If player asks "Where am I?" -> location: Shadow Forest
   - If player asks about items -> items: dagger
- Do NOT list exits/items unless asked.
- Only describe what is currently relevant to the player's command.
- No long paragraphs, no inner monologues, no assumptions about intent.

You MUST follow this output format:

[2-3 sentence immersive description]
[label: the shortest possible answer that still matches the description]`

const (
	defaultModel           = "gemini-2.5-pro"
	defaultTemperature     = 0.8
	defaultMaxOutputTokens = 500
)

type Config struct {
	APIKey          string
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// GeminiGenerator implements domain.TextGenerator over the Gemini API.
// Model choice, sampling temperature and output cap are adapter
// configuration; callers only see prompts, text and GenerationError.
type GeminiGenerator struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiGenerator(ctx context.Context, cfg Config) (*GeminiGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = defaultMaxOutputTokens
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)
	model.SetMaxOutputTokens(cfg.MaxOutputTokens)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(gameMasterPrompt)}}

	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func (g *GeminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &domain.GenerationError{Message: err.Error()}
	}
	text := responseText(resp)
	if text == "" {
		return "", &domain.GenerationError{Message: "no response generated"}
	}
	return text, nil
}

func (g *GeminiGenerator) GenerateTextStream(ctx context.Context, prompt string, emit func(chunk string) error) error {
	iter := g.model.GenerateContentStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return &domain.GenerationError{Message: err.Error()}
		}
		chunk := responseText(resp)
		if chunk == "" {
			continue
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

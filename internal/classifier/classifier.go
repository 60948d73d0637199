package classifier

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/shared"
	"github.com/sashabaranov/go-openai"
)

// Classifier assigns genres to a single track.
type Classifier interface {
	Classify(ctx context.Context, track models.Track) (models.Classification, error)
}

// ChatCompleter is the subset of [openai.Client] used by [LLMClassifier].
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMClassifier classifies tracks with an OpenAI-compatible chat completion endpoint.
type LLMClassifier struct {
	client       ChatCompleter
	model        string
	instructions []string
	logger       *log.Logger
}

// NewLLMClassifier creates a classifier for the endpoint described by cfg.
func NewLLMClassifier(cfg shared.ModelConfig, logger *log.Logger) (*LLMClassifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: model api key", shared.ErrMissingCredentials)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model id is empty", shared.ErrInvalidConfig)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return NewLLMClassifierWithClient(openai.NewClientWithConfig(clientConfig), cfg.Model, cfg.Instructions, logger), nil
}

// NewLLMClassifierWithClient creates a classifier around an existing [ChatCompleter].
func NewLLMClassifierWithClient(client ChatCompleter, model string, instructions []string, logger *log.Logger) *LLMClassifier {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LLMClassifier{
		client:       client,
		model:        model,
		instructions: instructions,
		logger:       logger,
	}
}

// Prompt builds the question sent to the model for track.
func Prompt(track models.Track) string {
	return fmt.Sprintf("What is the genre of the song '%s' by %s?", track.Title, track.Artist)
}

// Classify asks the model for the genre of track and parses the reply.
func (c *LLMClassifier) Classify(ctx context.Context, track models.Track) (models.Classification, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(c.instructions)+1)
	for _, instruction := range c.instructions {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: Prompt(track),
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: %v", shared.ErrClassifierRequest, err)
	}

	var reply string
	if len(resp.Choices) > 0 {
		reply = resp.Choices[0].Message.Content
	}

	cleaned := StripFormatting(reply)
	result := models.Classification{
		Track:  track,
		Genres: Parse(cleaned),
		Reply:  cleaned,
	}

	c.logger.Debug("classified track", "track", track.String(), "reply", cleaned, "genres", models.JoinGenres(result.Genres))
	return result, nil
}

// ClassifyBatch classifies tracks in order and returns exactly one classification per track.
// The first error aborts the batch.
func ClassifyBatch(ctx context.Context, c Classifier, tracks []models.Track) ([]models.Classification, error) {
	out := make([]models.Classification, 0, len(tracks))
	for _, track := range tracks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := c.Classify(ctx, track)
		if err != nil {
			return nil, fmt.Errorf("classifying %s: %w", track.String(), err)
		}
		out = append(out, result)
	}
	return out, nil
}

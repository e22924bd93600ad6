package chat

import (
	"context"
	"fmt"

	"yt-chat/errors"
	"yt-chat/models"
	"yt-chat/repository"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are a helpful assistant answering questions about a video transcript. Base every answer strictly on the transcript the user provides. If the transcript does not contain the answer, say so instead of guessing.
`

type Config struct {
	APIKey             string
	Model              string
	MaxTranscriptChars int
}

// Service answers questions about a completed video's transcript.
type Service struct {
	repo   repository.VideoRepository
	client *openai.Client
	config Config
	logger zerolog.Logger
}

func NewService(repo repository.VideoRepository, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTranscriptChars <= 0 {
		cfg.MaxTranscriptChars = 48000
	}

	var client *openai.Client
	if cfg.APIKey != "" {
		client = openai.NewClient(cfg.APIKey)
	}

	return &Service{
		repo:   repo,
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Ask answers a question grounded on the transcript of the given video.
// The video must have completed processing.
func (s *Service) Ask(ctx context.Context, videoID int64, question string) (string, error) {
	const op = "ChatService.Ask"

	if question == "" {
		return "", errors.InvalidInput(op, nil, "Question is required")
	}
	if s.client == nil {
		return "", errors.Internal(op, nil, "Chat is not configured")
	}

	video, err := s.repo.Find(ctx, videoID)
	if err != nil {
		return "", err
	}
	if video.Status != models.StatusCompleted {
		return "", errors.Conflict(op, nil, "Video has not finished processing")
	}

	transcript, err := s.repo.FindTranscript(ctx, videoID)
	if err != nil {
		return "", err
	}

	content := transcript.Content
	if len(content) > s.config.MaxTranscriptChars {
		content = content[:s.config.MaxTranscriptChars]
	}

	logger := s.logger.With().
		Str("operation", op).
		Int64("video_id", videoID).
		Logger()
	logger.Info().Msg("Answering transcript question")

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Transcript of %q:\n\n%s\n\nQuestion: %s", video.Title, content, question),
			},
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Chat completion failed")
		return "", errors.Internal(op, err, "Failed to answer question")
	}

	if len(resp.Choices) == 0 {
		return "", errors.Internal(op, nil, "Chat model returned no choices")
	}

	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}

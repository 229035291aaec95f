package narrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"chronicle/internal/config"
	"chronicle/internal/domain/models"
	"chronicle/internal/storyline"
)

// historyLimit bounds how many user/assistant messages are forwarded
// upstream per turn.
const historyLimit = 20

// Request carries everything a completion needs: the session context for
// persona assembly plus the transcript to window.
type Request struct {
	Storyline *storyline.Storyline
	Character *models.PlayerCharacter
	History   []models.Message
}

// StreamEvent is one fragment of a streamed reply. A non-nil Err terminates
// the stream; the channel is closed after the final event either way.
type StreamEvent struct {
	Token string
	Err   error
}

// Client is the text-completion gateway. A nil upstream client (no
// credential configured) selects the deterministic offline reply.
type Client struct {
	upstream *openai.Client
	model    string
	logger   *slog.Logger
}

// NewClient builds the gateway from configuration. An empty API key is not
// an error; it produces an offline client.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	c := &Client{
		model:  cfg.TextModel,
		logger: logger,
	}

	if cfg.OpenAIAPIKey != "" {
		apiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			apiCfg.BaseURL = cfg.OpenAIBaseURL
		}
		apiCfg.OrgID = cfg.OpenAIOrg
		c.upstream = openai.NewClientWithConfig(apiCfg)
	} else {
		logger.Warn("no OPENAI_API_KEY configured, using deterministic replies")
	}

	return c
}

// Offline reports whether the client runs without an upstream provider.
func (c *Client) Offline() bool {
	return c.upstream == nil
}

// StreamReply returns a channel of reply fragments. Offline mode emits the
// whole deterministic reply as a single fragment, mirroring how a one-chunk
// stream behaves, so callers exercise the same path either way.
func (c *Client) StreamReply(ctx context.Context, req *Request) (<-chan StreamEvent, error) {
	if c.upstream == nil {
		events := make(chan StreamEvent, 1)
		events <- StreamEvent{Token: DeterministicReply(req.History, req.Storyline, req.Character)}
		close(events)
		return events, nil
	}

	stream, err := c.upstream.CreateChatCompletionStream(ctx, c.buildRequest(req, true))
	if err != nil {
		return nil, fmt.Errorf("open completion stream: %w", err)
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				events <- StreamEvent{Err: fmt.Errorf("read completion stream: %w", err)}
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			if token := resp.Choices[0].Delta.Content; token != "" {
				events <- StreamEvent{Token: token}
			}
		}
	}()

	return events, nil
}

// Reply returns the full response body as one blob (non-streaming mode).
func (c *Client) Reply(ctx context.Context, req *Request) (string, error) {
	if c.upstream == nil {
		return DeterministicReply(req.History, req.Storyline, req.Character), nil
	}

	resp, err := c.upstream.CreateChatCompletion(ctx, c.buildRequest(req, false))
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *Client) buildRequest(req *Request, stream bool) openai.ChatCompletionRequest {
	persona := BuildPersona(req.Storyline, req.Character)
	window := HistoryWindow(req.History, historyLimit)

	messages := make([]openai.ChatCompletionMessage, 0, len(window)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: persona,
	})
	for _, m := range window {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: 0.7,
		Stream:      stream,
	}
}

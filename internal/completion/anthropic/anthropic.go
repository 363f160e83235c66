// Package anthropic streams completions from the Anthropic Messages API as
// an alternative to the gateway backend.
package anthropic

import (
	"context"
	"errors"
	"strings"

	anthropicsdk "github.com/liushuangls/go-anthropic/v2"

	"github.com/teuglobal/htspilot/internal/completion"
)

// maxTokens leaves ample room for the narrative report plus the structured
// analysis block (typically under 2k tokens combined).
const maxTokens = 4096

type Client struct {
	client *anthropicsdk.Client
	model  string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		client: anthropicsdk.NewClient(apiKey),
		model:  model,
	}
}

// buildMessages constructs the single user turn for a completion call. The
// image block precedes the text block so the model reads the picture first.
func buildMessages(req completion.Request) []anthropicsdk.Message {
	var content []anthropicsdk.MessageContent
	if req.Image != nil {
		content = append(content, anthropicsdk.NewImageMessageContent(
			anthropicsdk.NewMessageContentSource(
				anthropicsdk.MessagesContentSourceTypeBase64,
				req.Image.MimeType,
				req.Image.Data,
			),
		))
	}
	content = append(content, anthropicsdk.NewTextMessageContent(req.Prompt))
	return []anthropicsdk.Message{{
		Role:    anthropicsdk.RoleUser,
		Content: content,
	}}
}

// Stream implements completion.Streamer.
func (c *Client) Stream(ctx context.Context, req completion.Request, onChunk completion.ChunkFunc) (string, error) {
	temperature := req.Temperature

	var full strings.Builder
	_, err := c.client.CreateMessagesStream(ctx, anthropicsdk.MessagesStreamRequest{
		MessagesRequest: anthropicsdk.MessagesRequest{
			Model:       anthropicsdk.Model(c.model),
			MaxTokens:   maxTokens,
			Temperature: &temperature,
			Messages:    buildMessages(req),
		},
		OnContentBlockDelta: func(data anthropicsdk.MessagesEventContentBlockDeltaData) {
			if data.Delta.Text == nil {
				return
			}
			full.WriteString(*data.Delta.Text)
			if onChunk != nil {
				onChunk(*data.Delta.Text)
			}
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return full.String(), completion.CancelOrTransport(ctx, err)
		}
		var apiErr *anthropicsdk.APIError
		if errors.As(err, &apiErr) {
			return full.String(), &completion.TransportError{Message: apiErr.Message}
		}
		return full.String(), &completion.TransportError{Message: err.Error()}
	}
	return full.String(), nil
}

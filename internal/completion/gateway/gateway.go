// Package gateway streams completions from the text-proxy backend: a POST
// that answers with a plain chunked text stream and, on failure, a JSON body
// carrying an "error" message.
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/teuglobal/htspilot/internal/completion"
)

// readSize is the transport read granularity. Chunk boundaries seen by the
// caller follow network framing, not this constant.
const readSize = 4096

type Client struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewClient(baseURL, model string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

// request mirrors the proxy's generate endpoint. Contents is either the bare
// prompt string or a multi-part array when an image rides along.
type request struct {
	Contents any    `json:"contents"`
	Config   config `json:"config"`
	Model    string `json:"model"`
}

type config struct {
	Temperature float32 `json:"temperature,omitempty"`
}

type part struct {
	InlineData *inlineData `json:"inlineData,omitempty"`
	Text       string      `json:"text,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type errorBody struct {
	Error string `json:"error"`
}

// buildContents constructs the request contents for a completion call. The
// image part precedes the text part so the model reads the picture first.
func buildContents(req completion.Request) any {
	if req.Image == nil {
		return req.Prompt
	}
	return []part{
		{InlineData: &inlineData{
			MimeType: req.Image.MimeType,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}},
		{Text: req.Prompt},
	}
}

// Stream implements completion.Streamer.
func (c *Client) Stream(ctx context.Context, req completion.Request, onChunk completion.ChunkFunc) (string, error) {
	payload, err := json.Marshal(request{
		Contents: buildContents(req),
		Config:   config{Temperature: req.Temperature},
		Model:    c.model,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", completion.CancelOrTransport(ctx, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close gateway response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", readError(resp)
	}

	return c.readStream(ctx, resp.Body, onChunk)
}

// readStream drains body into a concatenated string, handing each decoded
// fragment to onChunk. The context is checked before every read so a cancel
// stops chunk delivery even while the transfer is still open. Incomplete
// trailing UTF-8 sequences are held back until the next read so fragments
// stay valid text even when the network splits a rune.
func (c *Client) readStream(ctx context.Context, body io.Reader, onChunk completion.ChunkFunc) (string, error) {
	var full strings.Builder
	var held []byte
	buf := make([]byte, readSize)

	emit := func(b []byte) {
		if len(b) == 0 {
			return
		}
		s := string(b)
		full.WriteString(s)
		if onChunk != nil {
			onChunk(s)
		}
	}

	for {
		if ctx.Err() != nil {
			return full.String(), completion.CancelOrTransport(ctx, ctx.Err())
		}

		n, err := body.Read(buf)
		if n > 0 {
			held = append(held, buf[:n]...)
			cut := completeBoundary(held)
			emit(held[:cut])
			held = append(held[:0], held[cut:]...)
		}
		if err == io.EOF {
			emit(held)
			return full.String(), nil
		}
		if err != nil {
			return full.String(), completion.CancelOrTransport(ctx, err)
		}
	}
}

// completeBoundary returns the longest prefix of b that ends on a complete
// UTF-8 sequence. Bytes past the boundary belong to a rune still in flight.
func completeBoundary(b []byte) int {
	start := len(b)
	for start > 0 && !utf8.RuneStart(b[start-1]) {
		start--
	}
	if start == 0 {
		return len(b)
	}
	start--
	if utf8.FullRune(b[start:]) || len(b)-start >= utf8.UTFMax {
		return len(b)
	}
	return start
}

// readError extracts a human-readable message from a non-2xx response,
// falling back to the raw body when it is not the expected JSON shape.
func readError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &completion.TransportError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &completion.TransportError{StatusCode: resp.StatusCode, Message: msg}
}

package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teuglobal/htspilot/internal/completion"
	"github.com/teuglobal/htspilot/internal/domain"
)

func TestBuildMessagesTextOnly(t *testing.T) {
	msgs := buildMessages(completion.Request{Prompt: "classify a cotton t-shirt"})

	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 1)
	assert.Equal(t, "classify a cotton t-shirt", msgs[0].Content[0].GetText())
}

func TestBuildMessagesWithImage(t *testing.T) {
	msgs := buildMessages(completion.Request{
		Prompt: "classify this",
		Image:  &domain.Image{MimeType: "image/jpeg", Data: []byte{0xFF, 0xD8}},
	})

	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Content, 2, "image block precedes the text block")
	assert.NotNil(t, msgs[0].Content[0].Source)
	assert.Equal(t, "classify this", msgs[0].Content[1].GetText())
}

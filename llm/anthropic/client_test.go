package anthropic

import (
	"context"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/require"
)

type fakeMessagesClient struct {
	newFunc func(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

func (f *fakeMessagesClient) New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error) {
	return f.newFunc(ctx, body, opts...)
}

func TestNewRequiresMessagesClient(t *testing.T) {
	_, err := New(nil, Options{DefaultModel: "claude-x"})
	require.Error(t, err)
}

func TestNewRequiresDefaultModel(t *testing.T) {
	_, err := New(&fakeMessagesClient{}, Options{})
	require.Error(t, err)
}

func TestNewDefaultsMaxTokens(t *testing.T) {
	c, err := New(&fakeMessagesClient{}, Options{DefaultModel: "claude-x"})
	require.NoError(t, err)
	require.Equal(t, 4096, c.maxTok)
}

func TestNewFromAPIKeyRequiresKey(t *testing.T) {
	_, err := NewFromAPIKey("", Options{DefaultModel: "claude-x"})
	require.Error(t, err)
}

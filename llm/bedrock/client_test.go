package bedrock

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/require"
)

type fakeRuntimeClient struct{}

func (fakeRuntimeClient) Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	return &bedrockruntime.ConverseOutput{}, nil
}

func TestNewRequiresRuntimeClient(t *testing.T) {
	_, err := New(nil, Options{DefaultModel: "anthropic.claude-x"})
	require.Error(t, err)
}

func TestNewRequiresDefaultModel(t *testing.T) {
	_, err := New(fakeRuntimeClient{}, Options{})
	require.Error(t, err)
}

func TestInferenceConfigNilWhenUnset(t *testing.T) {
	c, err := New(fakeRuntimeClient{}, Options{DefaultModel: "anthropic.claude-x"})
	require.NoError(t, err)
	require.Nil(t, c.inferenceConfig())
}

func TestInferenceConfigSetWhenMaxTokensConfigured(t *testing.T) {
	c, err := New(fakeRuntimeClient{}, Options{DefaultModel: "anthropic.claude-x", MaxTokens: 512})
	require.NoError(t, err)
	cfg := c.inferenceConfig()
	require.NotNil(t, cfg)
	require.EqualValues(t, 512, *cfg.MaxTokens)
}

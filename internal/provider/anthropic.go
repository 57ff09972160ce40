package provider

import (
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const APIVersion = "2023-06-01"

// NewClient returns a client for the given API key. An empty key falls
// back to the SDK's environment lookup (ANTHROPIC_API_KEY).
func NewClient(apiKey string) *anthropic.Client {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	c := anthropic.NewClient(opts...)
	return &c
}

// Model resolves a configured model name, empty meaning DefaultModel.
func Model(name string) anthropic.Model {
	if name == "" {
		return DefaultModel
	}
	return anthropic.Model(name)
}

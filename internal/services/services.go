// Package services holds the adapters between the chat server and the outside world: the hosted
// language-model providers, the news search API and the on-disk news cache.
package services

const errLoggerKey = "err"

// LLMParameters tunes the sampling of a provider. Nil fields keep the provider's default.
type LLMParameters struct {
	Temperature *float32 `yaml:"temperature"`
	TopP        *float32 `yaml:"topP"`
	MaxTokens   *int     `yaml:"maxTokens"`
	Stop        []string `yaml:"stop"`
	Seed        *int     `yaml:"seed"`
}

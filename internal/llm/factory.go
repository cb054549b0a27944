package llm

import (
	"context"
	"fmt"
)

// NewProvider builds the configured provider wrapped as caller → logging → timeout → vendor.
func NewProvider(ctx context.Context, c Config) (Provider, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)

	switch c.Provider {
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, c.Gemini)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(c.OpenAI)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(c.Anthropic)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("init %s provider: %w", c.Provider, err)
	}

	return WithLogging(WithTimeout(base, c.Timeout)), nil
}

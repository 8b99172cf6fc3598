// Package llm provides options pattern for LLM generation parameters.
package llm

// GenerateOptions holds parameters for a single chat-completion request.
// Zero values mean "use the provider default".
type GenerateOptions struct {
	// Model overrides the provider's configured model.
	Model string

	// Temperature controls randomness (0.0 - 2.0). nil keeps the provider default.
	Temperature *float64

	// MaxTokens limits the response length.
	MaxTokens int

	// Functions is the tool schema list for structured (function-calling) mode.
	// Empty means plain text completion.
	Functions []FunctionDef
}

// GenerateOption is a functional option for configuring GenerateOptions.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model for generation.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithTemperature sets the temperature for generation.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = &temp
	}
}

// WithMaxTokens sets the maximum tokens for generation.
func WithMaxTokens(tokens int) GenerateOption {
	return func(o *GenerateOptions) {
		o.MaxTokens = tokens
	}
}

// WithFunctions attaches function definitions (structured mode).
func WithFunctions(defs []FunctionDef) GenerateOption {
	return func(o *GenerateOptions) {
		o.Functions = defs
	}
}

// ApplyOptions folds opts into a GenerateOptions value.
func ApplyOptions(opts ...GenerateOption) GenerateOptions {
	var o GenerateOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

package speech

import "fmt"

// Engine names accepted by New.
const (
	EngineCommand = "command"
	EngineOpenAI  = "openai"
)

// New builds the speaker for engine.
func New(engine string, opts ...Option) (Speaker, error) {
	switch engine {
	case "", EngineCommand:
		return NewCommand(opts...)
	case EngineOpenAI:
		return NewOpenAI(opts...)
	default:
		return nil, fmt.Errorf("speech: unknown engine %q", engine)
	}
}

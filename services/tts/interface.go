package tts

import "context"

// Synthesizer turns text into spoken audio bytes (MP3).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

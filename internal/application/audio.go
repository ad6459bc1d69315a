package application

import (
	"context"

	"voicebank/internal/domain"
)

type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextRequest(ctx context.Context) (*domain.Request, error)
	Name() string
}

type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

func DefaultAudioFormat() AudioFormat {
	return AudioFormat{
		SampleRate: 16000,
		Channels:   1,
		BitDepth:   16,
	}
}

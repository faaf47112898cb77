// Package audio provides the playback voices driven by the tape
// engine: a sampled voice backed by per-note recordings fetched over
// HTTP, and a synthesized fallback used when the samples cannot be
// loaded.
package audio

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/sdk/tape"
)

// Output is the platform audio device the voices render through. Start
// is handed a PCM buffer (44.1 kHz, mono, 16-bit little-endian) that
// the device loops until Stop; bounding the sounding time is the tape
// engine's job, not the device's.
type Output interface {
	Start(noteID string, pcm []byte, velocity float64)
	Stop(noteID string, cause tape.StopCause)
}

// LoadVoice builds the voice for a bank: it tries to fetch the bank's
// samples and falls back to the synthesized voice if loading fails.
// Sample-load failure is a degraded mode, not an error, so the caller
// always gets a usable voice.
func LoadVoice(ctx context.Context, client *http.Client, baseURL string, bank Bank, out Output, logger *zap.Logger) tape.Voice {
	voice, err := NewSampledVoice(ctx, client, baseURL, bank, out, logger)
	if err != nil {
		logger.Warn("sample bank load failed, using synthesized voice",
			zap.String("bank", bank.ID), zap.Error(err))
		return NewSynthVoice(out, logger)
	}
	logger.Info("sample bank loaded",
		zap.String("bank", bank.ID), zap.Int("samples", len(bank.Samples)))
	return voice
}

package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tapejam/tapejam/sdk/tape"
)

// maxSampleSize caps a single sample download at 8 MiB.
const maxSampleSize = 8 << 20

// SampledVoice plays per-note recordings from a loaded bank.
type SampledVoice struct {
	out     Output
	logger  *zap.Logger
	bankID  string
	samples map[string][]byte // note id -> raw sample data
}

// NewSampledVoice fetches every sample of the bank from
// "<baseURL>/<bank id>/<file>". Any failed fetch aborts the load and
// returns an error; the caller decides whether to fall back.
func NewSampledVoice(ctx context.Context, client *http.Client, baseURL string, bank Bank, out Output, logger *zap.Logger) (*SampledVoice, error) {
	if client == nil {
		client = http.DefaultClient
	}
	samples := make(map[string][]byte, len(bank.Samples))
	for noteID, file := range bank.Samples {
		url := fmt.Sprintf("%s/%s/%s", baseURL, bank.ID, file)
		data, err := fetchSample(ctx, client, url)
		if err != nil {
			return nil, fmt.Errorf("load sample %s: %w", noteID, err)
		}
		samples[noteID] = data
	}
	return &SampledVoice{out: out, logger: logger, bankID: bank.ID, samples: samples}, nil
}

func fetchSample(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSampleSize))
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	return data, nil
}

// TriggerAttack starts the note's sample. Notes outside the bank's
// recorded range are skipped; the keyboard range is expected to match
// the bank.
func (v *SampledVoice) TriggerAttack(noteID string, velocity float64) {
	sample, ok := v.samples[noteID]
	if !ok {
		v.logger.Debug("no sample for note",
			zap.String("bank", v.bankID), zap.String("note", noteID))
		return
	}
	v.out.Start(noteID, sample, velocity)
}

// TriggerRelease stops the note's sample.
func (v *SampledVoice) TriggerRelease(noteID string, cause tape.StopCause) {
	v.out.Stop(noteID, cause)
}

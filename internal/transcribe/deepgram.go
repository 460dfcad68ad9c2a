package transcribe

import (
	"context"
	"os"
	"strings"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/tamo2918/voicord/internal/errdefs"
	"github.com/tamo2918/voicord/internal/resilience"
)

// DeepgramBackend transcribes whole files through Deepgram's prerecorded
// REST API (v3 SDK). Utterances are enabled so timestamped segments come
// back alongside the transcript.
type DeepgramBackend struct {
	client *listenv1rest.Client
	model  string
}

// NewDeepgramBackend creates a backend using the given API key and model.
func NewDeepgramBackend(apiKey, model string) *DeepgramBackend {
	rest := listenClient.NewREST(apiKey, &interfaces.ClientOptions{})
	return &DeepgramBackend{
		client: listenv1rest.New(rest),
		model:  model,
	}
}

// Transcribe implements Backend.
func (d *DeepgramBackend) Transcribe(ctx context.Context, path, language string) (*Result, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errdefs.Newf(errdefs.CodeNotFound, "audio file not found: %s", path)
		}
		return nil, errdefs.Wrapf(err, errdefs.CodeNotFound, "audio file unreadable: %s", path)
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		Language:    language,
		Punctuate:   true,
		SmartFormat: true,
		Utterances:  true,
	}

	var res *api.PreRecordedResponse
	err := resilience.Do(ctx, resilience.DefaultConfig(), resilience.IsTransient, func(ctx context.Context) error {
		var callErr error
		res, callErr = d.client.FromFile(ctx, path, options)
		return callErr
	})
	if err != nil {
		return nil, classifyBackendErr(err)
	}

	if res == nil || len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return nil, errdefs.New(errdefs.CodeBackendError, "deepgram returned no transcription alternatives")
	}

	result := &Result{
		Text: strings.TrimSpace(res.Results.Channels[0].Alternatives[0].Transcript),
	}
	for _, u := range res.Results.Utterances {
		result.Segments = append(result.Segments, Segment{
			Start: u.Start,
			End:   u.End,
			Text:  strings.TrimSpace(u.Transcript),
		})
	}
	return result, nil
}

// classifyBackendErr separates "backend unreachable" from other failures so
// callers can produce an actionable message.
func classifyBackendErr(err error) error {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection refused", "no such host", "timeout", "unauthorized", "401"} {
		if strings.Contains(msg, marker) {
			return errdefs.Wrap(err, errdefs.CodeBackendUnavailable, "transcription backend unavailable")
		}
	}
	return errdefs.Wrap(err, errdefs.CodeBackendError, "transcription failed")
}

package summarize

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tamo2918/voicord/internal/errdefs"
	"github.com/tamo2918/voicord/internal/llm"
	"github.com/tamo2918/voicord/internal/observability"
)

// Stage identifies a phase of the hierarchical reduction for progress
// reporting.
type Stage string

const (
	StageSplitting Stage = "splitting"
	StagePartial   Stage = "partial"
	StageCombining Stage = "combining"
)

// ProgressFunc receives stage transitions. current/total are meaningful for
// StagePartial and zero otherwise. Purely observational.
type ProgressFunc func(stage Stage, current, total int)

// Summarizer reduces arbitrarily long text into a bounded structured summary.
// Text within the character budget is summarized in one call. Oversized text
// is split, each chunk reduced to key points, and the combined key points
// either summarized in a final combine call or recursed on when still over
// budget.
type Summarizer struct {
	client     llm.Client
	charBudget int
	maxDepth   int

	// OnProgress, when set, is called at each stage transition.
	OnProgress ProgressFunc

	log zerolog.Logger
}

const defaultMaxDepth = 8

// NewSummarizer builds a summarizer over the given provider. charBudget is
// the largest input, in runes, sent to the provider in one call. maxDepth
// bounds hierarchical recursion; zero or negative selects the default.
func NewSummarizer(client llm.Client, charBudget, maxDepth int) *Summarizer {
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}
	return &Summarizer{
		client:     client,
		charBudget: charBudget,
		maxDepth:   maxDepth,
		log:        observability.GetLogger().With().Str("component", "summarizer").Logger(),
	}
}

// Summarize produces a structured summary of text in the given language
// ("ja" or "en"). Empty input returns a canned notice without a provider
// call.
func (s *Summarizer) Summarize(ctx context.Context, text, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return emptyTranscriptMessage(language), nil
	}

	rounds := 0
	summary, err := s.reduce(ctx, text, language, 0, &rounds)
	observability.RecordSummarization(err)
	observability.RecordSummarizationRounds(rounds)
	if err != nil {
		return "", err
	}
	return summary, nil
}

func (s *Summarizer) reduce(ctx context.Context, text, language string, depth int, rounds *int) (string, error) {
	textLen := len([]rune(text))

	if textLen <= s.charBudget {
		if depth == 0 {
			return s.generate(ctx, systemFor(fullSystemPrompts, language), fullUserPrompt(text, language))
		}
		s.progress(StageCombining, 0, 0)
		return s.generate(ctx, systemFor(combineSystemPrompts, language), combineUserPrompt(text, language))
	}

	if depth >= s.maxDepth {
		return "", errdefs.Newf(errdefs.CodeBudgetExceeded,
			"summary did not shrink below %d chars after %d rounds", s.charBudget, depth)
	}

	s.progress(StageSplitting, 0, 0)
	chunks := Split(text, s.charBudget)
	*rounds++

	s.log.Info().
		Int("depth", depth).
		Int("chars", textLen).
		Int("chunks", len(chunks)).
		Msg("Input exceeds character budget, reducing hierarchically")

	var partials []string
	for i, chunk := range chunks {
		s.progress(StagePartial, i+1, len(chunks))
		partial, err := s.generate(ctx,
			systemFor(partialSystemPrompts, language),
			partialUserPrompt(chunk, i+1, len(chunks), language))
		if err != nil {
			return "", err
		}
		partials = append(partials, partialLabel(i+1, language)+"\n"+partial)
	}

	combined := strings.Join(partials, "\n\n")
	return s.reduce(ctx, combined, language, depth+1, rounds)
}

func (s *Summarizer) generate(ctx context.Context, system, prompt string) (string, error) {
	out, err := s.client.Generate(ctx, system, prompt)
	if err != nil {
		observability.RecordError("summarizer")
		return "", err
	}
	return out, nil
}

func (s *Summarizer) progress(stage Stage, current, total int) {
	if s.OnProgress != nil {
		s.OnProgress(stage, current, total)
	}
}

// SpeakerText pairs a display name with that speaker's transcript.
type SpeakerText struct {
	Name string
	Text string
}

// SummarizeConversation labels each speaker's transcript and summarizes the
// combined conversation. Speakers with empty transcripts are skipped.
func (s *Summarizer) SummarizeConversation(ctx context.Context, speakers []SpeakerText, language string) (string, error) {
	var parts []string
	for _, sp := range speakers {
		if strings.TrimSpace(sp.Text) == "" {
			continue
		}
		parts = append(parts, "【"+sp.Name+"】\n"+sp.Text)
	}
	if len(parts) == 0 {
		return emptyTranscriptMessage(language), nil
	}
	return s.Summarize(ctx, strings.Join(parts, "\n\n"), language)
}

package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/whisper"
	"aurora-agent/internal/rules"
)

const (
	minVoiceSeconds  = 3
	maxVoiceSeconds  = 60
	maxVoiceHistory  = 50
	maxMFCCCoeffs    = 128
	maxMFCCFrames    = 20000
	defaultAudioName = "recording.webm"
)

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (whisper.Transcript, error)
}

// VoiceService scores stress from acoustic features extracted on the client
// and transcribes recordings.
type VoiceService struct {
	store       VoiceStore
	transcriber Transcriber
	logger      *slog.Logger
	now         func() time.Time
}

type VoiceAnalyzeInput struct {
	// MFCC is coefficients x frames.
	MFCC     [][]float64
	Duration float64
}

type FeatureSummary struct {
	rules.FeatureStats
	Duration float64 `json:"duration"`
}

type VoiceAnalyzeOutput struct {
	ID             string
	Classification rules.VoiceClassification
	Suggestions    []string
	Features       FeatureSummary
	AnalyzedAt     time.Time
	Saved          bool
}

type TranscribeInput struct {
	Filename string
	Audio    []byte
}

// NewVoiceService accepts a nil transcriber; Transcribe then reports the
// feature as unavailable.
func NewVoiceService(store VoiceStore, transcriber Transcriber, logger *slog.Logger) (*VoiceService, error) {
	if store == nil {
		return nil, errors.New("usecase: voice store must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VoiceService{store: store, transcriber: transcriber, logger: logger, now: time.Now}, nil
}

// Analyze classifies the recording. The result is saved for a known requester;
// a failed save is logged and does not fail the request.
func (s *VoiceService) Analyze(ctx context.Context, requester string, in VoiceAnalyzeInput) (VoiceAnalyzeOutput, error) {
	if in.Duration < minVoiceSeconds {
		return VoiceAnalyzeOutput{}, invalid("recording_too_short")
	}
	if in.Duration > maxVoiceSeconds {
		return VoiceAnalyzeOutput{}, invalid("recording_too_long")
	}
	if len(in.MFCC) > maxMFCCCoeffs || (len(in.MFCC) > 0 && len(in.MFCC[0]) > maxMFCCFrames) {
		return VoiceAnalyzeOutput{}, invalid("features_too_large")
	}
	stats, err := rules.ComputeFeatureStats(in.MFCC)
	if err != nil {
		return VoiceAnalyzeOutput{}, newError(ErrorInvalidInput, "invalid_features", err)
	}

	class := rules.ClassifyVoice(stats)
	out := VoiceAnalyzeOutput{
		ID:             newUUID(),
		Classification: class,
		Suggestions:    rules.VoiceSuggestions(class.StressLevel),
		Features:       FeatureSummary{FeatureStats: stats, Duration: in.Duration},
		AnalyzedAt:     s.now().UTC(),
	}

	requester = strings.TrimSpace(requester)
	if requester == "" {
		return out, nil
	}
	err = s.store.Save(ctx, domain.VoiceAnalysis{
		ID:            out.ID,
		UserID:        requester,
		StressLevel:   class.StressLevel,
		Confidence:    class.Confidence,
		Emotion:       class.Emotion,
		EmotionScores: class.EmotionScores,
		Duration:      in.Duration,
		AnalyzedAt:    out.AnalyzedAt,
		Suggestions:   out.Suggestions,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "voice analysis not saved", slog.Any("err", err))
		return out, nil
	}
	out.Saved = true
	return out, nil
}

// History returns the requester's most recent analyses, newest first.
func (s *VoiceService) History(ctx context.Context, requester string) ([]domain.VoiceAnalysis, error) {
	if strings.TrimSpace(requester) == "" {
		return nil, newError(ErrorUnauthenticated, "missing_identity", nil)
	}
	items, err := s.store.ListByUser(ctx, requester, maxVoiceHistory)
	if err != nil {
		return nil, storeError("store_read_error", err)
	}
	return items, nil
}

func (s *VoiceService) Transcribe(ctx context.Context, in TranscribeInput) (whisper.Transcript, error) {
	if len(in.Audio) == 0 {
		return whisper.Transcript{}, invalid("empty_audio")
	}
	if len(in.Audio) > whisper.MaxAudioBytes {
		return whisper.Transcript{}, invalid("audio_too_large")
	}
	if s.transcriber == nil {
		return whisper.Transcript{}, newError(ErrorServiceUnavailable, "transcription_unavailable", nil)
	}
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		name = defaultAudioName
	}

	t, err := s.transcriber.Transcribe(ctx, name, in.Audio)
	if err != nil {
		return whisper.Transcript{}, transcriptionError(err)
	}
	return t, nil
}

func transcriptionError(err error) *Error {
	switch {
	case errors.Is(err, whisper.ErrEmptyAudio):
		return newError(ErrorInvalidInput, "empty_audio", err)
	case errors.Is(err, whisper.ErrAudioTooLarge):
		return newError(ErrorInvalidInput, "audio_too_large", err)
	}
	if status, ok := upstreamStatusCode(err); ok {
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return newError(ErrorServiceUnavailable, "transcription_unavailable", err)
		case http.StatusTooManyRequests:
			return newError(ErrorRateLimited, "transcription_rate_limited", err)
		}
	}
	if isCredentialError(err) {
		return newError(ErrorServiceUnavailable, "transcription_unavailable", err)
	}
	return newError(ErrorUpstream, "transcription_error", err)
}

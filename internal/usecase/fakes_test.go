package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"aurora-agent/internal/domain"
	"aurora-agent/internal/integrations/whisper"
	"aurora-agent/internal/repository"
)

type fakeClassifier struct {
	scores []domain.EmotionScore
	err    error
	calls  int
	text   string
}

func (f *fakeClassifier) Classify(_ context.Context, text string) ([]domain.EmotionScore, error) {
	f.calls++
	f.text = text
	return f.scores, f.err
}

func classifierReturning(label string, score float64) *fakeClassifier {
	return &fakeClassifier{scores: []domain.EmotionScore{
		{Label: label, Score: score},
		{Label: "neutral", Score: (1 - score) / 2},
	}}
}

type fakeCompleter struct {
	answer   string
	err      error
	calls    int
	messages []domain.ChatMessage
}

func (f *fakeCompleter) Complete(_ context.Context, msgs []domain.ChatMessage) (string, error) {
	f.calls++
	f.messages = msgs
	return f.answer, f.err
}

type fakeJSONCompleter struct {
	answer   string
	err      error
	calls    int
	name     string
	schema   map[string]any
	messages []domain.ChatMessage
}

func (f *fakeJSONCompleter) CompleteJSON(_ context.Context, msgs []domain.ChatMessage, name string, schema map[string]any) (string, error) {
	f.calls++
	f.messages = msgs
	f.name = name
	f.schema = schema
	return f.answer, f.err
}

type fakeTranscriber struct {
	out      whisper.Transcript
	err      error
	filename string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, filename string, _ []byte) (whisper.Transcript, error) {
	f.filename = filename
	return f.out, f.err
}

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

// failingStore implements every store port and fails each call with err.
type failingStore struct{ err error }

func (f failingStore) Save(context.Context, domain.Conversation) (domain.Conversation, error) {
	return domain.Conversation{}, f.err
}
func (f failingStore) Get(context.Context, string) (domain.Conversation, bool, error) {
	return domain.Conversation{}, false, f.err
}
func (f failingStore) ListByUser(context.Context, string, int) ([]domain.ConversationListItem, error) {
	return nil, f.err
}
func (f failingStore) Delete(context.Context, string) (bool, error) { return false, f.err }

type failingVoiceStore struct{ err error }

func (f failingVoiceStore) Save(context.Context, domain.VoiceAnalysis) error { return f.err }
func (f failingVoiceStore) ListByUser(context.Context, string, int) ([]domain.VoiceAnalysis, error) {
	return nil, f.err
}

type failingAssessmentStore struct{ err error }

func (f failingAssessmentStore) Get(context.Context, string) (domain.Assessment, bool, error) {
	return domain.Assessment{}, false, f.err
}
func (f failingAssessmentStore) Put(context.Context, domain.Assessment) error { return f.err }

var errStoreDown = errors.New("store down")

type repos struct {
	convs       *repository.ConversationRepo
	users       *repository.UserRepo
	voice       *repository.VoiceAnalysisRepo
	assessments *repository.AssessmentRepo
}

func newRepos(t *testing.T) repos {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir())
	require.NoError(t, err)
	convs, err := repository.NewConversationRepo(store, 0)
	require.NoError(t, err)
	users, err := repository.NewUserRepo(store)
	require.NoError(t, err)
	voice, err := repository.NewVoiceAnalysisRepo(store)
	require.NoError(t, err)
	assessments, err := repository.NewAssessmentRepo(store)
	require.NoError(t, err)
	return repos{convs: convs, users: users, voice: voice, assessments: assessments}
}

func fixedUUID(t *testing.T, ids ...string) {
	t.Helper()
	orig := newUUID
	i := 0
	newUUID = func() string {
		id := ids[i%len(ids)]
		i++
		return id
	}
	t.Cleanup(func() { newUUID = orig })
}

func expectError(t *testing.T, err error, code ErrorCode, reason string) {
	t.Helper()
	var usecaseErr *Error
	require.ErrorAs(t, err, &usecaseErr)
	require.Equal(t, code, usecaseErr.Code)
	require.Equal(t, reason, usecaseErr.Reason)
}

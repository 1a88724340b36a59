package paramstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeSSM struct {
	out   *ssm.GetParameterOutput
	err   error
	input *ssm.GetParameterInput
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.input = in
	return f.out, f.err
}

func TestSSM_GetParameter(t *testing.T) {
	api := &fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{
		Name: aws.String("/aurora/hf-token"), Value: aws.String(`{"token":"hf_x"}`), Type: types.ParameterTypeSecureString,
	}}}
	s, err := NewSSM(api)
	require.NoError(t, err)

	v, err := s.GetParameter(context.Background(), " /aurora/hf-token ")
	require.NoError(t, err)
	require.Equal(t, `{"token":"hf_x"}`, v)
	require.Equal(t, "/aurora/hf-token", aws.ToString(api.input.Name))
	require.True(t, aws.ToBool(api.input.WithDecryption))
}

func TestSSM_Errors(t *testing.T) {
	_, err := NewSSM(nil)
	require.ErrorContains(t, err, "must not be nil")

	_, err = (&SSM{}).GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "not initialized")

	s, err := NewSSM(&fakeSSM{})
	require.NoError(t, err)
	_, err = s.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")

	s, _ = NewSSM(&fakeSSM{err: errors.New("boom")})
	_, err = s.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "boom")

	s, _ = NewSSM(&fakeSSM{out: &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: aws.String("p")}}})
	_, err = s.GetParameter(context.Background(), "p")
	require.ErrorContains(t, err, "no value")
}

func TestJoin(t *testing.T) {
	require.Equal(t, "/aurora/groq-token", Join("/aurora/", "/groq-token"))
	require.Equal(t, "/aurora/hf-token", Join(" /aurora", "hf-token"))
}

func TestStatic(t *testing.T) {
	s := Static{}
	s.StaticToken("/aurora/groq-token", `gsk_"quoted"`)
	s.StaticToken("/aurora/hf-token", "")

	tok, err := Token(context.Background(), s, "/aurora/groq-token")
	require.NoError(t, err)
	require.Equal(t, `gsk_"quoted"`, tok)

	_, err = Token(context.Background(), s, "/aurora/hf-token")
	require.ErrorIs(t, err, ErrNotFound)
}

type fakeGetter struct {
	val string
	err error
}

func (f fakeGetter) GetParameter(context.Context, string) (string, error) { return f.val, f.err }

func TestToken(t *testing.T) {
	tests := []struct {
		name    string
		getter  Getter
		param   string
		want    string
		wantErr string
	}{
		{name: "ok", getter: fakeGetter{val: `{"token":"sk-1"}`}, param: "/p/t", want: "sk-1"},
		{name: "missing field", getter: fakeGetter{val: `{"other":"v"}`}, param: "/p/t", wantErr: "is empty"},
		{name: "malformed", getter: fakeGetter{val: `{"broken`}, param: "/p/t", wantErr: "unmarshal"},
		{name: "getter error", getter: fakeGetter{err: errors.New("ssm unavailable")}, param: "/p/t", wantErr: "ssm unavailable"},
		{name: "nil getter", getter: nil, param: "/p/t", wantErr: "nil"},
		{name: "empty name", getter: fakeGetter{val: `{"token":"x"}`}, param: " ", wantErr: "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Token(context.Background(), tt.getter, tt.param)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				require.ErrorIs(t, err, ErrCredentials)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

type countingGetter struct {
	calls int
}

func (c *countingGetter) GetParameter(context.Context, string) (string, error) {
	c.calls++
	return `{"token":"sk-once"}`, nil
}

func TestLazyToken_ResolvesOnce(t *testing.T) {
	g := &countingGetter{}
	lt := NewLazyToken(g, "/aurora/groq-token")

	for i := 0; i < 3; i++ {
		tok, err := lt.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, "sk-once", tok)
	}
	require.Equal(t, 1, g.calls)
	require.Equal(t, "/aurora/groq-token", lt.Name())
}

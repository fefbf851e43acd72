package credentials_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Staticpast/WeatherVoting/credentials"
	perrors "github.com/Staticpast/WeatherVoting/errors"
)

func env(vars map[string]string) *credentials.Env {
	return &credentials.Env{
		Vars: credentials.DefaultEnvVars,
		Lookup: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
	}
}

func TestEnvPrecedence(t *testing.T) {
	ctx := context.Background()

	token, err := env(map[string]string{"GITHUB_TOKEN": "ghp_a", "GH_TOKEN": "ghp_b"}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_a", token)

	token, err = env(map[string]string{"GITHUB_TOKEN": "  ", "GH_TOKEN": "ghp_b\n"}).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_b", token)

	_, err = env(nil).Resolve(ctx)
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

type fakeSecrets struct {
	out *secretsmanager.GetSecretValueOutput
	err error
	ids []string
}

func (f *fakeSecrets) GetSecretValue(
	_ context.Context,
	in *secretsmanager.GetSecretValueInput,
	_ ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	f.ids = append(f.ids, aws.ToString(in.SecretId))
	return f.out, f.err
}

func TestAWSSecret(t *testing.T) {
	ctx := context.Background()

	plain := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{SecretString: aws.String("ghp_plain")}}
	token, err := credentials.NewAWSSecret(plain, "release/github", "", nil).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_plain", token)
	assert.Equal(t, []string{"release/github"}, plain.ids)

	keyed := &fakeSecrets{out: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"github_token":"ghp_json","other":1}`),
	}}
	token, err = credentials.NewAWSSecret(keyed, "release/all", "github_token", nil).Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ghp_json", token)

	_, err = credentials.NewAWSSecret(keyed, "release/all", "missing", nil).Resolve(ctx)
	assert.Error(t, err)

	_, err = credentials.NewAWSSecret(plain, "", "", nil).Resolve(ctx)
	assert.ErrorIs(t, err, credentials.ErrNoToken)
}

func TestAWSSecretAPIErrors(t *testing.T) {
	notFound := &fakeSecrets{err: &smithy.GenericAPIError{Code: credentials.ResourceNotFoundException, Message: "nope"}}

	_, err := credentials.NewAWSSecret(notFound, "release/github", "", nil).Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NotContains(t, err.Error(), "ghp_")
}

func TestChain(t *testing.T) {
	ctx := context.Background()

	chain := credentials.Chain{
		env(nil),
		nil,
		credentials.ResolverFunc(func(context.Context) (string, error) { return "from-secret", nil }),
	}
	token, err := chain.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "from-secret", token)

	_, err = credentials.Chain{env(nil)}.Resolve(ctx)
	require.Error(t, err)
	assert.Equal(t, perrors.CodeReleaseAuth, perrors.CodeOf(err))
	assert.Equal(t, 9, perrors.ExitCode(err))

	failing := credentials.Chain{credentials.ResolverFunc(func(context.Context) (string, error) {
		return "", errors.New("access denied to secret release/github")
	})}
	_, err = failing.Resolve(ctx)
	assert.True(t, perrors.HasCode(err, perrors.CodeReleaseAuth))
}

package repositoryplugin

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/aptrepo"
	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

const keyURL = "https://cli.github.com/packages/githubcli-archive-keyring.gpg"

type keyFetcher struct {
	key   []byte
	calls int
}

func (f *keyFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls++
	if f.key == nil {
		return nil, errors.New("404 Not Found")
	}
	return f.key, nil
}

func signingKey(t *testing.T) []byte {
	t.Helper()
	entity, err := openpgp.NewEntity("GitHub CLI", "", "opensource+cli@github.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, entity.Serialize(&buf))
	return buf.Bytes()
}

func repoStep(suite string) *config.Step {
	return &config.Step{
		ID:   "github_cli_repo",
		Type: config.TypeRepository,
		Repository: &config.RepositoryStep{
			KeyURL:   keyURL,
			Keyring:  "/etc/apt/keyrings/githubcli-archive-keyring.gpg",
			ListFile: "/etc/apt/sources.list.d/github-cli.list",
			Suite:    suite,
			Entry:    "deb [arch={{.Arch}} signed-by={{.Keyring}}] https://cli.github.com/packages {{.Codename}} main",
		},
	}
}

func newPlugin(host *systemtest.Host, fetcher *keyFetcher) plugin.Plugin {
	registrar := aptrepo.NewRegistrar(host, fetcher, "/etc/os-release", logger.Nop())
	return New(plugin.Deps{Host: host, Registrar: registrar})
}

func TestRepositoryPlugin_RegistersAndBecomesSatisfied(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/etc/os-release", "ID=ubuntu\nVERSION_CODENAME=noble\n")
	fetcher := &keyFetcher{key: signingKey(t)}
	p := newPlugin(host, fetcher)
	step := repoStep("stable")

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	assert.Contains(t, eval.Diff, "+deb [arch=amd64 signed-by=/etc/apt/keyrings/githubcli-archive-keyring.gpg] https://cli.github.com/packages stable main")
	assert.Zero(t, fetcher.calls, "evaluation never downloads")

	require.NoError(t, p.Apply(context.Background(), eval, step))
	assert.Equal(t, "deb [arch=amd64 signed-by=/etc/apt/keyrings/githubcli-archive-keyring.gpg] https://cli.github.com/packages stable main\n",
		host.Content("/etc/apt/sources.list.d/github-cli.list"))

	eval, err = p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	assert.False(t, eval.RequiresAction)
}

func TestRepositoryPlugin_MissingCodenameIsDetectionError(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/etc/os-release", "ID=custom\n")
	fetcher := &keyFetcher{key: signingKey(t)}
	p := newPlugin(host, fetcher)

	_, err := p.Evaluate(context.Background(), repoStep(""))
	require.Error(t, err)

	var detErr *devstraperrors.DetectionError
	require.ErrorAs(t, err, &detErr)
	assert.Empty(t, host.Calls)
	assert.Zero(t, fetcher.calls)
}

func TestRepositoryPlugin_ApplySurfacesDownloadFailure(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/etc/os-release", "ID=ubuntu\nVERSION_CODENAME=noble\n")
	p := newPlugin(host, &keyFetcher{})
	step := repoStep("stable")

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)

	err = p.Apply(context.Background(), eval, step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Empty(t, host.Content("/etc/apt/keyrings/githubcli-archive-keyring.gpg"))
}

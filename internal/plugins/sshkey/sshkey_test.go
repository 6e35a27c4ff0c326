package sshkeyplugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/sshkey"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
)

func keyStep(comment string) *config.Step {
	return &config.Step{ID: "ssh_key", Type: config.TypeSSHKey, SSHKey: &config.SSHKeyStep{Path: "~/.ssh/id_ed25519", Comment: comment}}
}

func newPlugin(host *systemtest.Host) plugin.Plugin {
	return New(plugin.Deps{Host: host, User: system.User{Name: "dev", Home: "/home/dev"}, Keys: sshkey.NewManager(host)})
}

func TestSSHKeyPlugin_GeneratesWithDefaultComment(t *testing.T) {
	host := systemtest.NewHost()
	p := newPlugin(host)
	step := keyStep("")

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	assert.Equal(t, "generate ed25519 key /home/dev/.ssh/id_ed25519 (dev@devstrap)", eval.Diff)

	require.NoError(t, p.Apply(context.Background(), eval, step))

	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(host.Content("/home/dev/.ssh/id_ed25519.pub")))
	require.NoError(t, err)
	assert.Equal(t, ssh.KeyAlgoED25519, pub.Type())
	assert.Contains(t, host.Content("/home/dev/.ssh/id_ed25519.pub"), "dev@devstrap")

	eval, err = p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	assert.False(t, eval.RequiresAction)
}

func TestSSHKeyPlugin_ExistingPairUntouched(t *testing.T) {
	host := systemtest.NewHost()
	pair, err := sshkey.GenerateEd25519("me@laptop")
	require.NoError(t, err)
	host.SetFile("/home/dev/.ssh/id_ed25519", string(pair.PrivateKey))
	host.SetFile("/home/dev/.ssh/id_ed25519.pub", string(pair.PublicKey))

	eval, err := newPlugin(host).Evaluate(context.Background(), keyStep("work"))
	require.NoError(t, err)
	assert.False(t, eval.RequiresAction)
	assert.Empty(t, host.Calls)
	assert.Equal(t, string(pair.PrivateKey), host.Content("/home/dev/.ssh/id_ed25519"))
}

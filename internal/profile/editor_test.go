package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
)

const nvmBlock = `export NVM_DIR="$HOME/.nvm"
[ -s "$NVM_DIR/nvm.sh" ] && . "$NVM_DIR/nvm.sh"
`

func TestRender(t *testing.T) {
	want := "# >>> devstrap-nvm >>>\n" + nvmBlock + "# <<< devstrap-nvm <<<\n"
	assert.Equal(t, want, Render("devstrap-nvm", nvmBlock))
	assert.Equal(t, "# >>> s >>>\nx\n# <<< s <<<\n", Render("s", "x"), "a trailing newline is added")
}

func TestEnsureCreatesAbsentFile(t *testing.T) {
	host := systemtest.NewHost()
	e := NewEditor(host)

	changed, err := e.Ensure("/home/dev/.zshrc", "devstrap-nvm", nvmBlock)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, Render("devstrap-nvm", nvmBlock), host.Content("/home/dev/.zshrc"))
}

func TestEnsureIsByteForByteNoopWhenSentinelPresent(t *testing.T) {
	host := systemtest.NewHost()
	original := "alias ll='ls -l'\n# devstrap-nvm was added by hand\nno trailing newline"
	host.SetFile("/home/dev/.bashrc", original)
	e := NewEditor(host)

	for i := 0; i < 3; i++ {
		changed, err := e.Ensure("/home/dev/.bashrc", "devstrap-nvm", nvmBlock)
		require.NoError(t, err)
		assert.False(t, changed)
	}
	assert.Equal(t, original, host.Content("/home/dev/.bashrc"))
	assert.Empty(t, host.Calls, "no write is attempted")
}

func TestEnsurePreservesExistingBytes(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/home/dev/.profile", "export EDITOR=vim")
	e := NewEditor(host)

	changed, err := e.Ensure("/home/dev/.profile", "devstrap-auto-zsh", "exec zsh -l")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, "export EDITOR=vim\n# >>> devstrap-auto-zsh >>>\nexec zsh -l\n# <<< devstrap-auto-zsh <<<\n",
		host.Content("/home/dev/.profile"))

	changed, err = e.Ensure("/home/dev/.profile", "devstrap-auto-zsh", "exec zsh -l")
	require.NoError(t, err)
	assert.False(t, changed, "second run is a no-op")
}

func TestEachProfileIsIndependent(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/home/dev/.bashrc", Render("devstrap-ssh-agent", "eval x"))
	e := NewEditor(host)

	changed, err := e.Ensure("/home/dev/.bashrc", "devstrap-ssh-agent", "eval x")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = e.Ensure("/home/dev/.zshrc", "devstrap-ssh-agent", "eval x")
	require.NoError(t, err)
	assert.True(t, changed, "a sentinel in .bashrc does not suppress .zshrc")
}

func TestPreview(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/home/dev/.zshrc", "plugins=(git)\n")
	e := NewEditor(host)

	d, err := e.Preview("/home/dev/.zshrc", "devstrap-nvm", nvmBlock)
	require.NoError(t, err)
	assert.Contains(t, d, "--- /home/dev/.zshrc")
	assert.Contains(t, d, "+# >>> devstrap-nvm >>>")
	assert.Contains(t, d, " plugins=(git)")
	assert.Equal(t, "plugins=(git)\n", host.Content("/home/dev/.zshrc"), "preview never writes")
	assert.Empty(t, host.Calls)

	_, err = e.Ensure("/home/dev/.zshrc", "devstrap-nvm", nvmBlock)
	require.NoError(t, err)
	d, err = e.Preview("/home/dev/.zshrc", "devstrap-nvm", nvmBlock)
	require.NoError(t, err)
	assert.Empty(t, d)
}

func TestEnsureReportsWriteFailure(t *testing.T) {
	host := systemtest.NewHost()
	host.Fail["append"] = errors.New("read-only file system")
	e := NewEditor(host)

	_, err := e.Ensure("/home/dev/.zshrc", "devstrap-nvm", nvmBlock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
)

func TestCheckCommandExists(t *testing.T) {
	host := systemtest.NewHost()
	host.Commands["zsh"] = true

	require.NoError(t, CheckCommandExists(host, "zsh"))
	require.Error(t, CheckCommandExists(host, "gh"))
	require.Error(t, CheckCommandExists(host, ""))
}

func TestCheckFileExists(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/home/dev/.oh-my-zsh/oh-my-zsh.sh", "# omz")

	require.NoError(t, CheckFileExists(host, "/home/dev/.oh-my-zsh/oh-my-zsh.sh"))
	require.NoError(t, CheckFileExists(host, "/home/dev/.oh-my-zsh"), "directories should pass CheckFileExists")
	require.Error(t, CheckFileExists(host, "/home/dev/.nvm"))
}

func TestCheckPathContains(t *testing.T) {
	host := systemtest.NewHost()
	host.SetFile("/home/dev/.zshrc", "plugins=(git)\n# >>> devstrap-nvm >>>\n")

	require.NoError(t, CheckPathContains(host, "/home/dev/.zshrc", "devstrap-nvm"))
	require.NoError(t, CheckPathContains(host, "/home/dev/.zshrc", `^plugins=\(git\)`))
	require.NoError(t, CheckPathContains(host, "/home/dev/.zshrc", `^# >>> devstrap-nvm >>>$`), "anchors match per line")
	require.Error(t, CheckPathContains(host, "/home/dev/.zshrc", "devstrap-ssh-agent"))
	require.Error(t, CheckPathContains(host, "/home/dev/.bashrc", "anything"))
	require.Error(t, CheckPathContains(host, "/home/dev/.zshrc", "("), "invalid patterns are reported")
}

package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/aptrepo"
	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/installer"
	"github.com/alexisbeaulieu97/devstrap/internal/logger"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/plugins"
	"github.com/alexisbeaulieu97/devstrap/internal/profile"
	"github.com/alexisbeaulieu97/devstrap/internal/sshkey"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
	devstraperrors "github.com/alexisbeaulieu97/devstrap/pkg/errors"
)

const home = "/home/dev"

type mapFetcher map[string][]byte

func (f mapFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	data, ok := f[url]
	if !ok {
		return nil, errors.New("GET " + url + ": 404 Not Found")
	}
	return data, nil
}

// fakeClone stands in for the git installer: a clone is a directory.
type fakeClone struct {
	host *systemtest.Host
}

func (c fakeClone) Cloned(dest string) bool { return c.host.PathExists(dest) }

func (c fakeClone) Install(_ context.Context, spec installer.Spec) error {
	return c.host.MkdirAll(spec.Dest, 0o755)
}

func (c fakeClone) Describe(spec installer.Spec) string { return "git clone " + spec.URL }

func armoredKey(t *testing.T) []byte {
	t.Helper()
	entity, err := openpgp.NewEntity("Vendor Archive", "", "archive@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	require.NoError(t, err)

	var arm bytes.Buffer
	w, err := armor.Encode(&arm, openpgp.PublicKeyType, nil)
	require.NoError(t, err)
	require.NoError(t, entity.Serialize(w))
	require.NoError(t, w.Close())
	return arm.Bytes()
}

// workstation wires the real plugins over a fake host whose Run simulates
// what each command of the default document leaves behind. When only names
// step ids, the document is cut down to those steps.
func workstation(t *testing.T, osRelease string, only ...string) (*systemtest.Host, *Plan) {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	if len(only) > 0 {
		cfg.Steps = subset(cfg.Steps, only)
	}

	host := systemtest.NewHost()
	host.SetFile(config.DefaultOSRelease, osRelease)
	host.Shells["dev"] = "/bin/bash"
	user := system.User{Name: "dev", Home: home, UID: 1000}

	key := armoredKey(t)
	fetcher := mapFetcher{}
	effects := map[string]func(*systemtest.Host){}
	for _, s := range cfg.Steps {
		switch {
		case s.Repository != nil:
			fetcher[s.Repository.KeyURL] = key
		case s.Installer != nil && s.Installer.Method == "script":
			fetcher[s.Installer.URL] = []byte("#!/bin/sh\necho installing\n")
			creates := user.Expand(s.Installer.Creates)
			effects["-s"] = func(h *systemtest.Host) { h.SetFile(creates, "#!/bin/sh\n") }
		case s.Command != nil:
			check, creates := s.Command.Check, user.Expand(s.Command.Creates)
			effects[s.Command.Command] = func(h *systemtest.Host) {
				if check != "" {
					h.Checks[check] = true
				}
				if s.Command.Creates != "" {
					h.SetFile(creates, "# generated\n")
				}
			}
		}
	}

	host.OnRun = func(h *systemtest.Host, cmd system.Command) error {
		switch cmd.Name {
		case "ufw":
			if cmd.Args[0] == "allow" {
				h.FirewallRules = append(h.FirewallRules, cmd.Args[1])
			} else {
				h.Firewall = true
			}
		case "usermod":
			h.Groups[cmd.Args[2]] = append(h.Groups[cmd.Args[2]], cmd.Args[1])
		case "chsh":
			h.Shells[cmd.Args[2]] = cmd.Args[1]
		case "bash", "sh":
			if effect, ok := effects[cmd.Args[len(cmd.Args)-1]]; ok {
				effect(h)
			}
		}
		return nil
	}

	log := logger.Nop()
	deps := plugin.Deps{
		Host:      host,
		User:      user,
		Log:       log,
		Registrar: aptrepo.NewRegistrar(host, fetcher, config.DefaultOSRelease, log),
		Profiles:  profile.NewEditor(host),
		Keys:      sshkey.NewManager(host),
		Installers: installer.Set{
			"script": installer.NewScriptInstaller(fetcher, host, log),
			"git":    fakeClone{host: host},
		},
	}
	reg, err := plugins.NewRegistry(deps)
	require.NoError(t, err)

	plan, err := BuildPlan(cfg.Steps, reg)
	require.NoError(t, err)
	return host, plan
}

func subset(steps []config.Step, ids []string) []config.Step {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}
	var out []config.Step
	for _, s := range steps {
		if !keep[s.ID] {
			continue
		}
		var requires []string
		for _, r := range s.Requires {
			if keep[r] {
				requires = append(requires, r)
			}
		}
		s.Requires = requires
		out = append(out, s)
	}
	return out
}

const noble = "NAME=\"Ubuntu\"\nID=ubuntu\nVERSION_CODENAME=noble\nUBUNTU_CODENAME=noble\n"

func TestFreshHostScenario(t *testing.T) {
	host, plan := workstation(t, noble)
	session := &Session{Executor: NewExecutor(nil)}

	run, err := session.Run(context.Background(), plan)
	require.NoError(t, err)
	require.NoError(t, run.Fatal)

	assert.Equal(t, model.RunCompleted, run.State)
	assert.Equal(t, 0, run.ExitCode())
	assert.Equal(t, len(plan.Steps), run.Count(model.StatusApplied), "every step has work on a fresh host")

	assert.True(t, host.PathExists(home+"/.oh-my-zsh"))
	assert.True(t, host.PathExists(home+"/.nvm"))
	assert.True(t, host.PathExists(home+"/.ssh/id_ed25519"))
	assert.True(t, host.PathExists(home+"/.ssh/id_ed25519.pub"))
	assert.True(t, host.Firewall)
	assert.Equal(t, []string{"OpenSSH", "Nginx Full"}, host.FirewallRules)
	assert.Equal(t, "/usr/bin/zsh", host.Shells["dev"])
	assert.Contains(t, host.Groups["dev"], "docker")
	assert.True(t, host.Packages["mongodb-org"])
	assert.True(t, host.Services["fail2ban"].Active)
	assert.Contains(t, host.Content(home+"/.zshrc"), profile.OpenMarker("devstrap-nvm"))
	assert.Contains(t, host.Content(home+"/.profile"), profile.OpenMarker("devstrap-auto-zsh"))
	assert.Contains(t, host.Content("/etc/apt/sources.list.d/mongodb-org-8.0.list"), "noble/mongodb-org/8.0")
}

func TestSecondRunChangesNothing(t *testing.T) {
	host, plan := workstation(t, noble)
	exec := NewExecutor(nil)

	first := exec.Apply(context.Background(), plan)
	require.NoError(t, first.Fatal)

	calls := len(host.Calls)
	zshrc := host.Content(home + "/.zshrc")
	bashrc := host.Content(home + "/.bashrc")

	second := exec.Apply(context.Background(), plan)
	require.NoError(t, second.Fatal)

	assert.Equal(t, len(plan.Steps), second.Count(model.StatusSkipped))
	assert.Len(t, host.Calls, calls, "no mutations on the second run")
	assert.Equal(t, zshrc, host.Content(home+"/.zshrc"))
	assert.Equal(t, bashrc, host.Content(home+"/.bashrc"))
	assert.Equal(t, 1, strings.Count(bashrc, profile.OpenMarker("devstrap-ssh-agent")))
}

func TestExistingSSHKeyIsUntouched(t *testing.T) {
	host, plan := workstation(t, noble)
	host.SetFile(home+"/.ssh/id_ed25519", "existing private key\n")
	host.SetFile(home+"/.ssh/id_ed25519.pub", "ssh-ed25519 AAAA existing\n")

	run := NewExecutor(nil).Apply(context.Background(), plan)
	require.NoError(t, run.Fatal)

	res, ok := run.Result("ssh_key")
	require.True(t, ok)
	assert.Equal(t, model.StatusSkipped, res.Status)
	assert.Equal(t, "existing private key\n", host.Content(home+"/.ssh/id_ed25519"))
	assert.Equal(t, "ssh-ed25519 AAAA existing\n", host.Content(home+"/.ssh/id_ed25519.pub"))
}

func TestMissingCodenameFailsBeforeRepositoryWrites(t *testing.T) {
	host, plan := workstation(t, "NAME=\"Custom\"\nID=custom\n")

	run := NewExecutor(nil).Apply(context.Background(), plan)

	require.True(t, run.Aborted())
	assert.Equal(t, "mongodb_repo", run.FatalID)
	var detErr *devstraperrors.DetectionError
	require.ErrorAs(t, run.Fatal, &detErr)

	for _, call := range host.Calls {
		assert.NotContains(t, call, "mongodb")
	}
	assert.False(t, host.PathExists("/etc/apt/keyrings/mongodb-server-8.0.gpg"))

	vscode, _ := run.Result("vscode_repo")
	assert.Equal(t, model.StatusApplied, vscode.Status, "fixed-suite repositories need no codename")
}

func TestDryRunOnFreshHostMutatesNothing(t *testing.T) {
	host, plan := workstation(t, noble)

	run := NewExecutor(nil, WithDryRun(true)).Apply(context.Background(), plan)
	require.NoError(t, run.Fatal)

	assert.Empty(t, host.Calls)
	assert.Equal(t, len(plan.Steps), run.Count(model.StatusWouldApply))
	res, _ := run.Result("nvm_profile")
	assert.Contains(t, res.Diff, profile.OpenMarker("devstrap-nvm"))
}

func TestFailedIndexRefreshIsRetriedBeforeVendorInstall(t *testing.T) {
	host, plan := workstation(t, noble, "vscode_repo", "editor_packages")
	host.Fail["apt-update"] = errors.New("Temporary failure resolving 'packages.microsoft.com'")

	first := NewExecutor(nil).Apply(context.Background(), plan)
	require.True(t, first.Aborted())
	assert.Equal(t, "vscode_repo", first.FatalID)
	require.True(t, host.PathExists("/etc/apt/keyrings/packages.microsoft.gpg"))

	delete(host.Fail, "apt-update")
	host.Calls = nil

	second := NewExecutor(nil).Apply(context.Background(), plan)
	require.NoError(t, second.Fatal)

	repo, _ := second.Result("vscode_repo")
	assert.Equal(t, model.StatusSkipped, repo.Status)
	assert.Equal(t, []string{"apt-update", "apt-install code gh"}, host.Calls)
	assert.True(t, host.Packages["code"])
}

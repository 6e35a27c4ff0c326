package firewallplugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/plugin"
	"github.com/alexisbeaulieu97/devstrap/internal/system"
	"github.com/alexisbeaulieu97/devstrap/internal/system/systemtest"
)

func firewallStep() *config.Step {
	return &config.Step{ID: "firewall", Type: config.TypeFirewall, Firewall: &config.FirewallStep{Allow: []string{"OpenSSH", "Nginx Full"}}}
}

func simulateUFW(h *systemtest.Host, cmd system.Command) error {
	if cmd.Name != "ufw" {
		return nil
	}
	switch cmd.Args[0] {
	case "allow":
		h.FirewallRules = append(h.FirewallRules, cmd.Args[1])
	case "--force":
		h.Firewall = true
	}
	return nil
}

func TestFirewallPlugin_InactiveFirewall(t *testing.T) {
	host := systemtest.NewHost()
	host.OnRun = simulateUFW
	p := New(plugin.Deps{Host: host})
	step := firewallStep()

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	assert.Equal(t, "firewall inactive", eval.Message)
	assert.Equal(t, "sudo ufw allow OpenSSH\nsudo ufw allow 'Nginx Full'\nsudo ufw --force enable", eval.Diff)

	require.NoError(t, p.Apply(context.Background(), eval, step))
	assert.Equal(t, []string{
		"run sudo ufw allow OpenSSH",
		"run sudo ufw allow 'Nginx Full'",
		"run sudo ufw --force enable",
	}, host.Calls)

	eval, err = p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	assert.False(t, eval.RequiresAction)
}

func TestFirewallPlugin_ActiveWithMissingRule(t *testing.T) {
	host := systemtest.NewHost()
	host.Firewall = true
	host.FirewallRules = []string{"OpenSSH", "Nginx HTTP"}
	p := New(plugin.Deps{Host: host})
	step := firewallStep()

	eval, err := p.Evaluate(context.Background(), step)
	require.NoError(t, err)
	require.True(t, eval.RequiresAction)
	assert.Equal(t, "firewall rules missing: Nginx Full", eval.Message)

	require.NoError(t, p.Apply(context.Background(), eval, step))
	assert.Equal(t, []string{"run sudo ufw allow 'Nginx Full'"}, host.Calls, "an active firewall is not re-enabled")
}

func TestListed(t *testing.T) {
	status := "Status: active\n\nTo                         Action      From\n--                         ------      ----\nOpenSSH                    ALLOW       Anywhere\nNginx Full (v6)            ALLOW       Anywhere (v6)\n"

	assert.True(t, listed(status, "OpenSSH"))
	assert.True(t, listed(status, "Nginx Full"))
	assert.False(t, listed(status, "Nginx"), "a prefix of another profile does not count")
	assert.False(t, listed(status, "Postfix"))
}

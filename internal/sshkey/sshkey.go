// Package sshkey creates the operator's ed25519 key pair.
package sshkey

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"path/filepath"

	"golang.org/x/crypto/ssh"

	"github.com/alexisbeaulieu97/devstrap/internal/system"
)

// KeyPair holds the private and public keys.
type KeyPair struct {
	PrivateKey []byte
	PublicKey  []byte
}

// GenerateEd25519 generates a new key pair in OpenSSH format.
func GenerateEd25519(comment string) (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	block, err := ssh.MarshalPrivateKey(priv, comment)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, err
	}

	return &KeyPair{
		PrivateKey: pem.EncodeToMemory(block),
		PublicKey:  authorizedKey(sshPub, comment),
	}, nil
}

// PublicFromPrivate derives the authorized_keys line for an existing
// unencrypted private key.
func PublicFromPrivate(privateKey []byte, comment string) ([]byte, error) {
	signer, err := ssh.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return authorizedKey(signer.PublicKey(), comment), nil
}

func authorizedKey(pub ssh.PublicKey, comment string) []byte {
	line := bytes.TrimRight(ssh.MarshalAuthorizedKey(pub), "\n")
	if comment != "" {
		line = append(line, ' ')
		line = append(line, comment...)
	}
	return append(line, '\n')
}

// Manager keeps a key pair at a fixed path.
type Manager struct {
	host system.Host
}

// NewManager returns a Manager writing through host.
func NewManager(host system.Host) *Manager {
	return &Manager{host: host}
}

// Present reports whether both halves of the pair exist at path.
func (m *Manager) Present(path string) bool {
	return m.host.PathExists(path) && m.host.PathExists(path+".pub")
}

// Ensure creates the key pair when absent. An existing private key is never
// replaced; a missing public half is derived from it.
func (m *Manager) Ensure(path, comment string) error {
	if m.Present(path) {
		return nil
	}
	if err := m.host.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}

	if m.host.PathExists(path) {
		priv, err := m.host.ReadFile(path)
		if err != nil {
			return err
		}
		pub, err := PublicFromPrivate(priv, comment)
		if err != nil {
			return fmt.Errorf("%s exists but its public key cannot be derived: %w", path, err)
		}
		return m.host.WriteFile(path+".pub", pub, 0o644)
	}

	pair, err := GenerateEd25519(comment)
	if err != nil {
		return fmt.Errorf("generate ed25519 key: %w", err)
	}
	if err := m.host.WriteFile(path, pair.PrivateKey, 0o600); err != nil {
		return err
	}
	return m.host.WriteFile(path+".pub", pair.PublicKey, 0o644)
}

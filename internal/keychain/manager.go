// Copyright (c) 2025 Streamauth
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain provides thread-safe key-value storage in the OS credential store.
// It backs the persisted session record: the serialized profile and access token
// are secrets and never touch the plain config directory.
//
// Native backends (macOS Keychain, Windows Credential Manager, Secret Service,
// KWallet, pass) are preferred; an encrypted file under the XDG state dir is the
// fallback on hosts without one.
package keychain

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/99designs/keyring"

	"streamauth/cli/internal/xdg"
)

// ServiceName identifies our keychain/credential store namespace.
const ServiceName = "streamauth"

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("keychain: key not found")

// Manager provides thread-safe Get/Set/Remove over a keyring.
type Manager struct {
	mu   sync.RWMutex
	ring keyring.Keyring
}

// Options selects and unlocks the keyring backend.
type Options struct {
	// Backend restricts the store to one backend name; empty picks the first available.
	Backend string
	// Password unlocks the file backend. When empty the user is prompted on the terminal.
	Password string
}

var backendNames = map[string]keyring.BackendType{
	"keychain":       keyring.KeychainBackend,
	"wincred":        keyring.WinCredBackend,
	"secret-service": keyring.SecretServiceBackend,
	"kwallet":        keyring.KWalletBackend,
	"pass":           keyring.PassBackend,
	"file":           keyring.FileBackend,
}

// Open opens the OS keyring according to opts.
func Open(opts Options) (*Manager, error) {
	allowed, err := allowedBackends(opts.Backend)
	if err != nil {
		return nil, err
	}

	stateDir, err := xdg.StateDir()
	if err != nil {
		return nil, err
	}

	prompt := keyring.TerminalPrompt
	if opts.Password != "" {
		prompt = keyring.FixedStringPrompt(opts.Password)
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName:              ServiceName,
		AllowedBackends:          allowed,
		KeychainTrustApplication: true,
		WinCredPrefix:            ServiceName,
		PassPrefix:               ServiceName,
		LibSecretCollectionName:  ServiceName,
		KWalletAppID:             ServiceName,
		KWalletFolder:            ServiceName,
		FileDir:                  filepath.Join(stateDir, "keyring"),
		FilePasswordFunc:         prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return New(ring), nil
}

// New wraps an already opened keyring.
func New(ring keyring.Keyring) *Manager {
	return &Manager{ring: ring}
}

func allowedBackends(name string) ([]keyring.BackendType, error) {
	if name == "" {
		// nil lets keyring try every backend compiled for this OS.
		return nil, nil
	}
	bt, ok := backendNames[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown keyring backend %q", name)
	}
	return []keyring.BackendType{bt}, nil
}

// Get retrieves the value stored under key.
// This method is thread-safe.
func (m *Manager) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	it, err := m.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(it.Data) == 0 {
		return nil, ErrNotFound
	}
	return it.Data, nil
}

// Set overwrites the value stored under key.
// This method is thread-safe.
func (m *Manager) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.ring.Set(keyring.Item{
		Key:         key,
		Data:        value,
		Label:       ServiceName + " " + key,
		Description: "streamauth session",
	})
}

// Remove deletes key. Removing a missing key is not an error.
// This method is thread-safe.
func (m *Manager) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.ring.Remove(key)
	if err == nil || errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

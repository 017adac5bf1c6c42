package credentials

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
	"github.com/zalando/go-keyring"

	"thoreinstein.com/adopr/pkg/config"
	adoerrors "thoreinstein.com/adopr/pkg/errors"
)

// KeyringService is the keychain service name for adopr.
const KeyringService = "adopr"

// Store persists string values across invocations.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// NewStore creates the store selected by cfg.Store. "auto" prefers the
// keychain when a test write succeeds and otherwise falls back to a file.
func NewStore(cfg config.CredentialsConfig) (Store, error) {
	switch cfg.Store {
	case "keyring":
		return NewKeychainStore(KeyringService), nil
	case "file":
		return NewFileStore(cfg.Path), nil
	case "memory":
		return NewMemoryStore(), nil
	case "", "auto":
		if keychainAvailable() {
			return NewKeychainStore(KeyringService), nil
		}
		return NewFileStore(cfg.Path), nil
	default:
		return nil, adoerrors.NewConfigError("credentials.store", "unknown store "+cfg.Store)
	}
}

func keychainAvailable() bool {
	testService := KeyringService + "-probe"
	if err := keyring.Set(testService, "probe", "probe"); err != nil {
		return false
	}
	_ = keyring.Delete(testService, "probe")
	return true
}

// KeychainStore uses macOS keychain / Linux secret service / Windows credential manager.
type KeychainStore struct {
	service string
}

// NewKeychainStore creates a keychain-backed store under service.
func NewKeychainStore(service string) *KeychainStore {
	return &KeychainStore{service: service}
}

// Get reads key from the keychain.
func (k *KeychainStore) Get(key string) (string, bool, error) {
	value, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", false, nil
		}
		return "", false, adoerrors.NewStoreError("Get", key, "failed to read from keychain", err)
	}
	return value, true, nil
}

// Set writes key to the keychain.
func (k *KeychainStore) Set(key, value string) error {
	if err := keyring.Set(k.service, key, value); err != nil {
		return adoerrors.NewStoreError("Set", key, "failed to save to keychain", err)
	}
	return nil
}

// Delete removes key from the keychain. Missing keys are not an error.
func (k *KeychainStore) Delete(key string) error {
	err := keyring.Delete(k.service, key)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return adoerrors.NewStoreError("Delete", key, "failed to clear keychain", err)
	}
	return nil
}

// FileStore keeps values in a TOML file readable only by the owner
// (fallback for headless systems).
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a file-backed store at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (f *FileStore) Path() string {
	return f.path
}

// Get reads key from the file.
func (f *FileStore) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return "", false, adoerrors.NewStoreError("Get", key, "failed to read credentials file", err)
	}
	value, ok := values[key]
	return value, ok, nil
}

// Set writes key to the file with restrictive permissions.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return adoerrors.NewStoreError("Set", key, "failed to read credentials file", err)
	}
	values[key] = value

	if err := f.write(values); err != nil {
		return adoerrors.NewStoreError("Set", key, "failed to write credentials file", err)
	}
	return nil
}

// Delete removes key from the file. The file is removed once it is empty.
func (f *FileStore) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return adoerrors.NewStoreError("Delete", key, "failed to read credentials file", err)
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)

	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return adoerrors.NewStoreError("Delete", key, "failed to remove credentials file", err)
		}
		return nil
	}

	if err := f.write(values); err != nil {
		return adoerrors.NewStoreError("Delete", key, "failed to write credentials file", err)
	}
	return nil
}

func (f *FileStore) read() (map[string]string, error) {
	values := map[string]string{}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return values, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", f.path)
	}
	return values, nil
}

func (f *FileStore) write(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := toml.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "failed to serialize credentials")
	}

	// Owner read/write only
	return os.WriteFile(f.path, data, 0600)
}

// MemoryStore keeps values for the lifetime of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

// Get reads key.
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

// Set writes key.
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete removes key.
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

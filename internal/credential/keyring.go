package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "mailqa"

// Store reads secrets that are kept out of the environment, such as the
// IMAP password.
type Store struct {
	ring keyring.Keyring
}

// Open returns a store backed by the system keyring.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/mailqa/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("mailqa-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Store{ring: ring}, nil
}

func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// IMAPPasswordKey is the keyring entry that holds the password for username.
func IMAPPasswordKey(username string) string {
	return "imap:" + username
}

// ResolveIMAPPassword returns configured when it is set and otherwise looks
// the password up in the keyring.
func (s *Store) ResolveIMAPPassword(username, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	password, err := s.Get(IMAPPasswordKey(username))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("no IMAP password configured and none in keyring for %s", username)
	}
	return password, err
}

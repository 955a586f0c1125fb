package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/songdl/internal/shared"
	"golang.org/x/oauth2"
)

// TokenType is the authorization scheme the backend expects ("Authorization: Token <credential>").
const TokenType = "Token"

var _ oauth2.TokenSource = (*TokenStore)(nil)

// TokenStore keeps the opaque session credential under a single fixed key.
//
// The credential is never inspected, only stored and forwarded.
type TokenStore struct {
	kv  *KVRepository
	key string
}

// NewTokenStore creates a TokenStore over kv using key, defaulting to "token".
func NewTokenStore(kv *KVRepository, key string) *TokenStore {
	if key == "" {
		key = "token"
	}
	return &TokenStore{kv: kv, key: key}
}

// Get returns the stored credential. ok is false when none is stored.
func (s *TokenStore) Get() (credential string, ok bool, err error) {
	value, err := s.kv.Get(s.key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores credential, replacing any previous one.
func (s *TokenStore) Set(credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return fmt.Errorf("%w: empty credential", shared.ErrInvalidInput)
	}
	return s.kv.Put(s.key, credential)
}

// Clear removes the credential.
func (s *TokenStore) Clear() error {
	return s.kv.Delete(s.key)
}

// Token implements [oauth2.TokenSource]. It returns [shared.ErrMissingToken] when signed out.
func (s *TokenStore) Token() (*oauth2.Token, error) {
	credential, ok, err := s.Get()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.ErrMissingToken
	}
	return &oauth2.Token{AccessToken: credential, TokenType: TokenType}, nil
}

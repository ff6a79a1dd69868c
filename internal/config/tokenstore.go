package config

import (
	"os"

	"github.com/spf13/viper"
)

// TokenStore persists the session credential in the config file, so it
// survives process restarts the way the dashboard's stored token survives a
// page reload. It implements session.Store.
type TokenStore struct {
	path string
}

// NewTokenStore creates a token store writing to configPath, or the default
// config file when configPath is empty.
func NewTokenStore(configPath string) (*TokenStore, error) {
	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}
	return &TokenStore{path: configPath}, nil
}

// LoadToken returns the persisted credential, or "" when none is stored.
func (s *TokenStore) LoadToken() (string, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return "", nil
		}
		return "", err
	}
	return v.GetString("token"), nil
}

// SaveToken writes the credential, preserving the rest of the config.
func (s *TokenStore) SaveToken(token string) error {
	url := ""
	if cur, err := s.read(); err == nil {
		url = cur.GetString("url")
	}
	return Save(&Config{URL: url, Token: token}, s.path)
}

// ClearToken removes the credential from durable storage.
func (s *TokenStore) ClearToken() error {
	return s.SaveToken("")
}

func (s *TokenStore) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v, nil
}

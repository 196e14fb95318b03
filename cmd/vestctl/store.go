package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ---- config/token store ----

type tokenFile struct {
	AccountID   string    `json:"account_id"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "vestctl")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vestctl")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tf tokenFile) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(tokenPath(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tf)
}

func loadToken() (tokenFile, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return tokenFile{}, errors.New("no saved token (login required)")
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return tokenFile{}, err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return tokenFile{}, errors.New("no valid token (login required)")
	}
	return tf, nil
}

package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/alfredjeanlab/lots/internal/config"
)

// RemotesConfig holds all named remotes and tracks which one is active.
type RemotesConfig struct {
	Active  string            `toml:"active"`
	Remotes map[string]Remote `toml:"remotes"`
}

// Remote is a named server profile.
type Remote struct {
	URL      string `toml:"url"`
	GRPCAddr string `toml:"grpc_addr,omitempty"`
	Token    string `toml:"token,omitempty"`
	NATSURL  string `toml:"nats_url,omitempty"`
}

func remoteConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".local", "state", "lots")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "remotes.toml"), nil
}

func loadRemotesConfig() (RemotesConfig, error) {
	path, err := remoteConfigPath()
	if err != nil {
		return RemotesConfig{}, err
	}
	var rc RemotesConfig
	if _, err := toml.DecodeFile(path, &rc); err != nil {
		if os.IsNotExist(err) {
			return RemotesConfig{Remotes: map[string]Remote{}}, nil
		}
		return RemotesConfig{}, err
	}
	if rc.Remotes == nil {
		rc.Remotes = map[string]Remote{}
	}
	return rc, nil
}

func saveRemotesConfig(rc RemotesConfig) error {
	path, err := remoteConfigPath()
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(rc)
}

// activeRemote returns the active remote, or nil when none is set or the
// file cannot be read.
func activeRemote() *Remote {
	rc, err := loadRemotesConfig()
	if err != nil || rc.Active == "" {
		return nil
	}
	r, ok := rc.Remotes[rc.Active]
	if !ok {
		return nil
	}
	return &r
}

// applyRemote fills values the environment left unset from r.
func applyRemote(c *config.Config, r *Remote) {
	if r == nil {
		return
	}
	if os.Getenv("LOTS_API_URL") == "" && r.URL != "" {
		c.APIURL = r.URL
	}
	if os.Getenv("LOTS_GRPC_ADDR") == "" && r.GRPCAddr != "" {
		c.GRPCAddr = r.GRPCAddr
	}
	if c.Token == "" {
		c.Token = r.Token
	}
	if c.NATSURL == "" {
		c.NATSURL = r.NATSURL
	}
}

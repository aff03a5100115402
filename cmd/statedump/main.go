// Command statedump prints the persisted session snapshot as YAML. Secrets
// are masked; -config also prints the effective configuration.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/roomsync/roomsync-client/config"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/logger"
	"gopkg.in/yaml.v3"
)

type document struct {
	Config   *config.Config    `yaml:"config,omitempty"`
	Snapshot *persist.Snapshot `yaml:"snapshot"`
}

func main() {
	withConfig := flag.Bool("config", false, "Also print the effective configuration")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	storage, err := persist.Open(cfg.Storage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s storage: %v\n", cfg.Storage.Driver, err)
		os.Exit(1)
	}
	defer storage.Close()

	if !*withConfig {
		cfg = nil
	}
	if err := dump(context.Background(), os.Stdout, storage, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// dump writes the masked snapshot held by storage. An empty store prints a
// null snapshot rather than failing.
func dump(ctx context.Context, w io.Writer, storage persist.Storage, cfg *config.Config) error {
	snap, err := persist.LoadSnapshot(ctx, storage)
	if err != nil && !errors.Is(err, persist.ErrNotFound) {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	doc := document{Snapshot: mask(snap)}
	if cfg != nil {
		c := *cfg
		c.Storage.RedisPassword = logger.MaskSensitiveString(c.Storage.RedisPassword, 0, 0)
		doc.Config = &c
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

func mask(snap *persist.Snapshot) *persist.Snapshot {
	if snap == nil {
		return nil
	}
	out := *snap
	out.Session.Token = logger.MaskJWT(out.Session.Token)
	if out.Session.User != nil {
		u := *out.Session.User
		u.Email = logger.MaskEmail(u.Email)
		out.Session.User = &u
	}
	return &out
}

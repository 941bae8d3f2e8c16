package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tendant/avatar-manifest/internal/watch"
	"github.com/tendant/avatar-manifest/pkg/manifest"
)

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build the manifest, then rebuild whenever the input changes",
		Args:  cobra.NoArgs,
		RunE:  c.runWatch,
	}
}

func (c *cli) runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := c.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, _ := cmd.Flags().GetBool("progress")
	b, err := newBuilder(cfg, log, progress)
	if err != nil {
		return err
	}
	defer b.Close()

	log.Info().Str("build", b.String()).Msg("Initial build")
	if _, err := b.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Initial build failed")
	}

	w, err := watch.NewWatcher(cfg.Input.Root, cfg.Watch.Debounce, b.Rebuild, log)
	if err != nil {
		return err
	}
	if err := w.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Watcher stopped")
		return err
	}

	log.Info().Msg("Shutting down")
	return nil
}

// Rebuild runs a build and logs how it changed the published manifest
func (b *builder) Rebuild(ctx context.Context) error {
	prev := b.published()

	result, err := b.Run(ctx)
	if err != nil {
		return err
	}

	event := b.log.Info().
		Int("groups", result.Groups).
		Int("items", result.Items).
		Int("changed", result.Changed)
	if prev != nil {
		event = event.
			Int("groups_delta", result.Groups-len(prev.Groups)).
			Int("items_delta", result.Items-prev.ItemCount())
	}
	event.Msg("Rebuilt")
	return nil
}

// published reads the manifest left by the previous build, if any
func (b *builder) published() *manifest.Manifest {
	data, err := os.ReadFile(b.cfg.ManifestPath())
	if err != nil {
		return nil
	}

	m, err := manifest.Parse(data)
	if err != nil {
		b.log.Debug().Err(err).Msg("Ignoring unreadable previous manifest")
		return nil
	}
	return m
}

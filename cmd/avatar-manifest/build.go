package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tendant/avatar-manifest/internal/config"
	"github.com/tendant/avatar-manifest/internal/ledger"
	"github.com/tendant/avatar-manifest/internal/metrics"
	"github.com/tendant/avatar-manifest/internal/output"
	"github.com/tendant/avatar-manifest/internal/revision"
	"github.com/tendant/avatar-manifest/internal/storage"
	"github.com/tendant/avatar-manifest/internal/utils"
	"github.com/tendant/avatar-manifest/internal/workflows"
	"github.com/tendant/avatar-manifest/pkg/manifest"
)

func (c *cli) buildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the manifest once",
		Args:  cobra.NoArgs,
		RunE:  c.runBuild,
	}
}

func (c *cli) runBuild(cmd *cobra.Command, args []string) error {
	cfg, log, err := c.load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, _ := cmd.Flags().GetBool("progress")
	b, err := newBuilder(cfg, log, progress)
	if err != nil {
		log.Error().Err(err).Msg("Build setup failed")
		return err
	}
	defer b.Close()

	if _, err := b.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Build failed")
		return err
	}
	return nil
}

// builder runs builds from one configuration. The ledger and metrics live as
// long as the builder so watch mode accumulates across rebuilds.
type builder struct {
	cfg      *config.Config
	log      *utils.Logger
	progress bool

	source  *storage.FilesystemStorage
	out     *storage.OutputTree
	writer  *output.Writer
	ledger  *ledger.Ledger
	metrics *metrics.Build
}

func newBuilder(cfg *config.Config, log *utils.Logger, progress bool) (*builder, error) {
	b := &builder{
		cfg:      cfg,
		log:      log,
		progress: progress,
		source:   storage.NewFilesystemStorage(cfg.Input.Root),
		out:      storage.NewOutputTree(cfg.Output.Directory),
		writer: output.NewWriter(output.WriterOptions{
			Path: cfg.ManifestPath(),
			Gzip: cfg.Output.Gzip,
		}),
	}

	if !cfg.Site.HasRepository() {
		log.Warn().
			Str("base_url", cfg.Site.PagesBaseURL()).
			Msg("No repository configured; set GITHUB_REPOSITORY or site.base_url")
	}

	if cfg.Ledger.DSN != "" {
		l, err := ledger.Open(cfg.Ledger.DSN)
		if err != nil {
			return nil, err
		}
		b.ledger = l
		log.Debug().Msg("Asset ledger enabled")
	}

	if cfg.Metrics.Textfile != "" {
		b.metrics = metrics.NewBuild()
	}

	return b, nil
}

// Run resolves the revision and executes one build
func (b *builder) Run(ctx context.Context) (*workflows.BuildResult, error) {
	rev, err := revision.Resolve(b.cfg.Site.Revision, b.cfg.Input.Root, b.cfg.Site.DetectRevision)
	if err != nil {
		return nil, err
	}

	baseURL := b.cfg.Site.PagesBaseURL()
	opts := workflows.BuildOptions{
		Source:            b.source,
		Writer:            b.writer,
		Output:            b.out,
		InputRoot:         b.cfg.Input.Root,
		BaseURL:           baseURL,
		Revision:          rev,
		GroupLinkTemplate: b.cfg.Site.GroupLinkTemplate,
		Metrics:           b.metrics,
		MetricsTextfile:   b.cfg.Metrics.Textfile,
		Logger:            b.log,
	}
	if b.ledger != nil {
		opts.Ledger = b.ledger
	}

	switch b.cfg.ModeValue() {
	case manifest.ModeTranscode:
		opts.Materializer = workflows.NewTranscodeMaterializer(b.source, b.out, baseURL, workflows.TranscodeOptions{
			MaxDimension: b.cfg.Transcode.MaxDimension,
			ThumbSize:    b.cfg.Transcode.ThumbSize,
			Format:       b.cfg.Transcode.Format,
			Quality:      b.cfg.Transcode.Quality,
		}, b.log)
	default:
		opts.Materializer = workflows.NewPassThroughMaterializer(baseURL, b.cfg.PublicPath())
	}

	if b.progress {
		opts.NewProgress = func(total int) utils.Progress {
			return utils.NewProgressBar(os.Stderr, total, utils.DescTranscoding)
		}
	}

	wf, err := workflows.NewBuildWorkflow(opts)
	if err != nil {
		return nil, err
	}
	return wf.Execute(ctx)
}

// Close releases the ledger connection
func (b *builder) Close() {
	if b.ledger == nil {
		return
	}
	if err := b.ledger.Close(); err != nil {
		b.log.Warn().Err(err).Msg("Failed to close ledger")
	}
}

func (b *builder) String() string {
	return fmt.Sprintf("%s -> %s (%s)", b.cfg.Input.Root, b.cfg.ManifestPath(), b.cfg.Mode)
}

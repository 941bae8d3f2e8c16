package workflows

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/avatar-manifest/internal/metrics"
	"github.com/tendant/avatar-manifest/internal/naming"
	"github.com/tendant/avatar-manifest/internal/storage"
	"github.com/tendant/avatar-manifest/internal/utils"
	"github.com/tendant/avatar-manifest/pkg/manifest"
)

// BuildOptions wires the dependencies of a build
type BuildOptions struct {
	Source       storage.Source
	Materializer Materializer
	Writer       ManifestWriter

	// Output and InputRoot are required in transcode mode, where the output
	// directory is cleared before any asset is written
	Output    *storage.OutputTree
	InputRoot string

	BaseURL  string
	Revision string
	// GroupLinkTemplate produces Group.Link; "{id}" is replaced with the escaped group id
	GroupLinkTemplate string

	// Optional
	Ledger          AssetLedger
	Metrics         *metrics.Build
	MetricsTextfile string
	NewProgress     func(total int) utils.Progress
	Logger          *utils.Logger
	Now             func() time.Time
}

// BuildWorkflow scans the input root and writes the manifest
type BuildWorkflow struct {
	opts BuildOptions
}

type plannedGroup struct {
	id      string
	sources []Source
}

// NewBuildWorkflow validates the options and creates a build workflow
func NewBuildWorkflow(opts BuildOptions) (*BuildWorkflow, error) {
	if opts.Source == nil || opts.Materializer == nil || opts.Writer == nil {
		return nil, fmt.Errorf("%w: source, materializer and writer are required", ErrInvalidOptions)
	}
	if opts.Materializer.Mode() == manifest.ModeTranscode && opts.Output == nil {
		return nil, fmt.Errorf("%w: transcode mode requires an output tree", ErrInvalidOptions)
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewProgress == nil {
		opts.NewProgress = func(int) utils.Progress { return utils.NopProgress() }
	}
	return &BuildWorkflow{opts: opts}, nil
}

// Name returns the workflow name
func (w *BuildWorkflow) Name() string {
	return "BuildWorkflow"
}

// Execute runs the build. Any failure other than an unreadable input
// directory aborts the whole build.
func (w *BuildWorkflow) Execute(ctx context.Context) (*BuildResult, error) {
	buildID := uuid.New().String()
	log := w.opts.Logger.WithBuild(buildID)
	mode := w.opts.Materializer.Mode()
	start := w.opts.Now()

	log.Info().Str("mode", string(mode)).Msg("Starting manifest build")

	// Step 1: Clear the output tree so renamed or deleted sources leave no stale assets
	if mode == manifest.ModeTranscode {
		if err := w.opts.Output.Reset(w.opts.InputRoot); err != nil {
			return nil, err
		}
		log.Debug().Str("dir", w.opts.Output.BaseDir()).Msg("Output directory reset")
	}

	// Step 2: Scan groups and filter eligible files
	plan, skipped, err := w.scan(ctx, log, mode)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, g := range plan {
		total += len(g.sources)
	}
	log.Info().Int("groups", len(plan)).Int("files", total).Int("skipped", skipped).Msg("Input scanned")
	if w.opts.Metrics != nil {
		w.opts.Metrics.SkippedFiles.Add(float64(skipped))
	}

	// Step 3: Materialize every item
	groups, changed, err := w.materialize(ctx, log, buildID, plan, total)
	if err != nil {
		return nil, err
	}

	// Step 4: Assemble
	m := manifest.Assemble(manifest.Meta{
		GeneratedAt: start.UTC().Format(time.RFC3339),
		Revision:    w.opts.Revision,
		BaseURL:     w.opts.BaseURL,
	}, groups)

	// Step 5: Serialize
	path, err := w.opts.Writer.Write(m)
	if err != nil {
		return nil, err
	}

	elapsed := w.opts.Now().Sub(start)
	result := &BuildResult{
		BuildID:      buildID,
		Manifest:     m,
		ManifestPath: path,
		Groups:       len(m.Groups),
		Items:        m.ItemCount(),
		Skipped:      skipped,
		Changed:      changed,
		Duration:     elapsed,
	}

	if err := w.recordMetrics(result, mode); err != nil {
		return nil, err
	}

	log.Info().
		Str("path", path).
		Int("groups", result.Groups).
		Int("items", result.Items).
		Int("changed", result.Changed).
		Dur("duration", elapsed).
		Msg("Manifest written")

	return result, nil
}

func (w *BuildWorkflow) scan(ctx context.Context, log *utils.Logger, mode manifest.Mode) ([]plannedGroup, int, error) {
	dirs, err := w.opts.Source.ListGroups(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}

	plan := make([]plannedGroup, 0, len(dirs))
	skipped := 0
	for _, dir := range dirs {
		files, err := w.opts.Source.ListFiles(ctx, dir)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list group %s: %w", dir, err)
		}

		g := plannedGroup{id: naming.GroupID(dir)}
		seen := make(map[string]string, len(files))
		for _, f := range files {
			if !naming.IsEligible(f) {
				skipped++
				log.Debug().Str("group", dir).Str("file", f).Msg("Skipping non-image file")
				continue
			}

			src := Source{Group: dir, Filename: f, ID: naming.ItemID(f)}
			// Transcoded files are named by id, so a shared stem would overwrite an asset
			if mode == manifest.ModeTranscode {
				if other, ok := seen[src.ID]; ok {
					return nil, 0, newItemError(src, "scan", fmt.Errorf("%w %q (also %s)", ErrDuplicateItem, src.ID, other))
				}
				seen[src.ID] = f
			}
			g.sources = append(g.sources, src)
		}

		if len(g.sources) == 0 {
			log.Debug().Str("group", dir).Msg("Omitting group without images")
			continue
		}
		plan = append(plan, g)
	}
	return plan, skipped, nil
}

func (w *BuildWorkflow) materialize(ctx context.Context, log *utils.Logger, buildID string, plan []plannedGroup, total int) ([]manifest.Group, int, error) {
	progress := w.opts.NewProgress(total)
	defer func() {
		if err := progress.Finish(); err != nil {
			log.Debug().Err(err).Msg("Failed to finish progress bar")
		}
	}()

	groups := make([]manifest.Group, 0, len(plan))
	changed := 0
	for _, pg := range plan {
		glog := log.WithGroup(pg.id)
		group := manifest.Group{
			ID:      pg.id,
			Name:    naming.DisplayName(pg.id),
			BaseURL: w.opts.Materializer.GroupBaseURL(pg.id),
			Link:    w.groupLink(pg.id),
			Items:   make([]manifest.Item, 0, len(pg.sources)),
		}

		for _, src := range pg.sources {
			if err := ctx.Err(); err != nil {
				return nil, 0, err
			}

			// The file may have been removed since the scan
			exists, err := w.opts.Source.Exists(ctx, storage.Key(src.Group, src.Filename))
			if err != nil {
				return nil, 0, newItemError(src, "stat", err)
			}
			if !exists {
				return nil, 0, newItemError(src, "stat", ErrSourceMissing)
			}

			item, err := w.opts.Materializer.Materialize(ctx, src)
			if err != nil {
				glog.Error().Err(err).Str("file", src.Filename).Msg("Failed to materialize item")
				return nil, 0, err
			}

			if w.opts.Ledger != nil && item.SHA256 != "" {
				entry, err := w.opts.Ledger.Record(ctx, buildID, src.Group+"/"+src.ID, item.SHA256, item.Bytes)
				if err != nil {
					return nil, 0, newItemError(src, "ledger", err)
				}
				if entry.Changed {
					changed++
					glog.Info().Str("file", src.Filename).Int("seen", entry.SeenCount).Msg("Asset changed")
				}
			}
			if w.opts.Metrics != nil && item.Bytes > 0 {
				w.opts.Metrics.AssetBytes.Add(float64(item.Bytes))
			}

			group.Items = append(group.Items, *item)
			if err := progress.Add(1); err != nil {
				glog.Debug().Err(err).Msg("Failed to update progress bar")
			}
		}

		glog.Debug().Int("items", len(group.Items)).Msg("Group built")
		groups = append(groups, group)
	}

	if w.opts.Metrics != nil {
		w.opts.Metrics.ChangedAssets.Add(float64(changed))
	}
	return groups, changed, nil
}

func (w *BuildWorkflow) groupLink(id string) string {
	if w.opts.GroupLinkTemplate == "" {
		return ""
	}
	return strings.ReplaceAll(w.opts.GroupLinkTemplate, "{id}", url.PathEscape(id))
}

func (w *BuildWorkflow) recordMetrics(result *BuildResult, mode manifest.Mode) error {
	if w.opts.Metrics == nil {
		return nil
	}

	w.opts.Metrics.Succeeded(string(mode), w.opts.Revision, result.Groups, result.Items, result.Duration, w.opts.Now())

	if w.opts.MetricsTextfile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(w.opts.MetricsTextfile), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	return w.opts.Metrics.WriteTextfile(w.opts.MetricsTextfile)
}

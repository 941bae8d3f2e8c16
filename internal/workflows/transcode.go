package workflows

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/tendant/avatar-manifest/internal/storage"
	"github.com/tendant/avatar-manifest/internal/utils"
	"github.com/tendant/avatar-manifest/pkg/manifest"
)

// Output subtrees for transcoded files
const (
	AssetsDir = "assets"
	ThumbsDir = "thumbs"
)

// TranscodeOptions controls the derived images
type TranscodeOptions struct {
	// MaxDimension bounds the optimized asset; smaller images are not upscaled
	MaxDimension int
	// ThumbSize is the side of the square, cropped-to-fill thumbnail
	ThumbSize int
	// Format is "jpeg" or "png"
	Format  string
	Quality int
}

// TranscodeMaterializer re-encodes each source into an optimized asset and a thumbnail
type TranscodeMaterializer struct {
	reader  storage.Reader
	writer  AssetWriter
	baseURL string
	opts    TranscodeOptions
	log     *utils.Logger
}

// NewTranscodeMaterializer creates a transcoding materializer
func NewTranscodeMaterializer(reader storage.Reader, writer AssetWriter, baseURL string, opts TranscodeOptions, log *utils.Logger) *TranscodeMaterializer {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 512
	}
	if opts.ThumbSize <= 0 {
		opts.ThumbSize = 128
	}
	if opts.Format == "" {
		opts.Format = "jpeg"
	}
	if opts.Quality <= 0 {
		opts.Quality = 82
	}
	if log == nil {
		log = utils.NewNopLogger()
	}

	return &TranscodeMaterializer{
		reader:  reader,
		writer:  writer,
		baseURL: baseURL,
		opts:    opts,
		log:     log.WithComponent("transcode"),
	}
}

// Mode implements Materializer
func (t *TranscodeMaterializer) Mode() manifest.Mode {
	return manifest.ModeTranscode
}

// GroupBaseURL implements Materializer
func (t *TranscodeMaterializer) GroupBaseURL(group string) string {
	return joinURL(t.baseURL, AssetsDir, group)
}

// Extension returns the file extension of derived files, including the dot
func (t *TranscodeMaterializer) Extension() string {
	if t.opts.Format == "png" {
		return ".png"
	}
	return ".jpg"
}

// Materialize implements Materializer
func (t *TranscodeMaterializer) Materialize(ctx context.Context, src Source) (*manifest.Item, error) {
	// Step 1: Read source image
	reader, err := t.reader.GetReader(ctx, storage.Key(src.Group, src.Filename))
	if err != nil {
		return nil, newItemError(src, "read", err)
	}
	defer reader.Close()

	imageData, err := io.ReadAll(reader)
	if err != nil {
		return nil, newItemError(src, "read", err)
	}

	// Step 2: Decode, honouring EXIF orientation
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, newItemError(src, "decode", fmt.Errorf("%w: %w", ErrTranscodeFailed, err))
	}

	// Step 3: Optimized asset (Fit never upscales) and square thumbnail
	optimized := imaging.Fit(img, t.opts.MaxDimension, t.opts.MaxDimension, imaging.Lanczos)
	thumbnail := imaging.Fill(img, t.opts.ThumbSize, t.opts.ThumbSize, imaging.Center, imaging.Lanczos)

	assetData, err := t.encode(optimized)
	if err != nil {
		return nil, newItemError(src, "encode", err)
	}
	thumbData, err := t.encode(thumbnail)
	if err != nil {
		return nil, newItemError(src, "encode", err)
	}

	// Step 4: Write derived files
	name := src.ID + t.Extension()
	if _, err := t.writer.Write(AssetsDir+"/"+src.Group+"/"+name, assetData); err != nil {
		return nil, newItemError(src, "write", err)
	}
	if _, err := t.writer.Write(ThumbsDir+"/"+src.Group+"/"+name, thumbData); err != nil {
		return nil, newItemError(src, "write", err)
	}

	sum := sha256.Sum256(assetData)
	bounds := optimized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	t.log.Debug().
		Str("group", src.Group).
		Str("file", src.Filename).
		Int("w", width).
		Int("h", height).
		Int("bytes", len(assetData)).
		Msg("Transcoded image")

	return &manifest.Item{
		ID:       src.ID,
		Filename: src.Filename,
		URL:      joinURL(t.baseURL, AssetsDir, src.Group, name),
		Thumb:    joinURL(t.baseURL, ThumbsDir, src.Group, name),
		Width:    &width,
		Height:   &height,
		Bytes:    int64(len(assetData)),
		SHA256:   hex.EncodeToString(sum[:]),
	}, nil
}

// encode renders img in the configured format. JPEG output is flattened
// onto white since JPEG has no alpha channel.
func (t *TranscodeMaterializer) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer

	switch t.opts.Format {
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("%w: PNG encode: %w", ErrTranscodeFailed, err)
		}
	default:
		b := img.Bounds()
		flat := imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Pt(0, 0), 1.0)
		if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(t.opts.Quality)); err != nil {
			return nil, fmt.Errorf("%w: JPEG encode: %w", ErrTranscodeFailed, err)
		}
	}

	return buf.Bytes(), nil
}

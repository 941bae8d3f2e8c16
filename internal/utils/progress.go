package utils

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// DescTranscoding is the progress description used while building
const DescTranscoding = "Transcoding"

// Progress is the subset of a progress bar the build loop drives
type Progress interface {
	Add(n int) error
	Finish() error
}

// NewProgressBar creates a progress bar over total items rendered to w
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
	)
}

type nopProgress struct{}

func (nopProgress) Add(int) error  { return nil }
func (nopProgress) Finish() error { return nil }

// NopProgress returns a Progress that does nothing
func NopProgress() Progress {
	return nopProgress{}
}

// SPDX-License-Identifier: Apache-2.0

package progress

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

type Bar interface {
	Add(int) error
	Add64(int64) error
	Close() error
}

type ProgressBar struct {
	*progressbar.ProgressBar
}

var theme = progressbar.Theme{
	Saucer:        "[green]=[reset]",
	SaucerHead:    "[green]>[reset]",
	SaucerPadding: " ",
	BarStart:      "[",
	BarEnd:        "]",
}

// NewBytesBar tracks the bytes read from an input of known size.
func NewBytesBar(totalBytes int64, description string, out io.Writer) *ProgressBar {
	return &ProgressBar{
		ProgressBar: progressbar.NewOptions64(totalBytes,
			progressbar.OptionSetWriter(out),
			progressbar.OptionShowCount(),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionSetWidth(20),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowTotalBytes(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetDescription(description),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(out, "\n")
			}),
			progressbar.OptionSetTheme(theme)),
	}
}

// NewCountBar counts items read from an input of unknown size, such as
// stdin. It renders as a spinner.
func NewCountBar(description, unit string, out io.Writer) *ProgressBar {
	return &ProgressBar{
		ProgressBar: progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString(unit),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetDescription(description),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprint(out, "\n")
			})),
	}
}

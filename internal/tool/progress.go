package tool

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/dennisklein/helmtask/internal/pipeline"
	"github.com/dennisklein/helmtask/internal/util"
)

// progressStep is the percentage between two reports; reports land on its
// multiples. Agent logs are line based, so every report is a new line
// rather than a redraw.
const progressStep = 10

var progressInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

// downloadProgress wraps a response body and reports how much of it has
// been read, both as a rendered bar and as a task.setprogress command.
//
//nolint:govet // fieldalignment: readability preferred over minor memory optimization
type downloadProgress struct {
	reader io.Reader
	total  int64
	read   int64
	last   int
	label  string
	bar    progress.Model
	out    io.Writer
	cmds   *pipeline.Commands
}

func newDownloadProgress(reader io.Reader, total int64, out io.Writer, label string) *downloadProgress {
	return &downloadProgress{
		reader: reader,
		total:  total,
		label:  label,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		),
		out:  out,
		cmds: pipeline.NewCommands(out),
	}
}

func (p *downloadProgress) Read(b []byte) (int, error) {
	n, err := p.reader.Read(b)
	p.read += int64(n)

	if p.total > 0 {
		step := min(int(p.read*100/p.total), 100) / progressStep * progressStep
		if step > p.last {
			p.report(step)
		}
	}

	return n, err
}

// done reports completion unless the last read already did.
func (p *downloadProgress) done() {
	if p.last != 100 {
		p.report(100)
	}
}

func (p *downloadProgress) report(pct int) {
	if pct > 100 {
		pct = 100
	}

	p.last = pct

	info := progressInfoStyle.Render(fmt.Sprintf("%3d%% (%s / %s)",
		pct, util.FormatBytes(p.read), util.FormatBytes(p.total)))

	_, _ = fmt.Fprintf(p.out, "%s %s %s\n", p.label, p.bar.ViewAs(float64(pct)/100), info) //nolint:errcheck // best effort progress display
	_ = p.cmds.SetProgress(pct, p.label)                                                    //nolint:errcheck // best effort progress display
}

// progressWriter prints plain status messages; a nil writer discards them.
type progressWriter struct {
	w io.Writer
}

func (pw progressWriter) printf(format string, args ...interface{}) error {
	if pw.w == nil {
		return nil
	}

	_, err := fmt.Fprintf(pw.w, format, args...)

	return err
}

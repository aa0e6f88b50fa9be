package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// Stage represents a processing stage
type Stage struct {
	Number      int
	Total       int
	Name        string
	Description string
}

var (
	StageValidate   = Stage{1, 3, "validate", "Validating audio file..."}
	StageTranscribe = Stage{2, 3, "transcribe", "Uploading to transcription service... (this may take a moment)"}
	StageExport     = Stage{3, 3, "export", "Exporting transcription..."}
)

var (
	stageColor = color.New(color.FgCyan, color.Bold)
	doneColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed, color.Bold)
)

// Reporter handles CLI progress output
type Reporter struct {
	out       io.Writer
	startTime time.Time
	verbose   bool
}

// NewReporter creates a new progress reporter
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{
		out:       out,
		startTime: time.Now(),
		verbose:   verbose,
	}
}

// StartStage announces the beginning of a processing stage
func (r *Reporter) StartStage(stage Stage) {
	stageColor.Fprintf(r.out, "[%d/%d] ", stage.Number, stage.Total)
	fmt.Fprintln(r.out, stage.Description)
}

// Update shows a sub-progress message within a stage
func (r *Reporter) Update(format string, args ...any) {
	if r.verbose {
		fmt.Fprintf(r.out, "       %s\n", fmt.Sprintf(format, args...))
	}
}

// StageComplete shows completion message for a stage
func (r *Reporter) StageComplete(format string, args ...any) {
	fmt.Fprintf(r.out, "       %s\n", fmt.Sprintf(format, args...))
}

// Saved reports a file written to disk
func (r *Reporter) Saved(path string) {
	doneColor.Fprint(r.out, "       saved ")
	fmt.Fprintln(r.out, path)
}

// Done announces successful completion
func (r *Reporter) Done(outputDir string) {
	elapsed := time.Since(r.startTime)
	doneColor.Fprintln(r.out, "Done! Transcription exported successfully.")
	if outputDir != "" {
		fmt.Fprintf(r.out, "Output saved to: %s\n", outputDir)
	}
	fmt.Fprintf(r.out, "Completed in %.1f seconds\n", elapsed.Seconds())
}

// Error announces an error
func (r *Reporter) Error(err error) {
	errColor.Fprint(r.out, "Error: ")
	fmt.Fprintln(r.out, err)
}

// Warning announces a non-fatal warning
func (r *Reporter) Warning(format string, args ...any) {
	warnColor.Fprint(r.out, "Warning: ")
	fmt.Fprintln(r.out, fmt.Sprintf(format, args...))
}

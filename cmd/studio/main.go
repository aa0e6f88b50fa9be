package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dygy/transcription-studio/internal/analysis"
	"github.com/dygy/transcription-studio/internal/audio"
	"github.com/dygy/transcription-studio/internal/cache"
	"github.com/dygy/transcription-studio/internal/client"
	"github.com/dygy/transcription-studio/internal/config"
	"github.com/dygy/transcription-studio/internal/export"
	"github.com/dygy/transcription-studio/internal/midi"
	"github.com/dygy/transcription-studio/internal/progress"
	"github.com/dygy/transcription-studio/internal/render"
	"github.com/dygy/transcription-studio/internal/server"
	"github.com/dygy/transcription-studio/internal/song"
	"github.com/dygy/transcription-studio/internal/studio"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "studio",
	Short: "Transcribe audio with a remote service and export the results",
	Long: `Transcription studio uploads audio to a music transcription service
and turns the returned analysis into piano, guitar and drum views.

Exports: PDF (per view), MIDI, MusicXML and Standard MIDI File.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if cmd.Flags().Changed("api-url") {
			cfg.APIBaseURL = apiURL
		}
		if cmd.Flags().Changed("timeout") {
			cfg.HTTPTimeout = timeout
		}
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <audio>",
	Short: "Upload an audio file and export the transcription",
	Long: `Upload a WAV or MP3 file to the transcription service and export
the result. When the service fails, exports fall back to the demo views.

Examples:
  studio transcribe song.wav
  studio transcribe take.mp3 --export pdf,musicxml --view guitar -o out/`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var exportCmd = &cobra.Command{
	Use:   "export <format>",
	Short: "Export without uploading (pdf, midi, musicxml, smf)",
	Long: `Export song metadata, optionally backed by a saved transcription
response.

Examples:
  studio export musicxml --title "My Song" --key "D Major"
  studio export pdf --analysis response.json --view drums`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var midiCmd = &cobra.Command{
	Use:   "midi <file-id>",
	Short: "Download the MIDI file of a transcription",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDI,
}

var analysisCmd = &cobra.Command{
	Use:   "analysis <file-id>",
	Short: "Print the stored analysis of a transcription",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalysis,
}

var probeCmd = &cobra.Command{
	Use:   "probe <audio>",
	Short: "Show format, tags and duration of an audio file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProbe,
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Show or clear cached transcription responses",
	RunE:  runCache,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API for uploads, views and exports.

Example:
  studio serve --port 8080`,
	RunE: runServe,
}

var (
	cfg     config.Config
	apiURL  string
	timeout time.Duration

	// shared
	outDir  string
	view    string
	verbose bool

	// transcribe
	exportFormats []string
	titleFromTags bool
	saveAnalysis  bool
	noCache       bool

	// cache
	clearCache bool

	// export
	songTitle    string
	songKey      string
	songTempo    int
	songTime     string
	analysisPath string

	// midi
	midiTitle string

	// serve
	port int
)

func init() {
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(analysisCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(serveCmd)

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Transcription service URL (default $STUDIO_API_URL or http://localhost:8000)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "HTTP timeout for service calls (0 = none)")

	// Transcribe command flags
	transcribeCmd.Flags().StringSliceVarP(&exportFormats, "export", "e", []string{"pdf", "midi", "musicxml"}, "Formats to export (pdf, midi, musicxml, smf)")
	transcribeCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default $STUDIO_OUTPUT_DIR or .)")
	transcribeCmd.Flags().StringVar(&view, "view", "piano", "View exported to PDF (piano, guitar, drums)")
	transcribeCmd.Flags().BoolVar(&titleFromTags, "title-from-tags", false, "Use the ID3 title instead of the filename")
	transcribeCmd.Flags().BoolVar(&saveAnalysis, "save-analysis", false, "Save the raw service response as <title>_analysis.json")
	transcribeCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the response cache (force a fresh upload)")
	transcribeCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Cache command flags
	cacheCmd.Flags().BoolVar(&clearCache, "clear", false, "Remove every cached response")

	// Export command flags
	exportCmd.Flags().StringVar(&songTitle, "title", "", "Song title")
	exportCmd.Flags().StringVar(&songKey, "key", "", "Key, e.g. \"A Minor\"")
	exportCmd.Flags().IntVar(&songTempo, "tempo", 0, "Tempo in BPM")
	exportCmd.Flags().StringVar(&songTime, "time", "", "Time signature, e.g. 3/4")
	exportCmd.Flags().StringVar(&analysisPath, "analysis", "", "Saved transcription response (JSON)")
	exportCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	exportCmd.Flags().StringVar(&view, "view", "piano", "View exported to PDF (piano, guitar, drums)")

	// MIDI command flags
	midiCmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	midiCmd.Flags().StringVar(&midiTitle, "title", "", "File name without extension (default: file id)")

	// Serve command flags
	serveCmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default $STUDIO_PORT or 8080)")
}

// signalContext cancels on interrupt
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func outputDir() string {
	if outDir != "" {
		return outDir
	}
	return cfg.OutputDir
}

func newClient() *client.Client {
	return client.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
}

// reportingSink writes into a directory and reports each saved file
type reportingSink struct {
	export.DirSink
	reporter *progress.Reporter
}

func (s reportingSink) Deliver(data []byte, filename, mimeType string) error {
	if err := s.DirSink.Deliver(data, filename, mimeType); err != nil {
		return err
	}
	s.reporter.Saved(s.Path(filename))
	return nil
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	v, err := render.ParseView(view)
	if err != nil {
		return err
	}
	formats, err := parseFormats(exportFormats)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(os.Stdout, verbose)
	c := newClient()
	job := transcribeJob{
		shell:         studio.New(c, nil),
		reporter:      reporter,
		sink:          reportingSink{DirSink: export.DirSink{Dir: outputDir()}, reporter: reporter},
		responses:     openCache(c.BaseURL(), reporter),
		view:          v,
		formats:       formats,
		titleFromTags: titleFromTags,
		saveAnalysis:  saveAnalysis,
	}
	if _, err := job.run(ctx, args[0]); err != nil {
		return err
	}

	reporter.Done(outputDir())
	return nil
}

// openCache returns nil when caching is off or unavailable
func openCache(source string, reporter *progress.Reporter) *cache.ResponseCache {
	if noCache {
		return nil
	}
	responses, err := cache.New(cfg.CacheDir, source)
	if err != nil {
		reporter.Update("Cache unavailable: %v", err)
		return nil
	}
	return responses
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	format, err := studio.ParseFormat(args[0])
	if err != nil {
		return err
	}
	v, err := render.ParseView(view)
	if err != nil {
		return err
	}

	st := studio.State{View: v}
	if analysisPath != "" {
		resp, err := analysis.Load(analysisPath)
		if err != nil {
			return err
		}
		st.Transcription = resp
		st.AudioName = resp.Filename
	}

	info := st.SongInfo()
	if cmd.Flags().Changed("title") {
		info.Title = songTitle
	}
	if cmd.Flags().Changed("key") {
		info.Key = songKey
	}
	if cmd.Flags().Changed("tempo") {
		info.Tempo = songTempo
	}
	if cmd.Flags().Changed("time") {
		if _, _, err := song.ParseTimeSignature(songTime); err != nil {
			return err
		}
		info.TimeSignature = songTime
	}
	st.Song = &info

	reporter := progress.NewReporter(os.Stdout, false)
	sink := reportingSink{DirSink: export.DirSink{Dir: outputDir()}, reporter: reporter}
	if err := studio.New(newClient(), nil).Export(ctx, st, format, sink); err != nil {
		reporter.Error(err)
		return err
	}
	return nil
}

func runMIDI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	fileID := args[0]
	data, err := newClient().DownloadMIDI(ctx, fileID)
	if err != nil {
		return err
	}

	title := midiTitle
	if title == "" {
		title = fileID
	}
	sink := export.DirSink{Dir: outputDir()}
	if err := sink.Deliver(data, title+".mid", "audio/midi"); err != nil {
		return err
	}

	fmt.Printf("Saved %s (%d bytes)\n", sink.Path(title+".mid"), len(data))
	seq, err := midi.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read MIDI contents: %v\n", err)
		return nil
	}
	fmt.Printf("Tempo:    %.0f BPM\n", seq.BPM)
	fmt.Printf("Notes:    %d\n", len(seq.Notes))
	fmt.Printf("Duration: %.1fs\n", seq.Duration)
	if len(seq.TrackNames) > 0 {
		fmt.Printf("Tracks:   %s\n", strings.Join(seq.TrackNames, ", "))
	}
	return nil
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	raw, err := newClient().GetAnalysis(ctx, args[0])
	if err != nil {
		return err
	}
	os.Stdout.Write(indentJSON(raw))
	fmt.Println()
	return nil
}

func indentJSON(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return raw
	}
	return buf.Bytes()
}

func runProbe(cmd *cobra.Command, args []string) error {
	meta, err := audio.Probe(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Format:   %s\n", meta.Format)
	if meta.Title != "" {
		fmt.Printf("Title:    %s\n", meta.Title)
	}
	if meta.Artist != "" {
		fmt.Printf("Artist:   %s\n", meta.Artist)
	}
	if meta.Duration > 0 {
		fmt.Printf("Duration: %.1fs\n", meta.Duration)
	}
	fmt.Printf("Song:     %s\n", song.TitleFromFilename(filepath.Base(args[0])))
	return nil
}

func runCache(cmd *cobra.Command, args []string) error {
	responses, err := cache.New(cfg.CacheDir, cfg.APIBaseURL)
	if err != nil {
		return err
	}
	if clearCache {
		if err := responses.Clear(); err != nil {
			return err
		}
		fmt.Printf("Cleared %s\n", responses.Dir())
		return nil
	}

	size, count, err := responses.Size()
	if err != nil {
		return err
	}
	fmt.Printf("Cache:     %s\n", responses.Dir())
	fmt.Printf("Responses: %d (%.1f KB)\n", count, float64(size)/1024)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if port > 0 {
		cfg.Port = port
	}

	shell := studio.New(newClient(), nil)
	srv := server.New(server.Config{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		SessionTTL:     cfg.SessionTTL,
	}, shell, nil)

	return srv.Run()
}

// Package client talks to the remote transcription service. It uploads audio
// for analysis, downloads the rendered MIDI and fetches stored analyses.
// Calls are single-shot: there is no retry, and cancellation comes from the
// caller's context.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/dygy/transcription-studio/internal/analysis"
	"github.com/dygy/transcription-studio/internal/audio"
	apperrors "github.com/dygy/transcription-studio/internal/errors"
)

const defaultBaseURL = "http://localhost:8000"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client. A zero timeout leaves requests bounded only
// by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// TranscribeAudio uploads audio as multipart field "file" to POST /transcribe/
func (c *Client) TranscribeAudio(ctx context.Context, filename string, r io.Reader) (*analysis.TranscriptionResponse, error) {
	var head bytes.Buffer
	format, err := audio.DetectFormat(io.TeeReader(r, &head), filename)
	if err != nil {
		return nil, err
	}
	r = io.MultiReader(&head, r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	partHeader.Set("Content-Type", format.ContentType())

	part, err := mw.CreatePart(partHeader)
	if err != nil {
		return nil, fmt.Errorf("transcription client: build form: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("transcription client: read audio: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("transcription client: build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe/", &body)
	if err != nil {
		return nil, fmt.Errorf("transcription client: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	data, err := c.do(req, "Transcription", apperrors.ErrTranscriptionFailed)
	if err != nil {
		return nil, err
	}

	resp, err := analysis.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("transcription client: %w", err)
	}
	return resp, nil
}

// DownloadMIDI fetches the MIDI file produced for a transcription
func (c *Client) DownloadMIDI(ctx context.Context, fileID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/download/midi/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("transcription client: build request: %w", err)
	}
	return c.do(req, "MIDI download", apperrors.ErrMidiDownloadFailed)
}

// GetAnalysis returns the stored analysis for a transcription as-is
func (c *Client) GetAnalysis(ctx context.Context, fileID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/analysis/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("transcription client: build request: %w", err)
	}
	data, err := c.do(req, "Analysis fetch", apperrors.ErrAnalysisFetchFailed)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("transcription client: analysis is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func (c *Client) do(req *http.Request, op string, kind error) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription client: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return nil, apperrors.NewHTTPError(op, kind, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transcription client: read response: %w", err)
	}
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

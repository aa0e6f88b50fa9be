package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
)

var wavHeader = append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)

const transcribeBody = `{"file_id":"abc-123","filename":"take.wav","midi_url":"/download/midi/abc-123","analysis":{"tempo":96.0,"key":"D Minor","time_signature":"4/4","duration":3.2,"notes":[],"chord_progression":["Dm","A"],"instruments":{"piano":{"detected":false,"confidence":0,"notes":[]},"guitar":{"detected":true,"confidence":0.5,"chords":["Dm"]},"drums":{"detected":false,"confidence":0,"pattern":"None"}}}}`

func TestClient_TranscribeAudio(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		responseBody string
		wantErr      error
		wantMessage  string
	}{
		{
			name:         "Success",
			status:       http.StatusOK,
			responseBody: transcribeBody,
		},
		{
			name:         "Server error",
			status:       http.StatusInternalServerError,
			responseBody: `{"detail":"Transcription failed: boom"}`,
			wantErr:      apperrors.ErrTranscriptionFailed,
			wantMessage:  "Internal Server Error",
		},
		{
			name:         "Unsupported type",
			status:       http.StatusBadRequest,
			responseBody: `{"detail":"Unsupported file type"}`,
			wantErr:      apperrors.ErrTranscriptionFailed,
			wantMessage:  "Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotField, gotFilename, gotType string
			var gotSize int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/transcribe/" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				if r.Method != http.MethodPost {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				mr, err := r.MultipartReader()
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				part, err := mr.NextPart()
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				gotField = part.FormName()
				gotFilename = part.FileName()
				gotType = part.Header.Get("Content-Type")
				data, _ := io.ReadAll(part)
				gotSize = len(data)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.responseBody))
			}))
			defer srv.Close()

			client := NewClient(srv.URL+"/", 0)
			resp, err := client.TranscribeAudio(context.Background(), "take.wav", bytes.NewReader(wavHeader))

			assert.Equal(t, "file", gotField)
			assert.Equal(t, "take.wav", gotFilename)
			assert.Equal(t, "audio/wav", gotType)
			assert.Equal(t, len(wavHeader), gotSize)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.wantMessage)

				var httpErr *apperrors.HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, tt.status, httpErr.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "abc-123", resp.FileID)
			assert.Equal(t, "D Minor", resp.Analysis.Key)
			assert.Equal(t, transcribeBody, string(resp.Raw), "raw body preserved")
		})
	}
}

func TestClient_TranscribeAudioRejectsUnknownFormat(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.TranscribeAudio(context.Background(), "notes.txt", strings.NewReader("plain text body"))

	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
	assert.False(t, called, "no request is sent")
}

func TestClient_DownloadMIDI(t *testing.T) {
	payload := []byte("MThd\x00\x00\x00\x06\x00\x01\x00\x01\x01\xe0MTrk\x00\x00\x00\x04\x00\xff\x2f\x00")

	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"Success", http.StatusOK, false},
		{"Not found", http.StatusNotFound, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				w.Header().Set("Content-Type", "audio/midi")
				w.WriteHeader(tt.status)
				if tt.status == http.StatusOK {
					_, _ = w.Write(payload)
				}
			}))
			defer srv.Close()

			client := NewClient(srv.URL, time.Second)
			data, err := client.DownloadMIDI(context.Background(), "abc-123")

			assert.Equal(t, "/download/midi/abc-123", gotPath)
			if tt.wantErr {
				require.ErrorIs(t, err, apperrors.ErrMidiDownloadFailed)
				assert.Contains(t, err.Error(), "Not Found")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, payload, data)
		})
	}
}

func TestClient_GetAnalysis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/analysis/good":
			_, _ = w.Write([]byte(`{"tempo":120,"extra":{"nested":true}}`))
		case "/analysis/broken":
			_, _ = w.Write([]byte(`{"tempo":`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)

	raw, err := client.GetAnalysis(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, `{"tempo":120,"extra":{"nested":true}}`, string(raw))

	_, err = client.GetAnalysis(context.Background(), "broken")
	assert.Error(t, err, "invalid JSON")

	_, err = client.GetAnalysis(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrAnalysisFetchFailed)
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(srv.URL, 0)
	_, err := client.DownloadMIDI(ctx, "abc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClientDefaults(t *testing.T) {
	assert.Equal(t, defaultBaseURL, NewClient("", 0).BaseURL())
	assert.Equal(t, "http://svc:8000", NewClient("http://svc:8000/", 0).BaseURL())
}

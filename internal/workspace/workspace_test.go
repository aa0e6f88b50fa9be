package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
)

func TestWorkspaceLifecycle(t *testing.T) {
	ws, err := Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	path, err := ws.SaveAudio("../../song.wav", strings.NewReader("RIFF data"), 1024)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(ws.Dir, "audio") {
		t.Errorf("audio escaped workspace: %s", path)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "RIFF data" {
		t.Errorf("unexpected content %q", data)
	}

	if err := ws.WriteFile(ws.AnalysisJSON(), []byte("{}")); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ws.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Errorf("workspace still exists")
	}
}

func TestSaveAudioLimit(t *testing.T) {
	ws, err := Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer ws.Cleanup()

	_, err = ws.SaveAudio("big.wav", strings.NewReader(strings.Repeat("x", 20)), 10)
	if !errors.Is(err, apperrors.ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if _, err := os.Stat(ws.Audio("big.wav")); !os.IsNotExist(err) {
		t.Errorf("oversized upload was kept")
	}
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dygy/transcription-studio/internal/audio"
	apperrors "github.com/dygy/transcription-studio/internal/errors"
	"github.com/dygy/transcription-studio/internal/export"
	"github.com/dygy/transcription-studio/internal/render"
	"github.com/dygy/transcription-studio/internal/song"
	"github.com/dygy/transcription-studio/internal/studio"
)

// multipart overhead allowed on top of the audio itself
const uploadSlack = 1 << 20

// sessionResponse is the JSON view of a session
type sessionResponse struct {
	ID            string          `json:"id"`
	Filename      string          `json:"filename,omitempty"`
	Song          song.Info       `json:"song"`
	FileID        string          `json:"file_id,omitempty"`
	Transcription json.RawMessage `json:"transcription"`
	Error         string          `json:"error,omitempty"`
	View          render.View     `json:"view"`
	Views         []render.View   `json:"views"`
	Exports       []studio.Format `json:"exports"`
}

func newSessionResponse(sess *Session) sessionResponse {
	st := sess.State()
	resp := sessionResponse{
		ID:            sess.ID,
		Filename:      st.AudioName,
		Song:          st.SongInfo(),
		Transcription: json.RawMessage("null"),
		View:          st.ActiveView(),
		Views:         render.Views,
		Exports:       studio.Formats,
	}
	if st.Transcription != nil {
		resp.FileID = st.Transcription.FileID
		if len(st.Transcription.Raw) > 0 {
			resp.Transcription = st.Transcription.Raw
		} else if raw, err := json.Marshal(st.Transcription); err == nil {
			resp.Transcription = raw
		}
	}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	return resp
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleUpload stores an audio file in a new session and transcribes it
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, audio.MaxFileSize+uploadSlack)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large. Maximum size is 100MB.")
			return
		}
		writeError(w, http.StatusBadRequest, "Please upload an audio file in the \"file\" field.")
		return
	}
	defer file.Close()

	if _, err := audio.DetectFormat(file, header.Filename); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, apperrors.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, err.Error())
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read upload.")
		return
	}

	sess, err := s.sessions.Create()
	if err != nil {
		s.logger.Error("create session", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to create session.")
		return
	}

	path, err := sess.Workspace().SaveAudio(header.Filename, file, audio.MaxFileSize)
	if err != nil {
		s.sessions.Remove(sess.ID)
		if errors.Is(err, apperrors.ErrFileTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		s.logger.Error("save upload", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	st := studio.State{AudioPath: path}
	if err := s.transcribe(r, sess, &st, header.Filename); err != nil {
		s.logger.Warn("transcription unavailable, serving demo views",
			slog.String("session", sess.ID),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Any("error", err),
		)
	}
	sess.SetState(st)

	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) transcribe(r *http.Request, sess *Session, st *studio.State, filename string) error {
	f, err := os.Open(st.AudioPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.shell.Upload(r.Context(), st, filename, f); err != nil {
		return err
	}
	if len(st.Transcription.Raw) > 0 {
		ws := sess.Workspace()
		if err := ws.WriteFile(ws.AnalysisJSON(), st.Transcription.Raw); err != nil {
			s.logger.Warn("keep analysis", slog.Any("error", err))
		}
	}
	return nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found.")
		return nil, false
	}
	return sess, true
}

// handleSession returns the session's song info and transcription
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleDeleteSession discards a session and its files
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.sessions.Remove(sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleSelectView switches the active view
func (s *Server) handleSelectView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var body struct {
		View string `json:"view"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<10)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	view, err := render.ParseView(body.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.Update(func(st *studio.State) { st.View = view })
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// handleAudio serves the uploaded audio for playback
func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	st := sess.State()
	format, err := audio.ValidateInput(st.AudioPath)
	if err != nil {
		writeError(w, http.StatusNotFound, "Audio file not available.")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "private, max-age=3600")
	http.ServeFile(w, r, st.AudioPath)
}

// handleView serves a PNG raster of one instrument view
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	view, err := render.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	st := sess.State()
	img, err := render.BuildView(view, st.SongInfo(), st.Analysis()).Rasterize(1)
	if err != nil {
		s.logger.Error("rasterize view", slog.String("view", string(view)), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to render view.")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if err := render.EncodePNG(w, img); err != nil {
		s.logger.Error("encode view", slog.Any("error", err))
	}
}

// handleExport runs an exporter and returns its file as an attachment
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	format, err := studio.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := sess.State()
	if v := r.URL.Query().Get("view"); v != "" {
		view, err := render.ParseView(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		st.View = view
	}

	sink := &export.MemorySink{}
	if err := s.shell.Export(r.Context(), st, format, sink); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, apperrors.ErrMidiDownloadFailed) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err.Error())
		return
	}

	f, ok := sink.Last()
	if !ok {
		writeError(w, http.StatusInternalServerError, "Export produced no file.")
		return
	}

	w.Header().Set("Content-Type", f.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Content-Length", fmt.Sprint(len(f.Data)))
	w.Write(f.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

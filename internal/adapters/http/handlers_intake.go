package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

type openDraftRequest struct {
	Type domain.DocumentType `json:"type"`
}

type extractionResponse struct {
	Draft      *domain.Draft     `json:"draft"`
	Extraction domain.Extraction `json:"extraction"`
}

func (rt *Router) openDraft(w http.ResponseWriter, r *http.Request) {
	var req openDraftRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	draft, err := rt.intake.Open(r.Context(), req.Type)
	if err != nil {
		writeError(w, r, "open draft", err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (rt *Router) getDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := rt.intake.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "get draft", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) updateDraft(w http.ResponseWriter, r *http.Request) {
	var patch domain.FormPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	draft, err := rt.intake.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, "update draft", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) cancelDraft(w http.ResponseWriter, r *http.Request) {
	if err := rt.intake.Cancel(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, "cancel draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) attachFile(w http.ResponseWriter, r *http.Request) {
	limit := rt.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": fmt.Sprintf("upload exceeds %d bytes", limit)})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	draft, extraction, err := rt.intake.AttachFile(
		r.Context(),
		r.PathValue("id"),
		header.Filename,
		partMediaType(header.Header.Get("Content-Type"), header.Filename),
		file,
	)
	if err != nil {
		writeError(w, r, "attach file", err)
		return
	}
	writeJSON(w, http.StatusOK, extractionResponse{Draft: draft, Extraction: extraction})
}

func (rt *Router) startCapture(w http.ResponseWriter, r *http.Request) {
	draft, err := rt.intake.StartCapture(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "start capture", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// captureFrame takes the encoded frame as the raw request body.
func (rt *Router) captureFrame(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, rt.maxUploadBytes())
	draft, extraction, err := rt.intake.Capture(
		r.Context(),
		r.PathValue("id"),
		r.Header.Get("Content-Type"),
		body,
	)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "frame is too large"})
			return
		}
		writeError(w, r, "capture frame", err)
		return
	}
	writeJSON(w, http.StatusOK, extractionResponse{Draft: draft, Extraction: extraction})
}

func (rt *Router) submitDraft(w http.ResponseWriter, r *http.Request) {
	receipt, err := rt.intake.Submit(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, "submit draft", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

// partMediaType trusts the part header unless it is missing or generic.
func partMediaType(header, filename string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err == nil && mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return header
}

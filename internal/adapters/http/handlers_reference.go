package httpadapter

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/document-intake/internal/core/domain"
	"github.com/kirillkom/document-intake/internal/infrastructure/export/xlsx"
)

func (rt *Router) listDepartments(w http.ResponseWriter, r *http.Request) {
	var docType domain.DocumentType
	if err := runtime.BindQueryParameter("form", true, false, "type", r.URL.Query(), &docType); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	departments, err := rt.departments.ListDepartments(r.Context(), docType)
	if err != nil {
		writeError(w, r, "list departments", err)
		return
	}
	if departments == nil {
		departments = []domain.Department{}
	}
	writeJSON(w, http.StatusOK, departments)
}

func (rt *Router) inferSubject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	subject, found := domain.InferSubject(req.Text)
	writeJSON(w, http.StatusOK, map[string]any{"subject": subject, "found": found})
}

func (rt *Router) listSubmissions(w http.ResponseWriter, r *http.Request) {
	if rt.submissions == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "submission journal is disabled"})
		return
	}
	limit, ok := bindLimit(w, r)
	if !ok {
		return
	}

	records, err := rt.submissions.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, "list submissions", err)
		return
	}
	if records == nil {
		records = []domain.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (rt *Router) exportSubmissions(w http.ResponseWriter, r *http.Request) {
	if rt.submissions == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "submission journal is disabled"})
		return
	}
	limit, ok := bindLimit(w, r)
	if !ok {
		return
	}

	records, err := rt.submissions.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, r, "export submissions", err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.WriteRegister(&buf, records); err != nil {
		writeError(w, r, "export submissions", err)
		return
	}
	filename := fmt.Sprintf("register-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) getArchived(w http.ResponseWriter, r *http.Request) {
	if rt.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "archive is disabled"})
		return
	}
	name := r.PathValue("name")
	rc, err := rt.archive.Open(r.Context(), name)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "archived document not found"})
			return
		}
		writeError(w, r, "open archive", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentTypePDF)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", name))
	w.Header().Set("Cache-Control", archiveCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

func bindLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	var limit int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return 0, false
	}
	return limit, true
}

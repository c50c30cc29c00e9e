package records

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kirillkom/document-intake/internal/core/domain"
)

func TestListDepartmentsPassesType(t *testing.T) {
	var gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/department" {
			http.NotFound(w, r)
			return
		}
		gotType = r.URL.Query().Get("type")
		_, _ = w.Write([]byte(`[{"_id":"fin","name":"Finance","categories":["budget"]},{"_id":"reg","name":"Registry"}]`))
	}))
	defer server.Close()

	departments, err := New(server.URL, time.Second).ListDepartments(context.Background(), domain.TypeUni)
	if err != nil {
		t.Fatalf("ListDepartments() error = %v", err)
	}
	if gotType != "uni" {
		t.Fatalf("expected type=uni, got %q", gotType)
	}
	if len(departments) != 2 || departments[0].ID != "fin" || departments[0].Categories[0] != "budget" {
		t.Fatalf("unexpected departments %+v", departments)
	}
	if departments[1].Categories == nil {
		t.Fatalf("expected empty category slice, got nil")
	}
}

func TestListDepartmentsServerErrorIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "db offline", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).ListDepartments(context.Background(), domain.TypeAll)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestSubmitSendsFieldsInOrder(t *testing.T) {
	var names []string
	var values = map[string]string{}
	var fileType, fileName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/scanupload" {
			http.NotFound(w, r)
			return
		}
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("parse content type: %v", err)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				return
			}
			names = append(names, part.FormName())
			data, _ := io.ReadAll(part)
			values[part.FormName()] = string(data)
			if part.FormName() == "file" {
				fileType = part.Header.Get("Content-Type")
				fileName = part.FileName()
			}
		}
		_, _ = w.Write([]byte(`{"message":"Document saved"}`))
	}))
	defer server.Close()

	receipt, err := New(server.URL, time.Second).Submit(context.Background(), domain.SubmissionPayload{
		Filename:    "captured_image.pdf",
		ContentType: domain.MimePDF,
		Data:        []byte("%PDF-1.7"),
		Form: domain.FormState{
			Type: domain.TypeAdmin, Department: "fin", Category: "budget", Subject: "Budget",
			Date: "2026-03-14", DiaryNo: "D-1", From: "Dean", Disposal: "File", Status: domain.StatusOpen,
		},
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if receipt.Message != "Document saved" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	want := []string{"file", "type", "department", "category", "subject", "date", "diaryNo", "from", "disposal", "status"}
	if len(names) != len(want) {
		t.Fatalf("parts = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("parts = %v, want %v", names, want)
		}
	}
	if fileType != "application/pdf" || fileName != "captured_image.pdf" || values["file"] != "%PDF-1.7" {
		t.Fatalf("unexpected file part type=%q name=%q", fileType, fileName)
	}
	if values["diaryNo"] != "D-1" || values["status"] != "open" {
		t.Fatalf("unexpected values %v", values)
	}
}

func TestSubmitRejectionCarriesBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Diary number exists"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Submit(context.Background(), domain.SubmissionPayload{Filename: "a.pdf", Data: []byte("x")})
	var rejected *domain.RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.StatusCode != http.StatusBadRequest || err.Error() != "Diary number exists" {
		t.Fatalf("unexpected rejection %+v", rejected)
	}
}

func TestSubmitRejectionWithoutBodyUsesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second).Submit(context.Background(), domain.SubmissionPayload{Filename: "a.pdf", Data: []byte("x")})
	if !domain.IsKind(err, domain.ErrSubmissionRejected) {
		t.Fatalf("expected ErrSubmissionRejected, got %v", err)
	}
	if err.Error() != "backend returned status 500" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSubmitUnreachableBackendIsTemporary(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := New(url, time.Second).Submit(context.Background(), domain.SubmissionPayload{Filename: "a.pdf", Data: []byte("x")})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

package domain

import "testing"

func TestSelectDepartmentResetsCategory(t *testing.T) {
	d := &Draft{
		Departments: []Department{
			{ID: "d1", Name: "Finance", Categories: []string{"budget", "audit"}},
			{ID: "d2", Name: "Registry", Categories: []string{"exams"}},
		},
	}
	d.SelectDepartment("d1")
	d.Form.Category = "audit"

	d.SelectDepartment("d2")
	if d.Form.Category != "" {
		t.Fatalf("expected category reset, got %q", d.Form.Category)
	}
	if len(d.Categories) != 1 || d.Categories[0] != "exams" {
		t.Fatalf("expected categories of d2 only, got %v", d.Categories)
	}

	d.SelectDepartment("unknown")
	if len(d.Categories) != 0 {
		t.Fatalf("expected no categories for unknown department, got %v", d.Categories)
	}
}

func TestSetSourceInvalidatesOtherPath(t *testing.T) {
	d := &Draft{Camera: CameraPreviewing}
	d.SetSource(&DocumentSource{Kind: SourceFile, MimeType: MimePDF})
	if d.Camera != CameraIdle {
		t.Fatalf("expected camera idle after file attach, got %s", d.Camera)
	}

	d.SetSource(&DocumentSource{Kind: SourceCapture, MimeType: MimeJPEG})
	if d.Camera != CameraCaptured {
		t.Fatalf("expected camera captured, got %s", d.Camera)
	}
	if d.Source.Kind != SourceCapture {
		t.Fatalf("expected capture source, got %s", d.Source.Kind)
	}
}

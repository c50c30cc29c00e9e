package domain

import "time"

type DocumentType string

const (
	TypeAll   DocumentType = "all"
	TypeUni   DocumentType = "uni"
	TypeAdmin DocumentType = "admin"
)

func (t DocumentType) Valid() bool {
	switch t {
	case TypeAll, TypeUni, TypeAdmin:
		return true
	default:
		return false
	}
}

type Status string

const (
	StatusUnset  Status = ""
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnset, StatusOpen, StatusClosed:
		return true
	default:
		return false
	}
}

type SourceKind string

const (
	SourceFile    SourceKind = "file"
	SourceCapture SourceKind = "capture"
)

type CameraState string

const (
	CameraIdle       CameraState = "idle"
	CameraPreviewing CameraState = "previewing"
	CameraCaptured   CameraState = "captured"
)

const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"

	DateLayout = "2006-01-02"

	CapturedFilename = "captured_image.pdf"
)

// FormState holds the user-editable intake fields.
type FormState struct {
	Type       DocumentType `json:"type"`
	Department string       `json:"department"`
	Category   string       `json:"category"`
	Subject    string       `json:"subject"`
	Date       string       `json:"date"`
	DiaryNo    string       `json:"diaryNo"`
	From       string       `json:"from"`
	Disposal   string       `json:"disposal"`
	Status     Status       `json:"status"`
}

// DocumentSource is either an uploaded PDF or a captured camera frame.
type DocumentSource struct {
	Kind     SourceKind `json:"kind"`
	Filename string     `json:"filename,omitempty"`
	MimeType string     `json:"mime_type"`
	Size     int        `json:"size"`
	Width    int        `json:"width,omitempty"`
	Height   int        `json:"height,omitempty"`
	Data     []byte     `json:"-"`
}

type Draft struct {
	ID          string          `json:"id"`
	Form        FormState       `json:"form"`
	Source      *DocumentSource `json:"source,omitempty"`
	Camera      CameraState     `json:"camera"`
	Departments []Department    `json:"departments"`
	Categories  []string        `json:"categories"`
	Warnings    []string        `json:"warnings,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// FormPatch carries the fields a client wants to change; nil means untouched.
type FormPatch struct {
	Type       *DocumentType `json:"type,omitempty"`
	Department *string       `json:"department,omitempty"`
	Category   *string       `json:"category,omitempty"`
	Subject    *string       `json:"subject,omitempty"`
	Date       *string       `json:"date,omitempty"`
	DiaryNo    *string       `json:"diaryNo,omitempty"`
	From       *string       `json:"from,omitempty"`
	Disposal   *string       `json:"disposal,omitempty"`
	Status     *Status       `json:"status,omitempty"`
}

// SelectDepartment replaces the category list with the chosen department's and clears the category.
func (d *Draft) SelectDepartment(id string) {
	d.Form.Department = id
	d.Form.Category = ""
	d.Categories = []string{}
	for _, dept := range d.Departments {
		if dept.ID == id {
			d.Categories = append(d.Categories, dept.Categories...)
			break
		}
	}
}

func (d *Draft) HasCategory(category string) bool {
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// SetSource installs a document source, invalidating the other acquisition path.
func (d *Draft) SetSource(src *DocumentSource) {
	d.Source = src
	switch {
	case src == nil:
	case src.Kind == SourceFile:
		d.Camera = CameraIdle
	case src.Kind == SourceCapture:
		d.Camera = CameraCaptured
	}
}

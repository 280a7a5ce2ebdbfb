package model

// Document is one metadata entry describing an uploaded file.
// Records are immutable once created; Size and UploadedAt are display strings
// computed at upload time and never recomputed.
type Document struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	UploadedAt string `json:"uploadedAt"`
	// Path locates the stored binary. Empty for seeded records.
	Path string `json:"path,omitempty"`
}

// HasBinary reports whether the record is backed by stored content.
func (d Document) HasBinary() bool {
	return d.Path != ""
}

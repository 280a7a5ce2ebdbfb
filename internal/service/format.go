package service

import (
	"fmt"
	"time"
)

// UploadedAtLayout renders timestamps as "1/2/2006, 3:04:05 PM".
const UploadedAtLayout = "1/2/2006, 3:04:05 PM"

const (
	kib = 1024
	mib = 1024 * 1024
)

// FormatSize renders a byte count for display.
func FormatSize(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d bytes", n)
	case n < mib:
		return fmt.Sprintf("%.2f KB", float64(n)/kib)
	default:
		return fmt.Sprintf("%.2f MB", float64(n)/mib)
	}
}

// FormatUploadedAt renders t in loc. A nil loc means local time.
func FormatUploadedAt(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(UploadedAtLayout)
}

package validate

import (
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reKey   = regexp.MustCompile(`^[A-Za-z0-9-]{1,255}$`)
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// ProductName trims and enforces the required non-empty, <=255 rule.
func ProductName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 255 {
		return "", false
	}
	return s, true
}

// Price parses a non-negative decimal with at most two fractional digits.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, false
	}
	if d.IsNegative() || d.Exponent() < -2 {
		return decimal.Zero, false
	}
	return d, true
}

// Description trims; an empty value means "none" and returns nil.
func Description(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Key validates a product route key (slug or id shape).
func Key(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reKey.MatchString(s)
}

// ImageUpload checks extension, declared content type and size cap for a
// product image. The upload is optional; callers pass non-nil only.
func ImageUpload(fh *multipart.FileHeader, maxBytes int64) bool {
	if fh.Size <= 0 || fh.Size > maxBytes {
		return false
	}
	if !imageExts[strings.ToLower(filepath.Ext(fh.Filename))] {
		return false
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return false
	}
	return true
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

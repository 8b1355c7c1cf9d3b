package extractor

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anlaklab/simple-luna-sub003/internal/domain"
)

var supportedExtensions = map[string]struct{}{
	".pptx": {},
	".ppt":  {},
	".potx": {},
	".ppsx": {},
	".odp":  {},
}

// ValidateFile checks existence, non-zero size, and a supported extension
// before any engine session is paid for. Exposed separately so callers can
// reject bad submissions at enqueue time.
func ValidateFile(path string) error {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return domain.NewError(domain.ErrCodeValidation, "file path is required")
	}

	info, err := os.Stat(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewError(domain.ErrCodeFile, "file not found: %s", trimmed)
		}
		return domain.WrapError(domain.ErrCodeFile, err, "stat %s", trimmed)
	}
	if info.IsDir() {
		return domain.NewError(domain.ErrCodeFile, "path is a directory: %s", trimmed)
	}
	if info.Size() == 0 {
		return domain.NewError(domain.ErrCodeFile, "file is empty: %s", trimmed)
	}

	ext := strings.ToLower(filepath.Ext(trimmed))
	if _, ok := supportedExtensions[ext]; !ok {
		return domain.NewError(domain.ErrCodeFile, "unsupported extension %q (want %s)", ext, supportedList())
	}
	return nil
}

func supportedList() string {
	names := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		names = append(names, ext)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

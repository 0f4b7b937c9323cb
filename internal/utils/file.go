package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// GetFileExtension returns the file extension without the dot
func GetFileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// GenerateOutputFilename builds "<outputDir>/<prefix><index>_<name>.<format>"
func GenerateOutputFilename(outputDir, prefix string, index int, name, format string) string {
	if format == "" {
		format = "png"
	}
	name = SanitizeFilename(name)
	if name == "" {
		name = "element"
	}
	return filepath.Join(outputDir, fmt.Sprintf("%s%03d_%s.%s", prefix, index, name, strings.ToLower(format)))
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// SanitizeFilename turns an arbitrary string, such as a CSS selector, into
// a file name component.
func SanitizeFilename(filename string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}

	// Remove leading/trailing separators and dots
	result := strings.Trim(b.String(), "_.")
	if len(result) > 64 {
		result = result[:64]
	}
	return result
}

// FormatFileSize formats file size in human-readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}

	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

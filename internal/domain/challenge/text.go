package challenge

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readStarter reads a starter file below dir as UTF-8 text
func readStarter(dir, rel string) (string, error) {
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %s", ErrUnsafeStarter, rel)
	}
	path := filepath.Join(dir, rel)

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read starter: %w", err)
	}
	if !isText(data) {
		return "", fmt.Errorf("%w: %s is %s", ErrNotTextFile, rel, mimetype.Detect(data).String())
	}
	return decodeText(data)
}

// isText reports whether the detected MIME type descends from text/plain
func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// DetectCharset returns the most likely charset of data in lower case
func DetectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// decodeText transcodes data to UTF-8 and strips a byte order mark
func decodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	label := DetectCharset(data)
	reader, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s text: %w", label, err)
	}
	return string(decoded), nil
}

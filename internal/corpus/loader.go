// Package corpus loads item corpora from JSONL files and watches them for changes.
package corpus

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// LoadFile reads a JSONL corpus file: one JSON-encoded item per line.
// Blank lines and lines starting with # are skipped. Every item needs a
// name and a url; the first bad line fails the load.
func LoadFile(path string) ([]models.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	defer f.Close()

	var items []models.Result
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var item models.Result
		if err := json.Unmarshal([]byte(line), &item); err != nil {
			return nil, fmt.Errorf("corpus %s line %d: %w", filepath.Base(path), lineNo, err)
		}
		if item.Name == "" || item.URL == "" {
			return nil, fmt.Errorf("corpus %s line %d: name and url are required", filepath.Base(path), lineNo)
		}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	return items, nil
}

// LoadDir loads every *.jsonl file directly under dir, in name order.
func LoadDir(dir string) ([]models.Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".jsonl") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var items []models.Result
	for _, name := range names {
		loaded, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		items = append(items, loaded...)
	}
	return items, nil
}

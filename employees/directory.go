// Package employees keeps the scanned-code → employee mapping stored in employees.csv.
//
// The file has no header; each line is "code;company;name;assignment". It is
// written in cp1251 for the spreadsheet tooling that shares it, and read as
// either UTF-8 or cp1251.
package employees

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

type Employee struct {
	Code       string `json:"code"`
	Company    string `json:"company"`
	Name       string `json:"name"`
	Assignment string `json:"assignment"`
}

// DisplayName falls back to the code when the name column is empty.
func (e Employee) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return e.Code
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode turns raw file bytes into text: valid UTF-8 is taken as is, anything else is cp1251.
func Decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	b, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode cp1251: %w", err)
	}
	return string(b), nil
}

func Parse(text string) []Employee {
	var out []Employee
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, ";")
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		out = append(out, Employee{
			Code:       strings.TrimSpace(parts[0]),
			Company:    strings.TrimSpace(parts[1]),
			Name:       strings.TrimSpace(parts[2]),
			Assignment: strings.TrimSpace(parts[3]),
		})
	}
	return out
}

// Encode serializes rows as cp1251 lines joined by CRLF; unsupported runes are replaced.
func Encode(rows []Employee) ([]byte, error) {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, strings.Join([]string{r.Code, r.Company, r.Name, r.Assignment}, ";"))
	}
	return encodeText(strings.Join(lines, "\r\n"))
}

func encodeText(text string) ([]byte, error) {
	b, err := encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("encode cp1251: %w", err)
	}
	return b, nil
}

// Directory caches the file and re-reads it when its size or mtime change.
type Directory struct {
	path string

	mu      sync.RWMutex
	rows    []Employee
	byCode  map[string]int
	modTime time.Time
	size    int64
	loaded  bool
}

func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

func (d *Directory) Path() string { return d.path }

// Lookup finds an employee by code, ignoring case; the first matching line wins.
func (d *Directory) Lookup(code string) (Employee, bool, error) {
	if err := d.refresh(); err != nil {
		return Employee{}, false, err
	}
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return Employee{}, false, nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	i, ok := d.byCode[key]
	if !ok {
		return Employee{}, false, nil
	}
	return d.rows[i], true, nil
}

func (d *Directory) List() ([]Employee, error) {
	if err := d.refresh(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Employee, len(d.rows))
	copy(out, d.rows)
	return out, nil
}

// Replace rewrites the whole mapping.
func (d *Directory) Replace(rows []Employee) error {
	cleaned := make([]Employee, 0, len(rows))
	for _, r := range rows {
		cleaned = append(cleaned, Employee{
			Code:       strings.TrimSpace(r.Code),
			Company:    strings.TrimSpace(r.Company),
			Name:       strings.TrimSpace(r.Name),
			Assignment: strings.TrimSpace(r.Assignment),
		})
	}
	b, err := Encode(cleaned)
	if err != nil {
		return err
	}
	return d.write(b)
}

// Upload stores an uploaded file (UTF-8 or cp1251) re-encoded as cp1251.
func (d *Directory) Upload(raw []byte) error {
	text, err := Decode(raw)
	if err != nil {
		return err
	}
	b, err := encodeText(text)
	if err != nil {
		return err
	}
	return d.write(b)
}

func (d *Directory) write(b []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".employees-*.csv")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	d.mu.Lock()
	d.loaded = false
	d.mu.Unlock()
	return nil
}

func (d *Directory) refresh() error {
	st, err := os.Stat(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		d.mu.Lock()
		d.rows, d.byCode, d.loaded = nil, map[string]int{}, true
		d.modTime, d.size = time.Time{}, 0
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	d.mu.RLock()
	fresh := d.loaded && st.ModTime().Equal(d.modTime) && st.Size() == d.size
	d.mu.RUnlock()
	if fresh {
		return nil
	}

	raw, err := os.ReadFile(d.path)
	if err != nil {
		return err
	}
	text, err := Decode(raw)
	if err != nil {
		return err
	}
	rows := Parse(text)
	byCode := make(map[string]int, len(rows))
	for i, r := range rows {
		k := strings.ToLower(r.Code)
		if k == "" {
			continue
		}
		if _, dup := byCode[k]; !dup {
			byCode[k] = i
		}
	}

	d.mu.Lock()
	d.rows, d.byCode, d.loaded = rows, byCode, true
	d.modTime, d.size = st.ModTime(), st.Size()
	d.mu.Unlock()
	return nil
}

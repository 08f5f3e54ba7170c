package employees

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func writeCP1251(t *testing.T, path, text string) {
	t.Helper()
	b, err := charmap.Windows1251.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func TestDecode(t *testing.T) {
	const text = "ivanov;Мувинг;Иванов Иван;picker"

	cp, err := charmap.Windows1251.NewEncoder().Bytes([]byte(text))
	require.NoError(t, err)
	got, err := Decode(cp)
	require.NoError(t, err)
	assert.Equal(t, text, got)

	got, err = Decode([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, text, got)

	got, err = Decode(append([]byte{0xEF, 0xBB, 0xBF}, text...))
	require.NoError(t, err)
	assert.Equal(t, text, got)
}

func TestParse(t *testing.T) {
	rows := Parse("a1; ACME ;Alice\r\n\r\n  \nb2;;;loader;extra\n")
	require.Len(t, rows, 2)
	assert.Equal(t, Employee{Code: "a1", Company: "ACME", Name: "Alice"}, rows[0])
	assert.Equal(t, Employee{Code: "b2", Assignment: "loader"}, rows[1])
	assert.Equal(t, "b2", rows[1].DisplayName())
}

func TestDirectory_LookupCaseInsensitive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.csv")
	writeCP1251(t, path, "IVANOV;Мувинг;Иванов Иван;\r\nivanov;Other;Duplicate;\r\npetrov;;;\r\n")

	d := NewDirectory(path)
	e, ok, err := d.Lookup(" Ivanov ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "IVANOV", e.Code)
	assert.Equal(t, "Мувинг", e.Company)
	assert.Equal(t, "Иванов Иван", e.Name)

	_, ok, err = d.Lookup("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectory_MissingFileIsEmpty(t *testing.T) {
	d := NewDirectory(filepath.Join(t.TempDir(), "absent", "employees.csv"))
	rows, err := d.List()
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, ok, err := d.Lookup("x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDirectory_ReplaceWritesCP1251(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "employees.csv")
	d := NewDirectory(path)

	require.NoError(t, d.Replace([]Employee{
		{Code: " s1 ", Company: "ЭСК", Name: "Сидоров"},
		{Code: "s2", Company: "2колеса", Name: "Smith", Assignment: "driver"},
	}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := charmap.Windows1251.NewEncoder().Bytes([]byte("s1;ЭСК;Сидоров;\r\ns2;2колеса;Smith;driver"))
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	e, ok, err := d.Lookup("S1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "ЭСК", e.Company)
}

func TestDirectory_UploadUTF8StoredAsCP1251(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.csv")
	d := NewDirectory(path)

	require.NoError(t, d.Upload([]byte("\xEF\xBB\xBFk1;Градусы;Кузнецов;\n")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	require.NoError(t, err)
	assert.Equal(t, "k1;Градусы;Кузнецов;\n", string(decoded))

	rows, err := d.List()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Кузнецов", rows[0].Name)
}

func TestDirectory_ReloadsWhenFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "employees.csv")
	writeCP1251(t, path, "a1;ACME;Alice;\r\n")
	d := NewDirectory(path)

	_, ok, err := d.Lookup("b1")
	require.NoError(t, err)
	require.False(t, ok)

	writeCP1251(t, path, "a1;ACME;Alice;\r\nb1;Beta;Bob;\r\n")
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	e, ok, err := d.Lookup("b1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bob", e.Name)
}

package stage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"convert-gateway/vars"
)

func TestSecureFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"report.PDF", "report.PDF"},
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{`..\..\windows\system32.docx`, "windows_system32.docx"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"semi;colon$and&amp.png", "semicolonandamp.png"},
		{"  padded  name .jpg", "padded_name_.jpg"},
		{"_.hidden.jpeg", "hidden.jpeg"},
		{"日本語", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SecureFilename(tt.in))
		})
	}
}

func TestStagedName(t *testing.T) {
	tests := []struct {
		in   string
		ext  string
		want string
	}{
		{"report.PDF", "pdf", "report.PDF"},
		{"a/b.docx", "docx", "a_b.docx"},
		{"..pdf", "pdf", "upload.pdf"},
		{"日本.png", "png", "upload.png"},
		{"scan.jpg", "jpg", "scan.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StagedName(tt.in, tt.ext))
		})
	}
}

func TestNewScratch_CreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "scratch")
	s, err := NewScratch(root)
	require.NoError(t, err)

	assert.Equal(t, root, s.Root())
	assert.DirExists(t, filepath.Join(root, vars.UploadsDir))
	assert.DirExists(t, filepath.Join(root, vars.OutputDir))
}

func TestStage_WritesIntoPerIDDirectory(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	staged, err := s.Stage("id-1", "report.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "id-1", staged.ID)
	assert.Equal(t, "report.pdf", staged.Name)
	assert.Equal(t, int64(8), staged.Size)
	assert.Equal(t, filepath.Join(s.Root(), vars.UploadsDir, "id-1", "report.pdf"), staged.Path)

	data, err := os.ReadFile(staged.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestStage_SameNameDifferentIDsDoNotCollide(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	first, err := s.Stage("a", "report.pdf", strings.NewReader("first"))
	require.NoError(t, err)
	second, err := s.Stage("b", "report.pdf", strings.NewReader("second"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestStage_RejectsUnsafeInput(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	_, err = s.Stage("../escape", "report.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = s.Stage("ok", "../report.pdf", strings.NewReader("x"))
	assert.Error(t, err)

	_, err = s.Stage("ok", "", strings.NewReader("x"))
	assert.Error(t, err)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStage_CleansUpOnReadError(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	_, err = s.Stage("broken", "report.pdf", failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoDirExists(t, filepath.Join(s.Root(), vars.UploadsDir, "broken"))
}

func TestOutputDir_Idempotent(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	first, err := s.OutputDir("id-1")
	require.NoError(t, err)
	second, err := s.OutputDir("id-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.DirExists(t, first)

	_, err = s.OutputDir("..")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	_, err = s.Stage("old", "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	oldOut, err := s.OutputDir("old")
	require.NoError(t, err)
	_, err = s.Stage("new", "b.pdf", strings.NewReader("y"))
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Root(), vars.UploadsDir, "old"), past, past))
	require.NoError(t, os.Chtimes(oldOut, past, past))

	removed, err := s.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []string{"old"}, removed)
	assert.NoDirExists(t, filepath.Join(s.Root(), vars.UploadsDir, "old"))
	assert.NoDirExists(t, oldOut)
	assert.DirExists(t, filepath.Join(s.Root(), vars.UploadsDir, "new"))
}

func TestSweep_KeepsIDWhileOutputIsFresh(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	_, err = s.Stage("half", "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	out, err := s.OutputDir("half")
	require.NoError(t, err)

	past := time.Now().Add(-48 * time.Hour)
	upload := filepath.Join(s.Root(), vars.UploadsDir, "half")
	require.NoError(t, os.Chtimes(upload, past, past))

	removed, err := s.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.NoDirExists(t, upload)
	assert.DirExists(t, out)

	// Once the output expires too, the id is reported.
	require.NoError(t, os.Chtimes(out, past, past))
	removed, err = s.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"half"}, removed)
	assert.NoDirExists(t, out)
}

func TestSweep_ReportsIDWithOnlyOneDirectory(t *testing.T) {
	s, err := NewScratch(t.TempDir())
	require.NoError(t, err)

	_, err = s.Stage("failed-early", "a.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	upload := filepath.Join(s.Root(), vars.UploadsDir, "failed-early")
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(upload, past, past))

	removed, err := s.Sweep(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"failed-early"}, removed)
}

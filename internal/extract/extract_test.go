package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hrlawbot/hrlawbot/internal/rag"
)

// writeFile creates a file with the given name and content under a temp dir
// and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func Test_Extract_PlainTextAndMarkdown(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"txt", "leave-policy.txt", "Leave accrues at 1.5 days per month."},
		{"md", "gratuity.md", "# Gratuity\n\nPayable after five years of service."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			path := writeFile(t, tc.file, tc.content)
			got, err := Extract(path)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if got != tc.content {
				t.Errorf("want %q, got %q", tc.content, got)
			}
		})
	}
}

func Test_Extract_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "spreadsheet.xlsx", "not really a spreadsheet")
	_, err := Extract(path)
	if !errors.Is(err, rag.ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func Test_Extract_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Extract(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("want error for missing file, got nil")
	}
}

func Test_Extract_CorruptPDFFails(t *testing.T) {
	t.Parallel()

	// Not a PDF at all — the reader must reject it rather than return junk.
	path := writeFile(t, "broken.pdf", "plain text wearing a pdf extension")
	if _, err := Extract(path); err == nil {
		t.Fatal("want error for corrupt pdf, got nil")
	}
}

func Test_Supported(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"a.pdf", true},
		{"b.txt", true},
		{"c.md", true},
		{"d.MD", true},
		{"e.docx", false},
		{"noext", false},
	}
	for _, tc := range tests {
		if got := Supported(tc.path); got != tc.want {
			t.Errorf("Supported(%q): want %v, got %v", tc.path, tc.want, got)
		}
	}
}

func Test_Normalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"runs collapse", "a  b\t\tc\n\nd", "a b c d"},
		{"ends trimmed", "  padded  ", "padded"},
		{"already clean", "one two", "one two"},
		{"only whitespace", " \n\t ", ""},
		{"empty", "", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func Test_Title(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/data/minimum-wages-act.pdf", "minimum-wages-act"},
		{"leave policy.txt", "leave policy"},
		{"./notes.md", "notes"},
		{"archive.tar.gz", "archive.tar"},
	}
	for _, tc := range tests {
		if got := Title(tc.path); got != tc.want {
			t.Errorf("Title(%q): want %q, got %q", tc.path, tc.want, got)
		}
	}
}

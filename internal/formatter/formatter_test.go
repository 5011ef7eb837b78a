package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	th "github.com/desertthunder/setlist/internal/testing"
)

func testExport() *Export {
	return &Export{
		Title:       "Archived bookings",
		Scope:       "sara",
		GeneratedAt: time.Date(2030, time.June, 15, 12, 0, 0, 0, time.UTC),
		Bookings: []models.Booking{
			{
				ID:          "1893456000000",
				Date:        "2030-01-01",
				Location:    "Muscat",
				PhoneNumber: "91234567",
				BrideZaffa:  "classic",
				GroomZaffa:  "drums",
				Songs:       []string{"Song One", "Song Two"},
				Notes:       "arrive early, bring lights",
				Username:    "sara",
			},
			{
				ID:       "1893542400000",
				Date:     "2030-01-02",
				Location: "Sohar",
				Songs:    []string{},
				Username: "sara",
			},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{"CSV", FormatCSV},
		{"md", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{"txt", FormatText},
		{"", FormatText},
		{" json ", FormatJSON},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseFormat("xlsx"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFormatCard(t *testing.T) {
	b := testExport().Bookings[0]

	t.Run("FullBooking", func(t *testing.T) {
		card := FormatCard(b, CardOptions{})

		expected := []string{
			"Tue, 01 Jan 2030 @ Muscat\n",
			"  Phone: 91234567\n",
			"  Bride zaffa: classic\n",
			"  Groom zaffa: drums\n",
			"  Songs:\n    1. Song One\n    2. Song Two\n",
			"  Notes: arrive early, bring lights\n",
		}
		for _, want := range expected {
			if !strings.Contains(card, want) {
				t.Errorf("card missing %q, got:\n%s", want, card)
			}
		}
		if strings.Contains(card, "Booked by") || strings.Contains(card, "ID:") {
			t.Errorf("card should not include owner or id by default, got:\n%s", card)
		}
	})

	t.Run("WithOwnerAndID", func(t *testing.T) {
		card := FormatCard(b, CardOptions{ShowOwner: true, ShowID: true})
		if !strings.Contains(card, "  Booked by: sara\n") {
			t.Errorf("card missing owner, got:\n%s", card)
		}
		if !strings.Contains(card, "  ID: 1893456000000\n") {
			t.Errorf("card missing id, got:\n%s", card)
		}
	})

	t.Run("SparseBooking", func(t *testing.T) {
		card := FormatCard(models.Booking{ID: "x"}, CardOptions{})
		if card != "(no date)\n" {
			t.Errorf("expected only the date line, got %q", card)
		}
	})

	t.Run("UnparseableDate", func(t *testing.T) {
		if got := DayLabel(models.Booking{Date: "next week"}); got != "next week" {
			t.Errorf("expected raw date, got %q", got)
		}
	})

	t.Run("FormatCards", func(t *testing.T) {
		out := FormatCards(testExport().Bookings, CardOptions{})
		if !strings.Contains(out, "bring lights\n\nWed, 02 Jan 2030 @ Sohar\n") {
			t.Errorf("cards should be separated by a blank line, got:\n%s", out)
		}
	})
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(testExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Date,Location,Phone,Bride Zaffa,Groom Zaffa,Songs,Notes,Username") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1893456000000,2030-01-01,Muscat,91234567,classic,drums,Song One; Song Two,"arrive early, bring lights",sara`) {
			t.Errorf("CSV missing first booking, got: %s", output)
		}
		if !strings.Contains(output, "1893542400000,2030-01-02,Sohar,,,,,,sara") {
			t.Errorf("CSV missing second booking, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(testExport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		expected := []string{
			"# Archived bookings\n",
			"**Scope**: sara\n",
			"**Generated**: 2030-06-15T12:00:00Z\n",
			"**Bookings**: 2\n",
			"## Tue, 01 Jan 2030 (Muscat)\n",
			"- **Bride zaffa**: classic\n",
			"- **Songs**:\n  1. Song One\n  2. Song Two\n",
			"## Wed, 02 Jan 2030 (Sohar)\n",
		}
		for _, want := range expected {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q", want)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(testExport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Archived bookings\nBookings: 2\n\n") {
			t.Errorf("text missing header, got: %s", output)
		}
		if !strings.Contains(output, "Booked by: sara") {
			t.Errorf("text should include the owner")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(testExport())
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded Export
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded.Bookings) != 2 || decoded.Bookings[0].Location != "Muscat" {
			t.Errorf("unexpected bookings: %+v", decoded.Bookings)
		}

		empty, err := ExportToJSON(&Export{Title: "none"})
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}
		if !strings.Contains(string(empty), `"bookings": []`) {
			t.Errorf("expected empty bookings array, got: %s", empty)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(testExport())
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if meta.Count != 2 || meta.Scope != "sara" {
			t.Errorf("unexpected metadata: %+v", meta)
		}
		if strings.Contains(string(data), "Muscat") {
			t.Errorf("metadata should not include bookings")
		}
	})
}

func inTempDir(t *testing.T) {
	t.Helper()
	originalDir := th.MustGetwd(t)
	th.MustChdir(t, t.TempDir())
	t.Cleanup(func() { th.MustChdir(t, originalDir) })
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		t.Run("WithDefaultPath", func(t *testing.T) {
			inTempDir(t)

			result, err := WriteCSVExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.BookingsFile != "sara_bookings.csv" {
				t.Errorf("Expected bookings file 'sara_bookings.csv', got '%s'", result.BookingsFile)
			}
			if result.MetadataFile != "sara_metadata.json" {
				t.Errorf("Expected metadata file 'sara_metadata.json', got '%s'", result.MetadataFile)
			}
			th.AssertFileExists(t, result.BookingsFile)
			th.AssertFileExists(t, result.MetadataFile)

			if content := th.MustReadFile(t, result.BookingsFile); !strings.Contains(content, "Muscat") {
				t.Errorf("CSV file missing booking data")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			inTempDir(t)

			result, err := WriteCSVExport(testExport(), "custom")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			th.AssertFileExists(t, "custom_bookings.csv")
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("UnscopedDefault", func(t *testing.T) {
			inTempDir(t)

			export := testExport()
			export.Scope = ""
			result, err := WriteCSVExport(export, "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}
			if result.BookingsFile != "bookings_bookings.csv" {
				t.Errorf("unexpected default name %q", result.BookingsFile)
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		t.Run("WithDefaultDirectory", func(t *testing.T) {
			inTempDir(t)

			result, err := WriteMarkdownExport(testExport(), "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Directory != "sara" {
				t.Errorf("Expected directory 'sara', got '%s'", result.Directory)
			}
			th.AssertDirExists(t, result.Directory)

			readme := filepath.Join(result.Directory, "README.md")
			th.AssertFileExists(t, readme)
			if content := th.MustReadFile(t, readme); !strings.Contains(content, "# Archived bookings") {
				t.Errorf("Markdown missing title")
			}
		})

		t.Run("WithCustomDirectory", func(t *testing.T) {
			inTempDir(t)

			result, err := WriteMarkdownExport(testExport(), "nested/out")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			th.AssertDirExists(t, "nested/out")
			if len(result.Files) != 1 {
				t.Errorf("expected one file, got %v", result.Files)
			}
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		inTempDir(t)

		path, err := WriteTextExport(testExport(), "")
		if err != nil {
			t.Fatalf("WriteTextExport failed: %v", err)
		}
		if path != "sara_bookings.txt" {
			t.Errorf("Expected 'sara_bookings.txt', got '%s'", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		inTempDir(t)

		path, err := WriteJSONExport(testExport(), "archive.json")
		if err != nil {
			t.Fatalf("WriteJSONExport failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, `"generatedAt": "2030-06-15T12:00:00Z"`) {
			t.Errorf("JSON missing metadata, got: %s", content)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		formats := []struct {
			format Format
			files  int
		}{
			{FormatCSV, 2},
			{FormatMarkdown, 1},
			{FormatText, 1},
			{FormatJSON, 1},
		}
		for _, tt := range formats {
			t.Run(string(tt.format), func(t *testing.T) {
				inTempDir(t)

				files, err := WriteExport(testExport(), tt.format, "")
				if err != nil {
					t.Fatalf("WriteExport failed: %v", err)
				}
				if len(files) != tt.files {
					t.Errorf("expected %d files, got %v", tt.files, files)
				}
				for _, f := range files {
					th.AssertFileExists(t, f)
				}
			})
		}

		if _, err := WriteExport(testExport(), Format("pdf"), ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("UnwritablePath", func(t *testing.T) {
		inTempDir(t)

		if _, err := WriteTextExport(testExport(), "missing/dir/out.txt"); err == nil {
			t.Error("expected error writing into a missing directory")
		}
	})
}

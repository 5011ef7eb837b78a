// package formatter renders bookings as text cards and exports the archive to CSV, Markdown, plain text and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Format selects an export file type.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

// Export is a list of bookings with the metadata written next to it.
type Export struct {
	Title       string           `json:"title"`
	Scope       string           `json:"scope"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Bookings    []models.Booking `json:"bookings"`
}

// Metadata describes an export without its bookings.
type Metadata struct {
	Title       string    `json:"title"`
	Scope       string    `json:"scope"`
	GeneratedAt time.Time `json:"generatedAt"`
	Count       int       `json:"count"`
}

func (e *Export) metadata() Metadata {
	return Metadata{Title: e.Title, Scope: e.Scope, GeneratedAt: e.GeneratedAt, Count: len(e.Bookings)}
}

// baseName is the default file stem: the scope, or "bookings" when unscoped.
func (e *Export) baseName() string {
	if e.Scope == "" {
		return "bookings"
	}
	return e.Scope
}

// CardOptions controls what [FormatCard] includes.
type CardOptions struct {
	ShowOwner bool
	ShowID    bool
}

// FormatCard renders one booking as a multi-line text card. Empty fields are left out.
func FormatCard(b models.Booking, opts CardOptions) string {
	var buf strings.Builder

	buf.WriteString(DayLabel(b))
	if b.Location != "" {
		buf.WriteString(" @ " + b.Location)
	}
	buf.WriteString("\n")

	if opts.ShowID {
		fmt.Fprintf(&buf, "  ID: %s\n", b.ID)
	}
	if opts.ShowOwner && b.Username != "" {
		fmt.Fprintf(&buf, "  Booked by: %s\n", b.Username)
	}
	if b.PhoneNumber != "" {
		fmt.Fprintf(&buf, "  Phone: %s\n", b.PhoneNumber)
	}
	if b.BrideZaffa != "" {
		fmt.Fprintf(&buf, "  Bride zaffa: %s\n", b.BrideZaffa)
	}
	if b.GroomZaffa != "" {
		fmt.Fprintf(&buf, "  Groom zaffa: %s\n", b.GroomZaffa)
	}
	if len(b.Songs) > 0 {
		buf.WriteString("  Songs:\n")
		for i, song := range b.Songs {
			fmt.Fprintf(&buf, "    %d. %s\n", i+1, song)
		}
	}
	if b.Notes != "" {
		fmt.Fprintf(&buf, "  Notes: %s\n", b.Notes)
	}
	return buf.String()
}

// FormatCards renders bookings as cards separated by blank lines.
func FormatCards(bookings []models.Booking, opts CardOptions) string {
	cards := make([]string, len(bookings))
	for i, b := range bookings {
		cards[i] = FormatCard(b, opts)
	}
	return strings.Join(cards, "\n")
}

// DayLabel formats the booking date as "Mon, 02 Jan 2006", falling back to the raw value.
func DayLabel(b models.Booking) string {
	day, ok := b.Day()
	if !ok {
		if b.Date == "" {
			return "(no date)"
		}
		return b.Date
	}
	return day.Format("Mon, 02 Jan 2006")
}

// ExportToCSV converts bookings to CSV with columns: ID, Date, Location, Phone, Bride Zaffa, Groom Zaffa, Songs, Notes, Username
//
// Songs are joined with "; ".
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Date", "Location", "Phone", "Bride Zaffa", "Groom Zaffa", "Songs", "Notes", "Username"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, b := range export.Bookings {
		record := []string{
			b.ID,
			b.Date,
			b.Location,
			b.PhoneNumber,
			b.BrideZaffa,
			b.GroomZaffa,
			strings.Join(b.Songs, "; "),
			b.Notes,
			b.Username,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts bookings to a Markdown document with one section per booking
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Title)
	if export.Scope != "" {
		fmt.Fprintf(&buf, "**Scope**: %s\n", export.Scope)
	}
	if !export.GeneratedAt.IsZero() {
		fmt.Fprintf(&buf, "**Generated**: %s\n", export.GeneratedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&buf, "**Bookings**: %d\n\n", len(export.Bookings))

	for _, b := range export.Bookings {
		fmt.Fprintf(&buf, "## %s", DayLabel(b))
		if b.Location != "" {
			fmt.Fprintf(&buf, " (%s)", b.Location)
		}
		buf.WriteString("\n\n")

		rows := [][2]string{
			{"Booked by", b.Username},
			{"Phone", b.PhoneNumber},
			{"Bride zaffa", b.BrideZaffa},
			{"Groom zaffa", b.GroomZaffa},
			{"Notes", b.Notes},
		}
		for _, row := range rows {
			if row[1] != "" {
				fmt.Fprintf(&buf, "- **%s**: %s\n", row[0], row[1])
			}
		}
		if len(b.Songs) > 0 {
			buf.WriteString("- **Songs**:\n")
			for i, song := range b.Songs {
				fmt.Fprintf(&buf, "  %d. %s\n", i+1, song)
			}
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts bookings to plain text cards
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", export.Title)
	fmt.Fprintf(&buf, "Bookings: %d\n\n", len(export.Bookings))
	buf.WriteString(FormatCards(export.Bookings, CardOptions{ShowOwner: true}))

	return buf.Bytes(), nil
}

// ExportToJSON encodes the full export, metadata included.
func ExportToJSON(export *Export) ([]byte, error) {
	out := *export
	if out.Bookings == nil {
		out.Bookings = []models.Booking{}
	}
	return shared.MarshalJSON(out, true)
}

// ToMetadataJSON generates a JSON representation of the export metadata (without bookings)
func ToMetadataJSON(export *Export) ([]byte, error) {
	return shared.MarshalJSON(export.metadata(), true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	BookingsFile string
	MetadataFile string
}

// WriteCSVExport exports bookings to CSV with an accompanying metadata JSON file.
//
// Defaults to the scope as the base filename & creates {base}_bookings.csv and {base}_metadata.json
func WriteCSVExport(export *Export, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.baseName()
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	bookingsFile := baseFilepath + "_bookings.csv"
	if err := os.WriteFile(bookingsFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{BookingsFile: bookingsFile, MetadataFile: metadataFile}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports bookings to {dir}/README.md. The directory defaults to the scope.
func WriteMarkdownExport(export *Export, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.baseName()
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return &MarkdownExportResult{Directory: outputDir, Files: []string{mdFile}}, nil
}

// WriteTextExport exports bookings to plain text.
//
// Defaults to {scope}_bookings.txt as the filename.
func WriteTextExport(export *Export, path string) (string, error) {
	if path == "" {
		path = export.baseName() + "_bookings.txt"
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports bookings and metadata to one JSON file.
//
// Defaults to {scope}_bookings.json as the filename.
func WriteJSONExport(export *Export, path string) (string, error) {
	if path == "" {
		path = export.baseName() + "_bookings.json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}

// WriteExport writes export in the given format and returns the created files.
//
// dest is the base path for CSV, the directory for Markdown and the file path otherwise; empty picks the default.
func WriteExport(export *Export, format Format, dest string) ([]string, error) {
	switch format {
	case FormatCSV:
		result, err := WriteCSVExport(export, dest)
		if err != nil {
			return nil, err
		}
		return []string{result.BookingsFile, result.MetadataFile}, nil
	case FormatMarkdown:
		result, err := WriteMarkdownExport(export, dest)
		if err != nil {
			return nil, err
		}
		return result.Files, nil
	case FormatText:
		path, err := WriteTextExport(export, dest)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	case FormatJSON:
		path, err := WriteJSONExport(export, dest)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

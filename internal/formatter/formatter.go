// package formatter exports a formatted script and its voice casting to CSV, Markdown, JSON and plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/voices"
)

// Export formats accepted by [Render] and [WriteExport].
const (
	FormatText     = "txt"
	FormatMarkdown = "md"
	FormatJSON     = "json"
	FormatCSV      = "csv"
)

// Formats lists every supported export format.
var Formats = []string{FormatText, FormatMarkdown, FormatJSON, FormatCSV}

// ScriptExport is a script together with its current voice assignment.
type ScriptExport struct {
	Script     *models.Script
	Assignment voices.Assignment
	Voices     []models.Voice
}

// CastRow is one speaker line of the cast table.
type CastRow struct {
	Speaker   string `json:"speaker"`
	Gender    string `json:"gender"`
	VoiceID   string `json:"voice_id,omitempty"`
	VoiceName string `json:"voice_name,omitempty"`
}

// Cast joins speakers, their assigned voice ids and the voice names.
func (e *ScriptExport) Cast() []CastRow {
	names := make(map[string]string, len(e.Voices))
	for _, v := range e.Voices {
		names[v.ID] = v.Name
	}

	rows := make([]CastRow, 0, len(e.Script.Speakers))
	for _, sp := range e.Script.Speakers {
		id, _ := e.Assignment.Get(sp.Name)
		rows = append(rows, CastRow{Speaker: sp.Name, Gender: sp.Gender, VoiceID: id, VoiceName: names[id]})
	}
	return rows
}

// ExportToCSV writes the cast with columns: Speaker, Gender, VoiceID, VoiceName
func ExportToCSV(export *ScriptExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Speaker", "Gender", "VoiceID", "VoiceName"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range export.Cast() {
		if err := writer.Write([]string{row.Speaker, row.Gender, row.VoiceID, row.VoiceName}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a cast table followed by the script text.
func ExportToMarkdown(export *ScriptExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", export.Script.DisplayName())
	fmt.Fprintf(&buf, "**Speakers**: %d\n\n", len(export.Script.Speakers))

	if rows := export.Cast(); len(rows) > 0 {
		buf.WriteString("## Cast\n\n")
		buf.WriteString("| Speaker | Gender | Voice |\n|---|---|---|\n")
		for _, row := range rows {
			fmt.Fprintf(&buf, "| %s | %s | %s |\n", mdEscape(row.Speaker), row.Gender, mdEscape(voiceLabel(row)))
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Script\n\n")
	buf.WriteString(strings.TrimRight(export.Script.Text, "\n"))
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// ExportToText renders a plain text header, the cast and the script.
func ExportToText(export *ScriptExport) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Script: %s\n", export.Script.DisplayName())
	fmt.Fprintf(&buf, "Speakers: %d\n", len(export.Script.Speakers))
	for i, row := range export.Cast() {
		fmt.Fprintf(&buf, "%d. %s (%s) - %s\n", i+1, row.Speaker, row.Gender, voiceLabel(row))
	}
	buf.WriteString("\n")
	buf.WriteString(export.Script.Text)
	if !strings.HasSuffix(export.Script.Text, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// ExportToJSON renders the script and cast as indented JSON.
func ExportToJSON(export *ScriptExport) ([]byte, error) {
	doc := struct {
		FileName string    `json:"file_name"`
		Script   string    `json:"script"`
		Cast     []CastRow `json:"cast"`
	}{export.Script.FileName, export.Script.Text, export.Cast()}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Render dispatches on format.
func Render(export *ScriptExport, format string) ([]byte, error) {
	if export == nil || export.Script == nil {
		return nil, shared.ErrNoScript
	}

	switch strings.ToLower(format) {
	case FormatText, "text":
		return ExportToText(export)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(export)
	case FormatJSON:
		return ExportToJSON(export)
	case FormatCSV:
		return ExportToCSV(export)
	default:
		return nil, fmt.Errorf("%w: format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}
}

// WriteExport renders export and writes it to path.
//
// Defaults to {script name}.{format} as the filename.
func WriteExport(export *ScriptExport, format, path string) (string, error) {
	data, err := Render(export, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = fmt.Sprintf("%s.%s", export.Script.DisplayName(), strings.ToLower(format))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func voiceLabel(row CastRow) string {
	switch {
	case row.VoiceName != "":
		return row.VoiceName
	case row.VoiceID != "":
		return row.VoiceID
	default:
		return "unassigned"
	}
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

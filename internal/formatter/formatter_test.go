package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/shared"
	th "github.com/desertthunder/narrate/internal/testing"
	"github.com/desertthunder/narrate/internal/voices"
)

func sampleExport() *ScriptExport {
	return &ScriptExport{
		Script: &models.Script{
			FileName: "pilot.docx",
			Text:     "ALICE: Hello.\nBOB: Hi | there.\n",
			Speakers: []models.Speaker{
				{Name: "ALICE", Gender: models.GenderFemale},
				{Name: "BOB", Gender: models.GenderMale},
				{Name: "NARRATOR", Gender: models.GenderUnknown},
			},
		},
		Assignment: voices.Assignment{
			{Speaker: "ALICE", VoiceID: "v1"},
			{Speaker: "BOB", VoiceID: "v-missing"},
			{Speaker: "NARRATOR"},
		},
		Voices: []models.Voice{{ID: "v1", Name: "Rachel", Labels: "female"}},
	}
}

func TestExporters(t *testing.T) {
	t.Run("Cast", func(t *testing.T) {
		rows := sampleExport().Cast()
		if len(rows) != 3 {
			t.Fatalf("len = %d", len(rows))
		}
		if rows[0].VoiceName != "Rachel" || rows[1].VoiceName != "" || rows[1].VoiceID != "v-missing" || rows[2].VoiceID != "" {
			t.Errorf("unexpected cast %+v", rows)
		}
	})

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 4 {
			t.Fatalf("records = %d, want header + 3", len(records))
		}
		if strings.Join(records[0], ",") != "Speaker,Gender,VoiceID,VoiceName" {
			t.Errorf("headers = %v", records[0])
		}
		if strings.Join(records[1], ",") != "ALICE,female,v1,Rachel" {
			t.Errorf("row = %v", records[1])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleExport())
		if err != nil {
			t.Fatal(err)
		}
		out := string(data)

		for _, want := range []string{"# pilot", "**Speakers**: 3", "| ALICE | female | Rachel |", "| NARRATOR | unknown | unassigned |", "## Script", `Hi | there.`} {
			if !strings.Contains(out, want) {
				t.Errorf("markdown missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport())
		if err != nil {
			t.Fatal(err)
		}
		out := string(data)
		if !strings.HasPrefix(out, "Script: pilot\nSpeakers: 3\n1. ALICE (female) - Rachel\n") {
			t.Errorf("unexpected header:\n%s", out)
		}
		if !strings.HasSuffix(out, "BOB: Hi | there.\n") {
			t.Errorf("script text missing:\n%s", out)
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport())
		if err != nil {
			t.Fatal(err)
		}
		var doc struct {
			FileName string    `json:"file_name"`
			Cast     []CastRow `json:"cast"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			t.Fatal(err)
		}
		if doc.FileName != "pilot.docx" || len(doc.Cast) != 3 || doc.Cast[2].Speaker != "NARRATOR" {
			t.Errorf("unexpected doc %+v", doc)
		}
	})
}

func TestRender(t *testing.T) {
	for _, format := range append(Formats, "markdown", "TEXT") {
		if _, err := Render(sampleExport(), format); err != nil {
			t.Errorf("Render(%q) failed: %v", format, err)
		}
	}

	if _, err := Render(sampleExport(), "pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
	if _, err := Render(&ScriptExport{}, FormatText); !errors.Is(err, shared.ErrNoScript) {
		t.Errorf("expected ErrNoScript, got %v", err)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("WithDefaultPath", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		path, err := WriteExport(sampleExport(), FormatMarkdown, "")
		if err != nil {
			t.Fatal(err)
		}
		if path != "pilot.md" {
			t.Errorf("path = %q", path)
		}
		th.AssertFileExists(t, path)
	})

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cast.csv")
		got, err := WriteExport(sampleExport(), FormatCSV, path)
		if err != nil {
			t.Fatal(err)
		}
		if got != path {
			t.Errorf("path = %q", got)
		}
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Rachel") {
			t.Errorf("unexpected content %q", content)
		}
	})

	t.Run("Unwritable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "out.txt")
		if _, err := WriteExport(sampleExport(), FormatText, path); err == nil {
			t.Error("expected write error")
		}
	})
}

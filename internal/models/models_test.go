package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestScriptDecoding(t *testing.T) {
	t.Run("speakers with gender", func(t *testing.T) {
		body := `{"file_name":"pilot.docx","script":"A: hi","speakers":[{"speaker":"A","gender":"Male"},{"speaker":"B","gender":""}]}`

		var s Script
		if err := json.Unmarshal([]byte(body), &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []Speaker{{Name: "A", Gender: GenderMale}, {Name: "B", Gender: GenderUnknown}}
		if len(s.Speakers) != len(want) {
			t.Fatalf("got %d speakers, want %d", len(s.Speakers), len(want))
		}
		for i := range want {
			if s.Speakers[i] != want[i] {
				t.Errorf("speaker %d = %+v, want %+v", i, s.Speakers[i], want[i])
			}
		}
	})

	t.Run("bare speaker names", func(t *testing.T) {
		body := `{"file_name":"pilot.txt","script":"...","speakers":["NARRATOR","ALICE"]}`

		var s Script
		if err := json.Unmarshal([]byte(body), &s); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		names := s.SpeakerNames()
		if len(names) != 2 || names[0] != "NARRATOR" || names[1] != "ALICE" {
			t.Errorf("SpeakerNames() = %v", names)
		}
		for _, sp := range s.Speakers {
			if sp.Gender != GenderUnknown {
				t.Errorf("bare speaker %s should have unknown gender, got %q", sp.Name, sp.Gender)
			}
		}
	})

	t.Run("invalid speaker", func(t *testing.T) {
		var s Script
		if err := json.Unmarshal([]byte(`{"speakers":[42]}`), &s); err == nil {
			t.Error("expected error for numeric speaker")
		}
	})
}

func TestScriptDisplayName(t *testing.T) {
	tt := []struct {
		file string
		want string
	}{
		{file: "pilot.docx", want: "pilot"},
		{file: "my.script.v2.txt", want: "my.script.v2"},
		{file: "noext", want: "noext"},
		{file: ".hidden", want: ".hidden"},
	}

	for _, tc := range tt {
		t.Run(tc.file, func(t *testing.T) {
			if got := (Script{FileName: tc.file}).DisplayName(); got != tc.want {
				t.Errorf("DisplayName() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestVoiceGender(t *testing.T) {
	if got := (Voice{Labels: " Female "}).Gender(); got != GenderFemale {
		t.Errorf("Gender() = %q, want female", got)
	}
}

func TestJobRecord(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		tt := []struct {
			name    string
			job     *JobRecord
			wantErr bool
		}{
			{name: "succeeded format", job: NewJobRecord(JobKindFormat, "t1", JobStatusSucceeded)},
			{name: "cancelled audio", job: NewJobRecord(JobKindAudio, "", JobStatusCancelled)},
			{name: "unknown kind", job: NewJobRecord(JobKind("video"), "t1", JobStatusFailed), wantErr: true},
			{name: "non-terminal status", job: NewJobRecord(JobKindFormat, "t1", "polling"), wantErr: true},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.job.Validate()
				if tc.wantErr && err == nil {
					t.Error("expected validation error")
				}
				if !tc.wantErr && err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			})
		}
	})

	t.Run("Duration", func(t *testing.T) {
		job := NewJobRecord(JobKindAudio, "a1", JobStatusSucceeded)
		if job.Duration() != 0 {
			t.Error("expected zero duration without timestamps")
		}

		start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
		end := start.Add(42 * time.Second)
		job.SetStartedAt(&start)
		job.SetFinishedAt(&end)

		if job.Duration() != 42*time.Second {
			t.Errorf("Duration() = %s, want 42s", job.Duration())
		}
	})
}

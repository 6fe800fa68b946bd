package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/narrate/internal/models"
	"github.com/desertthunder/narrate/internal/services"
	"github.com/desertthunder/narrate/internal/shared"
	"github.com/desertthunder/narrate/internal/store"
	tu "github.com/desertthunder/narrate/internal/testing"
	"github.com/desertthunder/narrate/internal/voices"
)

// fakeBackend serves the endpoints the commands call and counts hits per path.
type fakeBackend struct {
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string][]byte
	script string
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		hits:   map[string]int{},
		bodies: map[string][]byte{},
		script: `{"file_name":"pilot.txt","content":{"script":"ANNA: Hi.\nBEN: Hello.","speakers":[{"speaker":"ANNA","gender":"female"},{"speaker":"BEN","gender":"male"}]}}`,
	}

	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) count(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.hits[path]
}

func (fb *fakeBackend) body(path string) []byte {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.bodies[path]
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	fb.mu.Lock()
	fb.hits[key]++
	if r.Body != nil && r.Header.Get("Content-Type") == "application/json" {
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		fb.bodies[key] = buf.Bytes()
	}
	script := fb.script
	fb.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch key {
	case "GET /file/subscription_status/", "GET /audio/subscription_audio/":
		fmt.Fprint(w, `{}`)
	case "POST /file/upload/":
		fmt.Fprint(w, `{"task_id":"fmt-1"}`)
	case "GET /file/task-status/fmt-1/":
		fmt.Fprint(w, `{"status":"success"}`)
	case "GET /file/script/":
		fmt.Fprint(w, script)
	case "POST /audio/tts/":
		fmt.Fprint(w, `{"task_id":"aud-1"}`)
	case "GET /audio/tts/":
		fmt.Fprint(w, `[{"id":"v-f","name":"Fern","labels":"female"},{"id":"v-m","name":"Milo","labels":"male"}]`)
	case "GET /audio/task-status/aud-1/":
		fmt.Fprint(w, `{"status":"FAILURE","error":"voice quota exceeded"}`)
	case "GET /audio/processed_audio/":
		fmt.Fprint(w, `{"audio_url":"`+"http://"+r.Host+`/signed/pilot.mp3?sig=1","audio_name":"pilot"}`)
	case "GET /signed/pilot.mp3":
		w.Header().Set("Content-Type", "audio/mpeg")
		fmt.Fprint(w, "ID3-audio-bytes")
	case "GET /subscription/current_subscription/":
		fmt.Fprint(w, `{"current_plan":"pro","scripts_remaining":9,"audio_remaining":3}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not found"}`)
	}
}

// newSignedInRunner builds a runner against baseURL with a temp database and a live token.
func newSignedInRunner(t *testing.T, baseURL string) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.API.BaseURL = baseURL
	config.API.PollInterval = shared.Duration{Duration: 10 * time.Millisecond}
	config.API.RequestsPerSecond = 0
	config.Database.Path = filepath.Join(t.TempDir(), "narrate.db")

	output := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
		Input:  strings.NewReader(""),
	})
	t.Cleanup(func() { r.Close() })

	ctx := context.Background()
	if err := r.open(ctx); err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if err := r.session.Adopt(ctx, tu.ValidToken(t)); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	if err := r.store.Set(ctx, store.KeyHasSeenOnboarding, "true"); err != nil {
		t.Fatal(err)
	}
	return r, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "narrate", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"narrate"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all options provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.session != nil {
				t.Error("expected dependencies to open lazily")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.input != os.Stdin {
				t.Error("expected input to default to os.Stdin")
			}
			if runner.httpClient == nil {
				t.Error("expected a default httpClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "account", "script", "voices", "audio", "subscription", "history", "dashboard"} {
			if !names[want] {
				t.Errorf("command %q not registered", want)
			}
		}
	})

	t.Run("open fails without a usable database path", func(t *testing.T) {
		config := shared.DefaultConfig()
		blocker := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(blocker, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		config.Database.Path = filepath.Join(blocker, "sub", "narrate.db")

		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(&bytes.Buffer{})})
		if err := runner.open(context.Background()); err == nil {
			t.Error("expected open to fail")
		}
		if err := runner.Close(); err != nil {
			t.Errorf("Close() on unopened runner = %v", err)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("script upload follows the job and resets the assignment", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		path := filepath.Join(t.TempDir(), "pilot.txt")
		if err := os.WriteFile(path, []byte("ANNA: Hi.\nBEN: Hello.\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		if err := run(r, "script", "upload", path); err != nil {
			t.Fatalf("script upload error = %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Your script is ready") {
			t.Errorf("missing success message:\n%s", out)
		}
		if !strings.Contains(out, "ANNA (female) → unassigned") {
			t.Errorf("missing speaker list:\n%s", out)
		}
		if fb.count("POST /file/upload/") != 1 {
			t.Errorf("upload calls = %d", fb.count("POST /file/upload/"))
		}
		if id := store.GetString(context.Background(), r.store, store.KeyFormatTaskID); id != "" {
			t.Errorf("task id left in store: %q", id)
		}

		a, err := r.assignments.Load(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.Join(a.Speakers(), ","); got != "ANNA,BEN" {
			t.Errorf("assignment speakers = %q", got)
		}

		jobs, err := r.jobs.List(map[string]any{"kind": models.JobKindFormat})
		if err != nil || len(jobs) != 1 || jobs[0].Status() != models.JobStatusSucceeded {
			t.Errorf("history = %v, %v", jobs, err)
		}
	})

	t.Run("voices auto and assign", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		if err := run(r, "voices", "auto"); err != nil {
			t.Fatalf("voices auto error = %v", err)
		}
		if !strings.Contains(output.String(), "Assigned voices to 2 of 2 speakers") {
			t.Errorf("unexpected output:\n%s", output.String())
		}

		if err := run(r, "voices", "assign", "BEN", "fern"); err != nil {
			t.Fatalf("voices assign error = %v", err)
		}
		a, _ := r.assignments.Load(context.Background())
		if v, _ := a.Get("BEN"); v != "v-f" {
			t.Errorf("BEN voice = %q, want v-f", v)
		}

		err := run(r, "voices", "assign", "CARL", "Milo")
		if !errors.Is(err, shared.ErrUnknownSpeaker) {
			t.Errorf("expected ErrUnknownSpeaker, got %v", err)
		}
		err = run(r, "voices", "assign", "ANNA", "nobody")
		if !errors.Is(err, shared.ErrUnknownVoice) {
			t.Errorf("expected ErrUnknownVoice, got %v", err)
		}
	})

	t.Run("narrator voice is stored and cleared", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)
		ctx := context.Background()

		if err := run(r, "voices", "narrator", "Milo"); err != nil {
			t.Fatal(err)
		}
		if v := store.GetString(ctx, r.store, store.KeyNarratorVoice); v != "v-m" {
			t.Errorf("narrator = %q", v)
		}
		if err := run(r, "voices", "narrator", "none"); err != nil {
			t.Fatal(err)
		}
		if v := store.GetString(ctx, r.store, store.KeyNarratorVoice); v != "" {
			t.Errorf("narrator = %q after clear", v)
		}
	})

	t.Run("audio generate refuses unassigned speakers", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)

		err := run(r, "audio", "generate")
		if !errors.Is(err, shared.ErrUnassigned) {
			t.Fatalf("expected ErrUnassigned, got %v", err)
		}
		if fb.count("POST /audio/tts/") != 0 {
			t.Error("audio submitted with unassigned speakers")
		}
	})

	t.Run("audio generate sends the assignment and reports failure", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)
		ctx := context.Background()

		a := voices.New([]string{"ANNA", "BEN"})
		a.Set("ANNA", "v-f")
		a.Set("BEN", "v-m")
		if err := r.assignments.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
		r.store.Set(ctx, store.KeyNarratorVoice, "v-m")

		err := run(r, "audio", "generate")
		if !errors.Is(err, shared.ErrJobFailed) {
			t.Fatalf("expected ErrJobFailed, got %v", err)
		}
		if strings.Count(err.Error(), "voice quota exceeded") != 1 {
			t.Errorf("message repeated: %v", err)
		}

		var sent models.AudioRequest
		if err := json.Unmarshal(fb.body("POST /audio/tts/"), &sent); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if sent.DisplayFileName != "pilot.txt" || sent.VoiceID != "v-m" || sent.SpeakerVoices["ANNA"] != "v-f" {
			t.Errorf("request = %+v", sent)
		}
		if id := store.GetString(ctx, r.store, store.KeyAudioTaskID); id != "" {
			t.Errorf("audio id left in store: %q", id)
		}
	})

	t.Run("audio generate without a script", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		fb.script = `{"file_name":"","content":{"script":"","speakers":[]}}`
		r, _ := newSignedInRunner(t, srv.URL)

		err := run(r, "audio", "generate")
		if !errors.Is(err, shared.ErrNoScript) || !strings.Contains(err.Error(), noScriptMessage) {
			t.Errorf("expected ErrNoScript, got %v", err)
		}
	})

	t.Run("audio download writes the file", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		dest := filepath.Join(t.TempDir(), "out.mp3")
		if err := run(r, "audio", "download", "--output", dest); err != nil {
			t.Fatalf("audio download error = %v", err)
		}
		if got := tu.MustReadFile(t, dest); got != "ID3-audio-bytes" {
			t.Errorf("file content = %q", got)
		}
		if !strings.Contains(output.String(), "15 B") {
			t.Errorf("size missing from output:\n%s", output.String())
		}
	})

	t.Run("cancel with nothing pending", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		if err := run(r, "script", "cancel"); err != nil {
			t.Fatal(err)
		}
		if err := run(r, "audio", "cancel"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "No format job is pending") || !strings.Contains(output.String(), "No audio job is pending") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
		if fb.count("POST /fileupload/cancel_task/") != 0 {
			t.Error("cancel sent without a job")
		}
	})

	t.Run("subscription status", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		if err := run(r, "subscription", "status", "--json"); err != nil {
			t.Fatal(err)
		}
		var sub models.Subscription
		if err := json.Unmarshal(output.Bytes(), &sub); err != nil {
			t.Fatalf("decode: %v\n%s", err, output.String())
		}
		if sub.Plan != "pro" || sub.AudioRemaining != 3 {
			t.Errorf("subscription = %+v", sub)
		}
	})

	t.Run("history filters and validates flags", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		now := time.Now()
		r.jobs.Record(models.JobKindFormat, "f1", models.JobStatusSucceeded, "Your script is ready", "pilot.txt", now.Add(-time.Minute), now)
		r.jobs.Record(models.JobKindAudio, "a1", models.JobStatusCancelled, "cancelled", "", now, now)

		if err := run(r, "history", "--kind", "format", "--json"); err != nil {
			t.Fatal(err)
		}
		var entries []historyEntry
		if err := json.Unmarshal(output.Bytes(), &entries); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(entries) != 1 || entries[0].TaskID != "f1" || entries[0].Duration != "1m0s" {
			t.Errorf("entries = %+v", entries)
		}

		if err := run(r, "history", "--status", "done"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("signed out commands need sign in", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)
		r.session.SignOut(context.Background())

		if err := run(r, "script", "show"); !errors.Is(err, shared.ErrNeedsSignIn) {
			t.Errorf("expected ErrNeedsSignIn, got %v", err)
		}
	})
}

func TestReport(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"cancelled", shared.ErrJobCancelled, 0},
		{"needs sign in", fmt.Errorf("wrapped: %w", shared.ErrNeedsSignIn), 2},
		{"api error", &services.APIError{StatusCode: 500, Message: "boom"}, 1},
		{"plain", errors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := report(tt.err); got != tt.want {
				t.Errorf("report() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Run("bar", func(t *testing.T) {
		if got := bar(0); strings.Count(got, "█") != 0 || strings.Count(got, "░") != barWidth {
			t.Errorf("bar(0) = %q", got)
		}
		if got := bar(50); strings.Count(got, "█") != barWidth/2 {
			t.Errorf("bar(50) = %q", got)
		}
		if got := bar(140); strings.Count(got, "█") != barWidth {
			t.Errorf("bar(140) = %q", got)
		}
	})

	t.Run("audioFileName", func(t *testing.T) {
		tests := map[string]*models.Audio{
			"pilot.mp3":   {Name: "pilot"},
			"take_2.wav":  {Name: "take/2.wav"},
			"episode.mp3": {URL: "https://cdn.example.com/audio/episode.mp3?sig=abc"},
		}
		for want, a := range tests {
			if got := audioFileName(a); got != want {
				t.Errorf("audioFileName(%+v) = %q, want %q", a, got, want)
			}
		}
	})

	t.Run("humanBytes", func(t *testing.T) {
		for n, want := range map[int64]string{512: "512 B", 2048: "2.0 KB", 5 << 20: "5.0 MB"} {
			if got := humanBytes(n); got != want {
				t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
			}
		}
	})

	t.Run("voiceName", func(t *testing.T) {
		list := []models.Voice{{ID: "v1", Name: "Fern"}}
		if voiceName(list, "v1") != "Fern" || voiceName(list, "v9") != "v9" {
			t.Error("unexpected voice names")
		}
	})
}

func TestAccountCommands(t *testing.T) {
	t.Run("update needs a field", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)

		if err := run(r, "account", "update"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("reset rejects mismatched passwords", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)
		r.input = strings.NewReader("first\nsecond\n")
		r.lines = nil

		err := run(r, "account", "reset-password", "--token", "abc")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if fb.count("POST /user/reset/") != 0 {
			t.Error("reset sent with mismatched passwords")
		}
	})

	t.Run("delete declined", func(t *testing.T) {
		fb, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)
		r.input = strings.NewReader("n\n")
		r.lines = nil

		if err := run(r, "account", "delete"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "Account unchanged") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
		if fb.count("DELETE /user/delete_user/") != 0 {
			t.Error("account deleted without confirmation")
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("migrations up to date after open", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, output := newSignedInRunner(t, srv.URL)

		if err := run(r, "setup", "migrations"); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(output.String(), "Up to date") || !strings.Contains(output.String(), "0002") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})

	t.Run("consent", func(t *testing.T) {
		_, srv := newFakeBackend(t)
		r, _ := newSignedInRunner(t, srv.URL)

		if err := run(r, "setup", "consent", "accept"); err != nil {
			t.Fatal(err)
		}
		if v := store.GetString(context.Background(), r.store, store.KeyCookieConsent); v != "accepted" {
			t.Errorf("consent = %q", v)
		}
		if err := run(r, "setup", "consent", "maybe"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("init writes config and database", func(t *testing.T) {
		dir := t.TempDir()
		cwd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		t.Cleanup(func() { tu.MustChdir(t, cwd) })

		output := &bytes.Buffer{}
		r := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(&bytes.Buffer{})})
		if err := run(r, "setup", "init", "--config", filepath.Join(dir, "config.toml")); err != nil {
			t.Fatalf("setup init error = %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "config.toml"))
		if !strings.Contains(output.String(), "Setup complete") {
			t.Errorf("unexpected output:\n%s", output.String())
		}
	})
}

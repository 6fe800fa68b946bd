package shared

import (
	"errors"
	"os/exec"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() {
		getRuntime, startCommand = origRuntime, origStart
	})

	tt := []struct {
		goos     string
		wantPath string
		wantErr  bool
	}{
		{goos: "darwin", wantPath: "open"},
		{goos: "linux", wantPath: "xdg-open"},
		{goos: "windows", wantPath: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.goos, func(t *testing.T) {
			var started *exec.Cmd
			getRuntime = func() string { return tc.goos }
			startCommand = func(cmd *exec.Cmd) error {
				started = cmd
				return nil
			}

			err := OpenBrowser("https://cdn.example.com/script.mp3")
			if tc.wantErr {
				if !errors.Is(err, ErrServiceUnavailable) {
					t.Errorf("expected ErrServiceUnavailable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if started == nil {
				t.Fatal("expected a command to be started")
			}
			if started.Args[0] != tc.wantPath {
				t.Errorf("started %q, want %q", started.Args[0], tc.wantPath)
			}
			if last := started.Args[len(started.Args)-1]; last != "https://cdn.example.com/script.mp3" {
				t.Errorf("last arg = %q, want the target url", last)
			}
		})
	}

	t.Run("start failure", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCommand = func(*exec.Cmd) error { return errors.New("no display") }

		if err := OpenBrowser("file.mp3"); err == nil {
			t.Error("expected error when the command fails to start")
		}
	})
}

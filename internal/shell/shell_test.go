package shell

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestRunCommand(t *testing.T) {
	testCases := []struct {
		name           string
		input          string
		wantErrCode    int
		wantOutputFunc func(string) bool
	}{
		{
			name:        "Simple echo command",
			input:       "echo hello world",
			wantErrCode: 0,
			wantOutputFunc: func(output string) bool {
				return output == "hello world\n"
			},
		},
		{
			name:        "Invalid command",
			input:       "nonexistent-command",
			wantErrCode: 127,
			wantOutputFunc: func(output string) bool {
				return output != ""
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output, errCode, err := RunCommand(tc.input)

			if err != nil && errCode == 0 {
				t.Errorf("Unexpected error: %v", err)
			}

			if errCode != tc.wantErrCode {
				t.Errorf("Expected error code %d, got %d", tc.wantErrCode, errCode)
			}

			if !tc.wantOutputFunc(output) {
				t.Errorf("Unexpected output: %q", output)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	// Set a test home directory
	testHome := "/test/home/user"
	os.Setenv("HOME", testHome)
	defer os.Unsetenv("HOME")

	testCases := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Tilde expansion",
			input:    "~/test",
			expected: testHome + "/test",
			wantErr:  false,
		},
		{
			name:     "Single tilde",
			input:    "~",
			expected: testHome,
			wantErr:  false,
		},
		{
			name:     "Environment variable expansion",
			input:    "$HOME/docs",
			expected: testHome + "/docs",
			wantErr:  false,
		},
		{
			name:     "Braced environment variable expansion",
			input:    "${HOME}/docs",
			expected: testHome + "/docs",
			wantErr:  false,
		},
		{
			name:     "Mixed expansions",
			input:    "~/docs/$HOME/test",
			expected: testHome + "/docs/" + testHome + "/test",
			wantErr:  false,
		},
		{
			name:     "Undefined environment variable",
			input:    "$UNDEFINED_VAR/test",
			expected: "/test",
			wantErr:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ExpandHome(tc.input)

			if tc.wantErr && err == nil {
				t.Errorf("Expected an error, got nil")
			}

			if err != nil && !tc.wantErr {
				t.Errorf("Unexpected error: %v", err)
			}

			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestCommandQuotesPath(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		path     string
		expected string
	}{
		{"Appended", "file -b --", "/tmp/a b.txt", "file -b -- '/tmp/a b.txt'"},
		{"Placeholder", "mediainfo {} | head", "/tmp/x", "mediainfo /tmp/x | head"},
		{"Single quote", "cat", "it's", `cat 'it'"'"'s'`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Command(tc.template, tc.path); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestRunContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := RunContext(ctx, "sleep 10")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("process was not killed on timeout")
	}
}

func TestExpandHomeUnclosedBrace(t *testing.T) {
	if _, err := ExpandHome("${HOME/docs"); err == nil {
		t.Fatal("Expected an error for unclosed brace")
	}
}

// Benchmark for performance testing
func BenchmarkExpandHome(b *testing.B) {
	os.Setenv("HOME", "/home/testuser")
	input := "~/documents/${HOME}/projects"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ExpandHome(input)
	}
}

package log

import "testing"

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"DEBUG": LevelDebug,
		"debug": LevelDebug,
		"ERROR": LevelError,
		"error": LevelError,
		"INFO":  LevelInfo,
		"":      LevelInfo,
		"loud":  LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { SetLevel(LevelInfo) })

	SetLevel(LevelError)
	if current().Desugar().Core().Enabled(atomLevel.Level() - 1) {
		t.Error("levels below ERROR should be disabled")
	}
	SetLevel(LevelDebug)
	if !current().Desugar().Core().Enabled(atomLevel.Level()) {
		t.Error("DEBUG should be enabled")
	}
	Debug("debug message", "k", "v")
	Info("info message")
}

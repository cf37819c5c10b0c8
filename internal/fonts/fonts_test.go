package fonts

import (
	"testing"

	"latex2png/internal/domain"
)

func TestLoad_EveryFontSetIsBundled(t *testing.T) {
	for _, set := range domain.FontSets {
		data, err := Load(set)
		if err != nil {
			t.Fatalf("Load(%s): %v", set, err)
		}
		if len(data) < 1024 {
			t.Fatalf("Load(%s): suspiciously small font (%d bytes)", set, len(data))
		}
	}
}

func TestLoad_UnknownSet(t *testing.T) {
	if _, err := Load(domain.FontSet("wingdings")); err == nil {
		t.Fatalf("expected error for unknown font set")
	}
}

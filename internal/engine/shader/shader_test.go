package shader

import (
	"strings"
	"testing"
)

func TestBuild(t *testing.T) {
	src := Build("\nvoid main() {}\n", map[string]string{"SPECULAR": "", "UNITS": "2"})
	lines := strings.Split(src, "\n")
	if lines[0] != Version {
		t.Fatalf("first line = %q, want %q", lines[0], Version)
	}
	if lines[1] != "#define SPECULAR" || lines[2] != "#define UNITS 2" {
		t.Errorf("defines not in order: %q", lines[1:3])
	}
	if lines[3] != "void main() {}" {
		t.Errorf("body = %q", lines[3])
	}
}

func TestBuildNoDefines(t *testing.T) {
	src := Build("void main() {}", nil)
	if src != Version+"\nvoid main() {}" {
		t.Errorf("got %q", src)
	}
}

package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFind(t *testing.T) {
	cases := []struct {
		path        string
		wantRaw     string
		wantPadding int
		wantOK      bool
	}{
		{"shot/render.[####].tif", "[####]", 4, true},
		{"shot/render.####.tif", "####", 4, true},
		{"shot/render.@@.tif", "@@", 2, true},
		{"shot/render.%04d.tif", "%04d", 4, true},
		{"shot/render.[%05d].tif", "[%05d]", 5, true},
		{"shot/render.mov", "", 0, false},
		{"shot/render_v001.mov", "", 0, false},
	}

	for _, tc := range cases {
		token, ok := Find(tc.path)
		if ok != tc.wantOK {
			t.Errorf("Find(%q) ok = %v, want %v", tc.path, ok, tc.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if token.Raw != tc.wantRaw {
			t.Errorf("Find(%q) raw = %q, want %q", tc.path, token.Raw, tc.wantRaw)
		}
		if token.Padding != tc.wantPadding {
			t.Errorf("Find(%q) padding = %d, want %d", tc.path, token.Padding, tc.wantPadding)
		}
	}
}

func TestFramePath(t *testing.T) {
	cases := []struct {
		path  string
		frame int
		want  string
	}{
		{"render.[####].tif", 7, "render.0007.tif"},
		{"render.#####.tif", 12, "render.00012.tif"},
		{"render.@@@.tif", 3, "render.003.tif"},
		{"render.%04d.tif", 1234, "render.1234.tif"},
		{"render.%04d.tif", 56789, "render.56789.tif"},
		{"render.mov", 7, "render.mov"},
	}
	for _, tc := range cases {
		if got := FramePath(tc.path, tc.frame); got != tc.want {
			t.Errorf("FramePath(%q, %d) = %q, want %q", tc.path, tc.frame, got, tc.want)
		}
	}
}

func TestExpand(t *testing.T) {
	got := Expand("out.[###].tif", 10, 4, 1)
	want := []string{"out.010.tif", "out.011.tif", "out.012.tif", "out.013.tif"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Expand = %v, want %v", got, want)
	}
}

func TestExpandWithStride(t *testing.T) {
	got := Expand("out.[####].tif", 0, 3, 5)
	want := []string{"out.0000.tif", "out.0005.tif", "out.0010.tif"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Expand = %v, want %v", got, want)
	}
}

func TestExpandSingleFile(t *testing.T) {
	got := Expand("out.mov", 0, 100, 1)
	want := []string{"out.mov"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("movie path should expand to itself, got %v", got)
	}
}

func TestExpandEmptyCount(t *testing.T) {
	if got := Expand("out.[####].tif", 0, 0, 1); got != nil {
		t.Fatalf("zero frames should yield nil, got %v", got)
	}
}

func TestRange(t *testing.T) {
	dir := t.TempDir()
	for _, frame := range []int{3, 4, 7, 12} {
		name := filepath.Join(dir, fmt.Sprintf("shot.%04d.tif", frame))
		if err := os.WriteFile(name, nil, 0o644); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	// A non-frame file matching the glob must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "shot.final.tif"), nil, 0o644); err != nil {
		t.Fatalf("write decoy: %v", err)
	}

	first, last, ok, err := Range(filepath.Join(dir, "shot.[####].tif"))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if !ok {
		t.Fatal("expected frames on disk")
	}
	if first != 3 || last != 12 {
		t.Fatalf("Range = %d..%d, want 3..12", first, last)
	}
}

func TestRangeNoFrames(t *testing.T) {
	dir := t.TempDir()
	_, _, ok, err := Range(filepath.Join(dir, "empty.[####].tif"))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false with no frames on disk")
	}
}

func TestRangeNoToken(t *testing.T) {
	_, _, ok, err := Range("plain.mov")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for tokenless path")
	}
}

package diff_test

import (
	"testing"

	"github.com/lintgate/lintgate/internal/diff"
)

func TestFilterExtensions(t *testing.T) {
	filter := diff.Filter{Extensions: diff.DefaultExtensions}

	cases := []struct {
		path string
		want bool
	}{
		{"src/a.cpp", true},
		{"src/a.H", true},
		{"include/x.h++", true},
		{"README.md", false},
		{"Makefile", false},
		{"script.py", false},
	}
	for _, tc := range cases {
		if got := filter.Accepts(tc.path); got != tc.want {
			t.Errorf("Accepts(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}

	if !(diff.Filter{}).Accepts("script.py") {
		t.Error("empty extension list should accept any extension")
	}
}

func TestFilterIgnore(t *testing.T) {
	filter := diff.Filter{
		Ignore: []string{"third_party", "./vendor/", "*_generated.cpp", "src/legacy.cpp"},
	}

	cases := []struct {
		path string
		want bool
	}{
		{"third_party/lib.cpp", false},
		{"vendor/x.cpp", false},
		{"src/pb_generated.cpp", false},
		{"src/legacy.cpp", false},
		{"src/third.cpp", true},
		{"src/fresh.cpp", true},
	}
	for _, tc := range cases {
		if got := filter.Accepts(tc.path); got != tc.want {
			t.Errorf("Accepts(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestFilterRejectsEmptyPath(t *testing.T) {
	if (diff.Filter{}).Accepts("") {
		t.Error("empty path must be rejected")
	}
}

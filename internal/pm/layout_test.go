package pm

import (
	"testing"
	"time"
)

func TestNormalizeExt(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{".jpg", ".jpg"},
		{".JPG", ".jpg"},
		{".jpeg", ".jpg"},
		{".JPEG", ".jpg"},
		{".MOV", ".mov"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeExt(tt.in); got != tt.want {
				t.Errorf("NormalizeExt(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalPath(t *testing.T) {
	at := time.Date(2023, 5, 1, 8, 4, 9, 0, time.UTC)

	if got := CanonicalDir(at); got != "2023/05/01" {
		t.Errorf("CanonicalDir() = %q, want %q", got, "2023/05/01")
	}

	tests := []struct {
		seq  int
		ext  string
		want string
	}{
		{0, ".jpg", "080409_00.jpg"},
		{7, ".mov", "080409_07.mov"},
		{99, "", "080409_99"},
	}
	for _, tt := range tests {
		if got := CanonicalName(at, tt.seq, tt.ext); got != tt.want {
			t.Errorf("CanonicalName(%d, %q) = %q, want %q", tt.seq, tt.ext, got, tt.want)
		}
	}
}

func TestIsFiledAt(t *testing.T) {
	at := time.Date(2023, 5, 1, 8, 4, 9, 0, time.UTC)

	tests := []struct {
		rel  string
		want bool
	}{
		{"2023/05/01/080409_00.jpg", true},
		{"2023/05/01/080409_12.mov", true},
		{"2023/05/01/080409_03", true},
		{"2023/05/01/080410_00.jpg", false},
		{"2023/05/02/080409_00.jpg", false},
		{"import/IMG_0001.jpg", false},
		{"IMG_0001.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := isFiledAt(tt.rel, at); got != tt.want {
				t.Errorf("isFiledAt(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	s := NewSummary()
	for _, l := range []string{"ok", "ok", "dupe", "err=md5", "ok"} {
		s.Add(l)
	}

	if got := s.Count("ok"); got != 3 {
		t.Errorf("Count(ok) = %d, want 3", got)
	}
	if got := s.Count("coll"); got != 0 {
		t.Errorf("Count(coll) = %d, want 0", got)
	}
	if got := s.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
	if got, want := s.String(), "dupe=1 err=md5=1 ok=3"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Result{Status: StatusOK}, "ok"},
		{Result{Status: StatusDupe}, "dupe"},
		{Result{Status: StatusCollision}, "coll"},
		{Result{Status: StatusSame}, "same"},
		{failed("copy", nil), "err=copy"},
		{Result{Status: StatusError}, "err"},
	}
	for _, tt := range tests {
		if got := tt.r.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

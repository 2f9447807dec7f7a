package phototime

import (
	"errors"
	"testing"
	"time"
)

var (
	testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	utc     = time.UTC
)

func TestParse(t *testing.T) {
	plus2 := time.FixedZone("", 2*3600)

	tests := []struct {
		name      string
		source    Source
		raw       string
		want      time.Time
		wantNaive bool
		wantErr   bool
	}{
		{"gps with Z", SourceGPS, "2023:01:02 10:00:00Z", time.Date(2023, 1, 2, 10, 0, 0, 0, utc), false, false},
		{"gps without Z", SourceGPS, "2023:01:02 10:00:00", time.Date(2023, 1, 2, 10, 0, 0, 0, utc), false, false},
		{"gps fractional", SourceGPS, "2023:01:02 10:00:00.250Z", time.Date(2023, 1, 2, 10, 0, 0, 250e6, utc), false, false},
		{"naive device time", SourceCreate, "2023:01:02 10:00:00", time.Date(2023, 1, 2, 10, 0, 0, 0, utc), true, false},
		{"colon offset", SourceCreation, "2023:01:02 10:00:00+02:00", time.Date(2023, 1, 2, 10, 0, 0, 0, plus2), false, false},
		{"numeric offset", SourceMTime, "2023:01:02 10:00:00+0200", time.Date(2023, 1, 2, 10, 0, 0, 0, plus2), false, false},
		{"device time in UTC", SourceOrig, "2023:01:02 10:00:00Z", time.Date(2023, 1, 2, 10, 0, 0, 0, utc), false, false},
		{"garbage", SourceOrig, "not a date", time.Time{}, false, true},
		{"zeroed camera clock", SourceOrig, "0000:00:00 00:00:00", time.Time{}, false, true},
		{"iso separators", SourceOrig, "2023-01-02 10:00:00", time.Time{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := Parse(tt.source, tt.raw, utc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !c.Time.Equal(tt.want) {
				t.Errorf("Parse() time = %v, want %v", c.Time, tt.want)
			}
			if c.Naive != tt.wantNaive {
				t.Errorf("Parse() naive = %v, want %v", c.Naive, tt.wantNaive)
			}
		})
	}
}

func TestParse_OffsetKeepsWallClock(t *testing.T) {
	t.Parallel()
	c, err := Parse(SourceCreation, "2023:01:02 23:30:00-05:00", utc)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := c.Time.Format("2006/01/02 150405"); got != "2023/01/02 233000" {
		t.Errorf("wall clock = %s, want 2023/01/02 233000", got)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		ext        string
		raw        []string
		wantSource Source
		want       time.Time
	}{
		{
			name:       "video prefers creation unconditionally",
			ext:        ".mp4",
			raw:        []string{"", "", "", "2023:01:01 10:00:00+00:00", "2023:01:02 10:00:00Z"},
			wantSource: SourceCreation,
			want:       time.Date(2023, 1, 1, 10, 0, 0, 0, utc),
		},
		{
			name:       "video extension is case insensitive",
			ext:        ".MOV",
			raw:        []string{"2023:05:01 10:00:00", "2023:05:01 10:00:00", "2023:05:01 10:00:00", "2023:01:01 10:00:00+00:00", ""},
			wantSource: SourceCreation,
			want:       time.Date(2023, 1, 1, 10, 0, 0, 0, utc),
		},
		{
			name:       "photo ignores creation priority",
			ext:        ".jpg",
			raw:        []string{"", "2023:05:01 10:00:00", "2023:05:01 10:00:00", "2023:01:01 10:00:00+00:00", ""},
			wantSource: SourceCreate,
			want:       time.Date(2023, 5, 1, 10, 0, 0, 0, utc),
		},
		{
			name:       "single survivor",
			ext:        ".jpg",
			raw:        []string{"2022:03:04 05:06:07"},
			wantSource: SourceMTime,
			want:       time.Date(2022, 3, 4, 5, 6, 7, 0, utc),
		},
		{
			name:       "create equals orig",
			ext:        ".jpg",
			raw:        []string{"2020:01:01 00:00:00", "2021:07:01 08:00:00", "2021:07:01 08:00:00", "", ""},
			wantSource: SourceCreate,
			want:       time.Date(2021, 7, 1, 8, 0, 0, 0, utc),
		},
		{
			name:       "cluster majority beats outlier",
			ext:        ".jpg",
			raw:        []string{"2023:01:04 09:00:00", "2023:01:01 09:00:00", "2023:01:01 09:30:00", "", "2023:01:01 09:15:00Z"},
			wantSource: SourceCreate,
			want:       time.Date(2023, 1, 1, 9, 0, 0, 0, utc),
		},
		{
			name:       "gps first in cluster is demoted",
			ext:        ".jpg",
			raw:        []string{"", "2023:01:01 09:30:00", "2023:01:01 09:45:00", "", "2023:01:01 09:00:00Z"},
			wantSource: SourceCreate,
			want:       time.Date(2023, 1, 1, 9, 30, 0, 0, utc),
		},
		{
			name:       "equal-size clusters pick the earlier one",
			ext:        ".jpg",
			raw:        []string{"2023:03:10 12:00:00", "2023:03:10 13:00:00", "2023:01:01 08:00:00", "2023:01:01 09:00:00", ""},
			wantSource: SourceOrig,
			want:       time.Date(2023, 1, 1, 8, 0, 0, 0, utc),
		},
		{
			name:       "chained grouping spans more than a day",
			ext:        ".jpg",
			raw:        []string{"2023:01:01 00:00:00", "2023:01:01 20:00:00", "2023:01:02 16:00:00", "", "2022:06:01 00:00:00Z"},
			wantSource: SourceMTime,
			want:       time.Date(2023, 1, 1, 0, 0, 0, 0, utc),
		},
		{
			name:       "equal instants keep source order",
			ext:        ".jpg",
			raw:        []string{"2023:01:01 10:00:00", "2023:01:01 10:00:00+00:00", "2023:01:01 10:00:00", "", ""},
			wantSource: SourceMTime,
			want:       time.Date(2023, 1, 1, 10, 0, 0, 0, utc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res, err := Resolve(tt.ext, tt.raw, testNow, utc)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.Source != tt.wantSource {
				t.Errorf("Resolve() source = %v, want %v", res.Source, tt.wantSource)
			}
			if !res.Time.Equal(tt.want) {
				t.Errorf("Resolve() time = %v, want %v", res.Time, tt.want)
			}
		})
	}
}

func TestResolve_NaiveNeverEqualsZoned(t *testing.T) {
	t.Parallel()
	// create is zoned and orig naive at the same instant, so the equality rule
	// does not apply and the cluster rule picks the first by source order
	raw := []string{"", "2023:01:01 10:00:00+00:00", "2023:01:01 10:00:00", "", "2023:01:01 09:00:00Z"}
	res, err := Resolve(".jpg", raw, testNow, utc)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Source != SourceCreate {
		t.Errorf("Resolve() source = %v, want create", res.Source)
	}
}

func TestResolve_Discards(t *testing.T) {
	t.Parallel()
	raw := []string{"garbage", "1999:12:31 23:59:59", "2030:01:01 00:00:00", "", "2023:02:03 04:05:06Z"}
	res, err := Resolve(".jpg", raw, testNow, utc)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Source != SourceGPS {
		t.Errorf("Resolve() source = %v, want gps", res.Source)
	}

	wantReasons := map[Source]string{
		SourceMTime:  "unparseable",
		SourceCreate: "before 2000",
		SourceOrig:   "in the future",
	}
	if len(res.Discarded) != len(wantReasons) {
		t.Fatalf("discarded %d candidates, want %d: %+v", len(res.Discarded), len(wantReasons), res.Discarded)
	}
	for _, d := range res.Discarded {
		if want := wantReasons[d.Source]; d.Reason != want {
			t.Errorf("discard reason for %v = %q, want %q", d.Source, d.Reason, want)
		}
	}
}

func TestResolve_NoCandidates(t *testing.T) {
	t.Parallel()
	res, err := Resolve(".jpg", []string{"", "bad", "1980:01:01 00:00:00"}, testNow, utc)
	if !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("Resolve() error = %v, want ErrNoCandidates", err)
	}
	if res == nil || len(res.Discarded) != 2 {
		t.Errorf("expected two discards reported, got %+v", res)
	}
}

func TestResolve_TooManyValues(t *testing.T) {
	t.Parallel()
	if _, err := Resolve(".jpg", make([]string, 6), testNow, utc); err == nil {
		t.Fatal("expected error for six values")
	}
}

func TestSource_String(t *testing.T) {
	t.Parallel()
	if SourceCreation.String() != "creation" {
		t.Errorf("String() = %q", SourceCreation.String())
	}
	if Source(9).String() != "source(9)" {
		t.Errorf("String() = %q", Source(9).String())
	}
}

package pm_test

import (
	"slices"
	"strings"
	"testing"
	"time"

	"pm-go/internal/pm"
	"pm-go/internal/testutil"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantPath  string
		wantTimes []string
		wantErr   bool
	}{
		{
			name:      "path only",
			line:      "/photos/a.jpg",
			wantPath:  "/photos/a.jpg",
			wantTimes: []string{},
		},
		{
			name:      "partial candidates",
			line:      "/photos/a.jpg,2023:05:01 08:00:00+02:00,,2023:05:01 08:00:00",
			wantPath:  "/photos/a.jpg",
			wantTimes: []string{"2023:05:01 08:00:00+02:00", "", "2023:05:01 08:00:00"},
		},
		{
			name:      "comma in path",
			line:      "/photos/a, b.jpg,m,c,o,cr,g",
			wantPath:  "/photos/a, b.jpg",
			wantTimes: []string{"m", "c", "o", "cr", "g"},
		},
		{
			name:      "values trimmed",
			line:      " /photos/a.jpg , 2023:05:01 08:00:00 ",
			wantPath:  "/photos/a.jpg",
			wantTimes: []string{"2023:05:01 08:00:00"},
		},
		{name: "empty path", line: ",2023:05:01 08:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := pm.ParseRecord(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if rec.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", rec.Path, tt.wantPath)
			}
			if !slices.Equal(rec.Times, tt.wantTimes) {
				t.Errorf("Times = %q, want %q", rec.Times, tt.wantTimes)
			}
		})
	}
}

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		path  string
		times []string
		want  string
	}{
		{"/a.jpg", nil, "/a.jpg"},
		{"/a.jpg", []string{"m", "", "o", "", ""}, "/a.jpg,m,,o"},
		{"/a, b.jpg", []string{"m"}, "/a, b.jpg,m,,,,"},
	}
	for _, tt := range tests {
		got := pm.FormatRecord(tt.path, tt.times)
		if got != tt.want {
			t.Errorf("FormatRecord(%q) = %q, want %q", tt.path, got, tt.want)
		}
		rec, err := pm.ParseRecord(got)
		if err != nil {
			t.Fatalf("ParseRecord(%q) error = %v", got, err)
		}
		if rec.Path != tt.path {
			t.Errorf("ParseRecord(FormatRecord()) path = %q, want %q", rec.Path, tt.path)
		}
	}
}

func TestReadRecords(t *testing.T) {
	input := "/a.jpg,m\n\n,bad\r\n/b.jpg\n"

	var paths []string
	var badLines []int
	err := pm.ReadRecords(strings.NewReader(input),
		func(rec pm.Record) { paths = append(paths, rec.Path) },
		func(line int, err error) { badLines = append(badLines, line) })
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if !slices.Equal(paths, []string{"/a.jpg", "/b.jpg"}) {
		t.Errorf("paths = %v", paths)
	}
	if !slices.Equal(badLines, []int{3}) {
		t.Errorf("bad lines = %v, want [3]", badLines)
	}
}

func TestArchive_Import(t *testing.T) {
	f := testutil.NewArchiveFixture(t, pm.Options{Location: time.UTC})

	fresh := f.SourceFile(t, "fresh.JPG", "fresh")
	dupe := f.SourceFile(t, "dupe.jpg", "fresh")
	old := f.SourceFile(t, "old.jpg", "old")
	missing := f.Source + "/missing.jpg"

	datefile := strings.Join([]string{
		pm.FormatRecord(fresh, []string{"", "", "2023:05:01 08:00:00"}),
		pm.FormatRecord(dupe, []string{"", "", "2023:05:01 09:00:00"}),
		pm.FormatRecord(old, []string{"1999:01:01 00:00:00"}),
		pm.FormatRecord(missing, []string{"2023:05:01 10:00:00"}),
		",,,",
	}, "\n")

	summary, err := f.Archive.Import(strings.NewReader(datefile), false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if got, want := summary.String(), "dupe=1 err=md5=1 err=parse=1 err=time=1 ok=1"; got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}

	if _, ok := f.Index.Lookup("2023/05/01/080000_00.jpg"); !ok {
		t.Error("fresh file not indexed at its capture time")
	}

	events, err := f.DB.FindEventsByArchivePath("2023/05/01/080000_00.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].SourcePath != fresh || events[0].ResolvedFrom != "orig" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestArchive_Relocate(t *testing.T) {
	f := testutil.NewArchiveFixture(t, pm.Options{Location: time.UTC})
	misfiled := f.Archive.AddFile(f.SourceFile(t, "a.jpg", "a"), shot, false)
	filed := f.Archive.AddFile(f.SourceFile(t, "b.jpg", "b"), shot.Add(time.Hour), false)

	datefile := strings.Join([]string{
		pm.FormatRecord(misfiled.Path, []string{"", "", "2023:05:02 10:00:00"}),
		pm.FormatRecord(filed.Path, []string{"", "", "2023:05:01 09:00:00"}),
		pm.FormatRecord("2023/05/01/nothing.jpg", []string{"", "", "2023:05:02 11:00:00"}),
	}, "\n")

	summary, err := f.Archive.Relocate(strings.NewReader(datefile))
	if err != nil {
		t.Fatalf("Relocate() error = %v", err)
	}
	if got, want := summary.String(), "err=move=1 ok=1 same=1"; got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}

	moved := "2023/05/02/100000_00.jpg"
	if got, _ := f.Index.PathOf(misfiled.Hash); got != moved {
		t.Errorf("index maps hash to %q, want %q", got, moved)
	}

	if got := f.Events(t, moved); !slices.Equal(got, []string{"move:ok"}) {
		t.Errorf("events at new path = %v", got)
	}
	if got := f.Events(t, misfiled.Path); !slices.Equal(got, []string{"move:ok"}) {
		t.Errorf("events at old path = %v", got)
	}
}

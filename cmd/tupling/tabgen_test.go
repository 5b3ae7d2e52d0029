package main

import (
	"strings"
	"testing"
)

func TestGenerateTable(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		alignment []string
		want      string
	}{
		{
			name:   "markdown",
			format: "markdown",
			want: "| cut | yield |\n" +
				"|:---|:---|\n" +
				"| L0 | 1200 |\n" +
				"| Hlt1\\|Hlt2 | 800 |\n",
		},
		{
			name:      "markdown aligned",
			format:    "markdown",
			alignment: []string{"left", "right"},
			want: "| cut | yield |\n" +
				"|:---|---:|\n" +
				"| L0 | 1200 |\n" +
				"| Hlt1\\|Hlt2 | 800 |\n",
		},
		{
			name:   "csv",
			format: "csv",
			want:   "cut,yield\nL0,1200\nHlt1|Hlt2,800\n",
		},
		{
			name:   "text",
			format: "text",
			want:   "cut        yield\nL0         1200\nHlt1|Hlt2  800\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, stdout, _ := newTestCommand(t)
			tabgenFlags.format = tt.format
			tabgenFlags.alignment = tt.alignment

			if err := generateTable(cmd, []string{"testdata/yields.csv"}); err != nil {
				t.Fatalf("generateTable() error = %v", err)
			}
			if got := stdout.String(); got != tt.want {
				t.Errorf("output =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestGenerateTableStdin(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	tabgenFlags.format = "markdown"
	tabgenFlags.alignment = []string{"right"}
	cmd.SetIn(strings.NewReader("a,b\n1,2\n"))

	if err := generateTable(cmd, nil); err != nil {
		t.Fatalf("generateTable() error = %v", err)
	}
	want := "| a | b |\n|---:|---:|\n| 1 | 2 |\n"
	if got := stdout.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestParseAlignment(t *testing.T) {
	tests := []struct {
		names   []string
		columns int
		want    []bool
		wantErr bool
	}{
		{nil, 3, nil, false},
		{[]string{"right"}, 2, []bool{true, true}, false},
		{[]string{"l", "R"}, 2, []bool{false, true}, false},
		{[]string{"left"}, 0, []bool{}, false},
		{[]string{"left", "right"}, 3, nil, true},
		{[]string{"center", "left"}, 2, nil, true},
	}

	for _, tt := range tests {
		got, err := parseAlignment(tt.names, tt.columns)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAlignment(%v, %d) error = %v, wantErr %v", tt.names, tt.columns, err, tt.wantErr)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseAlignment(%v, %d) = %v, want %v", tt.names, tt.columns, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseAlignment(%v, %d) = %v, want %v", tt.names, tt.columns, got, tt.want)
				break
			}
		}
	}
}

func TestReadTableEmpty(t *testing.T) {
	if _, err := readTable(strings.NewReader("")); err == nil {
		t.Error("readTable() of empty input should fail")
	}
}

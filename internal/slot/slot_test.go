package slot

import (
	"encoding/json"
	"slices"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "07:00", want: 7 * 60},
		{in: "22:30", want: 22*60 + 30},
		{in: "09:15:00", want: 9*60 + 15},
		{in: "09:15:30", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "", wantErr: true},
		{in: "nine", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q): expected error, got %v", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	payload, err := json.Marshal(struct {
		At TimeOfDay `json:"at"`
	}{At: MustTimeOfDay("08:05")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"at":"08:05"}` {
		t.Fatalf("unexpected payload %s", payload)
	}

	var decoded struct {
		At TimeOfDay `json:"at"`
	}
	if err := json.Unmarshal([]byte(`{"at":"14:30"}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.At != MustTimeOfDay("14:30") {
		t.Fatalf("decoded %s", decoded.At)
	}
	if err := json.Unmarshal([]byte(`{"at":"14:30:10"}`), &decoded); err == nil {
		t.Fatal("expected error for non-zero seconds")
	}
}

func TestWindowOverlaps(t *testing.T) {
	w := Window{Start: MustTimeOfDay("10:00"), End: MustTimeOfDay("11:00")}
	tests := []struct {
		name  string
		other Window
		want  bool
	}{
		{"inside", Window{MustTimeOfDay("10:15"), MustTimeOfDay("10:45")}, true},
		{"straddles start", Window{MustTimeOfDay("09:30"), MustTimeOfDay("10:30")}, true},
		{"straddles end", Window{MustTimeOfDay("10:30"), MustTimeOfDay("11:30")}, true},
		{"touches end", Window{MustTimeOfDay("11:00"), MustTimeOfDay("12:00")}, false},
		{"touches start", Window{MustTimeOfDay("09:00"), MustTimeOfDay("10:00")}, false},
		{"covers", Window{MustTimeOfDay("09:00"), MustTimeOfDay("12:00")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Overlaps(tt.other); got != tt.want {
				t.Fatalf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.other.Overlaps(w); got != tt.want {
				t.Fatalf("Overlaps is not symmetric")
			}
		})
	}
}

func TestGrid(t *testing.T) {
	occupied := []Window{{Start: MustTimeOfDay("08:00"), End: MustTimeOfDay("09:00")}}
	slots := slices.Collect(Grid(MustTimeOfDay("07:00"), MustTimeOfDay("10:00"), occupied))

	if len(slots) != 6 {
		t.Fatalf("expected 6 slots, got %d", len(slots))
	}
	wantAvailable := []bool{true, true, false, false, true, true}
	for i, s := range slots {
		if s.Available != wantAvailable[i] {
			t.Fatalf("slot %d (%s) available=%v, want %v", i, s.StartTime, s.Available, wantAvailable[i])
		}
		if s.EndTime.Sub(s.StartTime) != Length {
			t.Fatalf("slot %d has length %s", i, s.EndTime.Sub(s.StartTime))
		}
	}
	if slots[0].StartTime != MustTimeOfDay("07:00") || slots[5].EndTime != MustTimeOfDay("10:00") {
		t.Fatalf("grid bounds %s..%s", slots[0].StartTime, slots[5].EndTime)
	}
}

func TestGridDropsPartialTrailingSlot(t *testing.T) {
	slots := slices.Collect(Grid(MustTimeOfDay("07:00"), MustTimeOfDay("08:45"), nil))
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if last := slots[len(slots)-1]; last.EndTime != MustTimeOfDay("08:30") {
		t.Fatalf("last slot ends at %s", last.EndTime)
	}
}

func TestGridIsRestartable(t *testing.T) {
	seq := Grid(MustTimeOfDay("09:00"), MustTimeOfDay("11:00"), nil)
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Fatal("second iteration differs from the first")
	}

	count := 0
	for range seq {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Fatalf("early break yielded %d slots", count)
	}
}

func TestDateAt(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	got := d.At(MustTimeOfDay("14:30"), time.UTC)
	want := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At = %s, want %s", got, want)
	}
	if _, err := ParseDate("2026-02-30"); err == nil {
		t.Fatal("expected invalid date error")
	}
}

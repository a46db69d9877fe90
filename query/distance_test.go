package query

import "testing"

func TestParseDistance(t *testing.T) {
	tests := []struct {
		raw   string
		known bool
		want  int
	}{
		{"歩10分", true, 800},
		{"徒歩5分", true, 400},
		{"歩 3 分", true, 240},
		{"10 min", true, 800},
		{"800m", true, 800},
		{"1200ｍ", true, 1200},
		{"350メートル", true, 350},
		{"10分", true, 800},
		{"", false, 0},
		{"駅近", false, 0},
	}

	for _, tt := range tests {
		d := ParseDistance(tt.raw)
		if d.Known() != tt.known {
			t.Errorf("ParseDistance(%q).Known() = %v; want %v", tt.raw, d.Known(), tt.known)
			continue
		}
		if d.Meters() != tt.want {
			t.Errorf("ParseDistance(%q).Meters() = %d; want %d", tt.raw, d.Meters(), tt.want)
		}
	}
}

func TestParseDistanceNeverNegative(t *testing.T) {
	for _, raw := range []string{"歩0分", "0m", "歩1分", "99999m", "nonsense", ""} {
		if m := ParseDistance(raw).Meters(); m < 0 {
			t.Errorf("ParseDistance(%q).Meters() = %d; want >= 0", raw, m)
		}
	}
}

func TestFartherThan(t *testing.T) {
	tests := []struct {
		name      string
		d         Distance
		threshold int
		want      bool
	}{
		{"beyond", Meters(1200), 800, true},
		{"within", Meters(500), 800, false},
		{"exactly at threshold is near", Meters(800), 800, false},
		{"unknown distance is near", Distance{}, 800, false},
		{"no threshold is near", Meters(1200), 0, false},
	}

	for _, tt := range tests {
		if got := tt.d.FartherThan(tt.threshold); got != tt.want {
			t.Errorf("%s: FartherThan(%d) = %v; want %v", tt.name, tt.threshold, got, tt.want)
		}
	}
}

func TestBeyond(t *testing.T) {
	if got := Meters(1200).Beyond(800); got != 400 {
		t.Errorf("Beyond = %d; want 400", got)
	}
	if got := Meters(500).Beyond(800); got != -300 {
		t.Errorf("Beyond = %d; want -300", got)
	}
	if got := (Distance{}).Beyond(800); got != 0 {
		t.Errorf("unknown Beyond = %d; want 0", got)
	}
}

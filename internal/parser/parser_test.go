package parser

import "testing"

func TestSheetsPerUnit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"plain", "마스크팩 30매", 30, true},
		{"with space", "마스크팩 30 매", 30, true},
		{"first token wins", "수분팩 10매 + 증정 5매", 10, true},
		{"pack with units", "마스크팩 30매 2개입", 30, true},
		{"no token", "수분 크림 대용량", 0, false},
		{"empty", "", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SheetsPerUnit(tc.in)
			if tc.ok {
				if got == nil {
					t.Fatalf("SheetsPerUnit(%q) = nil, want %v", tc.in, tc.want)
				}
				if *got != tc.want {
					t.Fatalf("SheetsPerUnit(%q) = %v, want %v", tc.in, *got, tc.want)
				}
			} else if got != nil {
				t.Fatalf("SheetsPerUnit(%q) = %v, want nil", tc.in, *got)
			}
		})
	}
}

func TestUnits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"gae", "마스크팩 30매 2개입", 2},
		{"pack", "수분팩 3팩 세트", 3},
		{"x lower", "토너패드 x4", 4},
		{"x upper", "토너패드 X 5", 5},
		{"gae beats x", "마스크팩 2개 x10", 2},
		{"default", "마스크팩 30매", 1},
		{"empty", "", 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Units(tc.in); got != tc.want {
				t.Fatalf("Units(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

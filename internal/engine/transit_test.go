package engine

import "testing"

func TestParseMaxMinutes(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{
			name: "range_takes_upper_bound",
			text: "5~10분이내",
			want: 10,
			ok:   true,
		},
		{
			name: "single_bound",
			text: "15분이내",
			want: 15,
			ok:   true,
		},
		{
			name: "empty",
			text: "",
			ok:   false,
		},
		{
			name: "no_digits",
			text: "역세권",
			ok:   false,
		},
		{
			name: "single_number",
			text: "7",
			want: 7,
			ok:   true,
		},
		{
			name: "max_wins_regardless_of_order",
			text: "10~5분",
			want: 10,
			ok:   true,
		},
		{
			name: "digits_split_by_korean_text",
			text: "도보 3분, 버스 12분",
			want: 12,
			ok:   true,
		},
		{
			name: "leading_zeroes",
			text: "05분이내",
			want: 5,
			ok:   true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseMaxMinutes(tc.text)
			if ok != tc.ok {
				t.Fatalf("ParseMaxMinutes(%q): ok = %v, want %v", tc.text, ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("ParseMaxMinutes(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestMaxMinutesOf(t *testing.T) {
	if got := MaxMinutesOf(nil); got != nil {
		t.Fatalf("MaxMinutesOf(nil) = %v, want nil", got)
	}

	noDigits := "역세권"
	if got := MaxMinutesOf(&noDigits); got != nil {
		t.Fatalf("MaxMinutesOf(%q) = %v, want nil", noDigits, got)
	}

	ranged := "5~10분이내"
	got := MaxMinutesOf(&ranged)
	if got == nil || *got != 10 {
		t.Fatalf("MaxMinutesOf(%q) = %v, want 10", ranged, got)
	}
}

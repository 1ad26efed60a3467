package engine

import "testing"

func TestFormatFacility(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"", "unknown"},
		{"  ", "unknown"},
		{"stairs", "stairs"},
		{"stairs,escalator", "stairs / escalator"},
		{"elevator, stairs", "elevator / stairs"},
		{",,", "unknown"},
	}

	for _, tc := range cases {
		if got := formatFacility(tc.code); got != tc.want {
			t.Errorf("formatFacility(%q) = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestRenderMessage(t *testing.T) {
	cases := []struct {
		dist float64
		want string
	}{
		{0.0, "right outside, step off and you're there"},
		{0.4, "right outside, step off and you're there"},
		{0.5, "very close"},
		{2.0, "very close"},
		{2.1, "2.1 cars' walk"},
		{99.0, "99.0 cars' walk"},
	}

	for _, tc := range cases {
		if got := renderMessage(tc.dist); got != tc.want {
			t.Errorf("renderMessage(%v) = %q, want %q", tc.dist, got, tc.want)
		}
	}
}

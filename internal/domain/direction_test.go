package domain

import "testing"

func TestDirectionLabel(t *testing.T) {
	cases := []struct {
		dx, dy, dz int
		want       string
	}{
		{0, 1, 0, "north"},
		{0, -1, 0, "south"},
		{1, 0, 0, "east"},
		{-1, 0, 0, "west"},
		{1, 1, 0, "northeast"},
		{-1, 1, 0, "northwest"},
		{1, -1, 0, "southeast"},
		{-1, -1, 0, "southwest"},
		{0, 0, 1, "up"},
		{0, 0, -1, "down"},
		{1, 1, 1, "northeast-up"},
		{0, -1, -1, "south-down"},
		{0, 0, 0, "here"},
		{5, -3, 0, "southeast"},
	}
	for _, tc := range cases {
		if got := DirectionLabel(tc.dx, tc.dy, tc.dz); got != tc.want {
			t.Fatalf("DirectionLabel(%d, %d, %d) = %q, want %q", tc.dx, tc.dy, tc.dz, got, tc.want)
		}
	}
}

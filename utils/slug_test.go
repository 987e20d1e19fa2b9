package utils

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Mechanical Keyboard":    "mechanical-keyboard",
		"  Wireless -- Mouse  ":  "wireless-mouse",
		"USB-C Hub (7-in-1)":     "usb-c-hub-7-in-1",
		"Électronique":           "électronique",
		"!!!":                    "",
		"already-a-slug":         "already-a-slug",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

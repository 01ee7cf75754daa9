package timeparse

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		input  string
		hour   int
		minute int
	}{
		{"8:00 AM", 8, 0},
		{"08:00 AM", 8, 0},
		{"8:00AM", 8, 0},
		{"8:00 am", 8, 0},
		{"12:00 AM", 0, 0},
		{"12:30 PM", 12, 30},
		{"9:00 PM", 21, 0},
		{"11:59 PM", 23, 59},
		{"14:30", 14, 30},
		{"8:00", 8, 0},
		{"0:00", 0, 0},
		{"23:59", 23, 59},
		{"  9:15 pm  ", 21, 15},
	}
	for _, c := range cases {
		got, err := Parse(c.input)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", c.input, err)
			continue
		}
		if got.Hour != c.hour || got.Minute != c.minute {
			t.Errorf("Parse(%q) = %d:%d, want %d:%d", c.input, got.Hour, got.Minute, c.hour, c.minute)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"25:00",
		"12:60",
		"24:00",
		"13:00 PM",
		"8",
		"8 AM",
		"eight o'clock",
		"8:0",
		"8:000",
		"-1:00",
	}
	for _, c := range cases {
		if _, err := Parse(c); err == nil {
			t.Errorf("Parse(%q) expected error, got none", c)
		}
	}
}

func TestClockCronSpec(t *testing.T) {
	c := Clock{Hour: 8, Minute: 5}
	if got := c.CronSpec(); got != "5 8 * * *" {
		t.Errorf("CronSpec() = %q, want %q", got, "5 8 * * *")
	}
}

func TestClockString(t *testing.T) {
	c := Clock{Hour: 7, Minute: 5}
	if got := c.String(); got != "07:05" {
		t.Errorf("String() = %q, want %q", got, "07:05")
	}
}

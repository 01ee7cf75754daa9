// Package timeparse parses free-form human time strings into a normalized
// 24-hour clock value.
//
// It accepts 12-hour ("8:00 AM", "12:30 pm") and 24-hour ("14:30", "8:00")
// forms. It is a pure function with no locale dependency beyond the ASCII
// AM/PM tokens.
package timeparse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	time12Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(AM|PM)$`)
	time24Pattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// Clock is a normalized wall-clock time of day.
type Clock struct {
	Hour   int // 0..23
	Minute int // 0..59
}

// CronSpec returns the standard 5-field cron expression that fires daily at
// this clock time.
func (c Clock) CronSpec() string {
	return fmt.Sprintf("%d %d * * *", c.Minute, c.Hour)
}

// String formats the clock as zero-padded 24-hour "HH:MM".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Parse parses a human time string into a Clock.
//
// Hour 12 with AM maps to 0; hour 12 with PM stays 12; other PM hours add 12.
// Anything not matching either form, or parsing outside 0-23 hours / 0-59
// minutes, returns an error.
func Parse(text string) (Clock, error) {
	clean := strings.ToUpper(strings.TrimSpace(text))

	var hour, minute int
	if m := time12Pattern.FindStringSubmatch(clean); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		switch {
		case m[3] == "PM" && hour != 12:
			hour += 12
		case m[3] == "AM" && hour == 12:
			hour = 0
		}
	} else if m := time24Pattern.FindStringSubmatch(clean); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
	} else {
		return Clock{}, fmt.Errorf("unrecognized time format: %q", text)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("time out of range: %q", text)
	}
	return Clock{Hour: hour, Minute: minute}, nil
}

package utils

import (
	"strconv"
	"time"
)

// FormatTimestamp renders a comment time for the flat listing: the clock
// for today, month and day within the year, the full date otherwise.
func FormatTimestamp(t time.Time) string {
	return formatTimestamp(t, time.Now())
}

func formatTimestamp(t, now time.Time) string {
	switch {
	case t.YearDay() == now.YearDay() && t.Year() == now.Year():
		return t.Format("15:04")
	case t.Year() == now.Year():
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// TimeAgo is the short relative age shown next to a comment author.
// Anything older than four weeks falls back to the date.
func TimeAgo(t time.Time) string {
	return timeAgo(t, time.Now())
}

func timeAgo(t, now time.Time) string {
	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return "just now"
	case age < time.Hour:
		return strconv.Itoa(int(age/time.Minute)) + "m ago"
	case age < 24*time.Hour:
		return strconv.Itoa(int(age/time.Hour)) + "h ago"
	case age < 7*24*time.Hour:
		return strconv.Itoa(int(age/(24*time.Hour))) + "d ago"
	case age < 28*24*time.Hour:
		return strconv.Itoa(int(age/(7*24*time.Hour))) + "w ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

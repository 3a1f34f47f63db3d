package transcript

import "fmt"

// FormatTimestamp renders a millisecond offset as [MM:SS], switching to
// [H:MM:SS] past the one hour mark. The bracketed form is part of the saved
// document contract.
func FormatTimestamp(ms int) string {
	if ms < 0 {
		ms = 0
	}
	totalSeconds := ms / 1000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	if hours > 0 {
		return fmt.Sprintf("[%d:%02d:%02d]", hours, minutes, seconds)
	}
	return fmt.Sprintf("[%02d:%02d]", minutes, seconds)
}

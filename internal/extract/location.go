package extract

import "strings"

const (
	locationDateSeparator = " - "
	refreshedPrefix       = "Odświeżono dnia"
)

// SplitLocationDate splits "Kraków, Podgórze - Odświeżono dnia 12 marca 2024"
// into location and date. The text is split once on " - " and the refresh
// marker is removed from the date. Without a separator the whole text is the
// location and defaultDate is returned.
func SplitLocationDate(text, defaultDate string) (string, string) {
	text = strings.TrimSpace(text)
	location, date, found := strings.Cut(text, locationDateSeparator)
	if !found {
		return text, defaultDate
	}

	location = strings.TrimSpace(location)
	date = strings.TrimSpace(strings.ReplaceAll(date, refreshedPrefix, ""))
	if date == "" {
		date = defaultDate
	}
	return location, date
}

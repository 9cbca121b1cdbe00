package calendar

import (
	"github.com/emersion/go-ical"
)

// Outlook and Exchange publish Windows zone names as TZID
var windowsToIANA = map[string]string{
	"Central America Standard Time":  "America/Guatemala",
	"Central Standard Time (Mexico)": "America/Mexico_City",
	"SA Pacific Standard Time":       "America/Bogota",
	"SA Western Standard Time":       "America/La_Paz",
	"Pacific Standard Time":          "America/Los_Angeles",
	"Mountain Standard Time":         "America/Denver",
	"Central Standard Time":          "America/Chicago",
	"Eastern Standard Time":          "America/New_York",
	"Atlantic Standard Time":         "America/Halifax",
	"Alaskan Standard Time":          "America/Anchorage",
	"Hawaiian Standard Time":         "Pacific/Honolulu",
	"GMT Standard Time":              "Europe/London",
	"Romance Standard Time":          "Europe/Paris",
	"Central Europe Standard Time":   "Europe/Budapest",
	"W. Europe Standard Time":        "Europe/Berlin",
	"China Standard Time":            "Asia/Shanghai",
	"Tokyo Standard Time":            "Asia/Tokyo",
	"India Standard Time":            "Asia/Kolkata",
	"AUS Eastern Standard Time":      "Australia/Sydney",
	"UTC":                            "UTC",
}

var timezoneProps = []string{
	ical.PropDateTimeStart,
	ical.PropDateTimeEnd,
	ical.PropRecurrenceID,
	ical.PropExceptionDates,
	ical.PropRecurrenceDates,
}

// normalizeTimezones replaces Windows TZIDs with IANA names in place
func normalizeTimezones(comp *ical.Component) {
	for _, name := range timezoneProps {
		for _, prop := range comp.Props.Values(name) {
			tzid := prop.Params.Get(ical.ParamTimezoneID)
			if ianaName, ok := windowsToIANA[tzid]; ok {
				prop.Params.Set(ical.ParamTimezoneID, ianaName)
			}
		}
	}
}

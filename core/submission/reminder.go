package submission

import (
	"fmt"
	"time"

	"github.com/LeoRoessmann/KT-course/core"
)

type Band string

const (
	BandOK      Band = "ok"
	BandWarning Band = "warning"
	BandDue     Band = "due"
	BandOverdue Band = "overdue"
)

// warnDays is the last day count that still renders as a warning.
const warnDays = 3

// Reminder is the deadline hint shown next to a lab.
type Reminder struct {
	Band  Band   `json:"band"`
	Days  int    `json:"days"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

// Remind classifies deadline relative to today in whole calendar days.
func Remind(today, deadline time.Time) Reminder {
	days := int(core.DateOf(deadline).Sub(core.DateOf(today)).Hours() / 24)

	switch {
	case days > warnDays:
		return Reminder{Band: BandOK, Days: days, Text: fmt.Sprintf("Abgabe in %d Tagen", days), Color: "text-green"}
	case days > 0:
		return Reminder{Band: BandWarning, Days: days, Text: fmt.Sprintf("Abgabe in %d Tagen", days), Color: "text-amber-8"}
	case days == 0:
		return Reminder{Band: BandDue, Days: 0, Text: "Abgabe heute", Color: "text-amber-8"}
	default:
		return Reminder{Band: BandOverdue, Days: days, Text: fmt.Sprintf("Abgabe seit %d Tagen", -days), Color: "text-red"}
	}
}

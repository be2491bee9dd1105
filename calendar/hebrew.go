package calendar

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// HEBREW DATE - Display labels for a workday
// =============================================================================
// The arithmetic Hebrew calendar. Months are numbered from Nisan (1) with
// Tishri (7) starting the year; 13 is Adar II in leap years. Fixed days are
// counted from 0001-01-01 (fixed day 1).

const (
	hebrewEpoch   = -1373429 // fixed day of 1 Tishri AM 1, minus one
	unixFixedDay  = 719163   // fixed day of 1970-01-01
	monthTishri   = 7
	monthAdar     = 12
	monthAdarBeit = 13
)

// HebrewDay is a date in the Hebrew calendar.
type HebrewDay struct {
	Year  int
	Month int
	Day   int
}

var hebrewWeekdays = [...]string{"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"}

// HebrewWeekday returns the Hebrew weekday name of date.
func HebrewWeekday(date time.Time) string {
	return hebrewWeekdays[date.Weekday()]
}

// HebrewDate returns the formatted Hebrew date of date, e.g. "כ׳ טבת תשפ״ד".
func HebrewDate(date time.Time) string {
	return ToHebrew(date).String()
}

// ToHebrew converts a Gregorian date to the Hebrew calendar.
func ToHebrew(date time.Time) HebrewDay {
	fixed := int(Midnight(date)/MinutesPerDay) + unixFixedDay

	year := (fixed - hebrewEpoch) / 366
	for fixed >= fixedFromHebrew(year+1, monthTishri, 1) {
		year++
	}

	month := 1
	if fixed < fixedFromHebrew(year, 1, 1) {
		month = monthTishri
	}
	for fixed > fixedFromHebrew(year, month, lastDayOfHebrewMonth(year, month)) {
		month++
	}
	day := fixed - fixedFromHebrew(year, month, 1) + 1
	return HebrewDay{Year: year, Month: month, Day: day}
}

func (h HebrewDay) String() string {
	return fmt.Sprintf("%s %s %s", gematria(h.Day), h.MonthName(), gematria(h.Year%1000))
}

// MonthName returns the Hebrew month name.
func (h HebrewDay) MonthName() string {
	switch h.Month {
	case 1:
		return "ניסן"
	case 2:
		return "אייר"
	case 3:
		return "סיוון"
	case 4:
		return "תמוז"
	case 5:
		return "אב"
	case 6:
		return "אלול"
	case 7:
		return "תשרי"
	case 8:
		return "חשוון"
	case 9:
		return "כסלו"
	case 10:
		return "טבת"
	case 11:
		return "שבט"
	case monthAdar:
		if hebrewLeapYear(h.Year) {
			return "אדר א׳"
		}
		return "אדר"
	case monthAdarBeit:
		return "אדר ב׳"
	}
	return ""
}

func hebrewLeapYear(year int) bool {
	return (7*year+1)%19 < 7
}

func lastMonthOfHebrewYear(year int) int {
	if hebrewLeapYear(year) {
		return monthAdarBeit
	}
	return monthAdar
}

// hebrewElapsedDays is the number of days from the epoch to 1 Tishri of year,
// with the postponement rules applied.
func hebrewElapsedDays(year int) int {
	monthsElapsed := 235*((year-1)/19) + 12*((year-1)%19) + (7*((year-1)%19)+1)/19
	partsElapsed := 204 + 793*(monthsElapsed%1080)
	hoursElapsed := 5 + 12*monthsElapsed + 793*(monthsElapsed/1080) + partsElapsed/1080
	day := 1 + 29*monthsElapsed + hoursElapsed/24
	parts := 1080*(hoursElapsed%24) + partsElapsed%1080

	if parts >= 19440 ||
		(day%7 == 2 && parts >= 9924 && !hebrewLeapYear(year)) ||
		(day%7 == 1 && parts >= 16789 && hebrewLeapYear(year-1)) {
		day++
	}
	if d := day % 7; d == 0 || d == 3 || d == 5 {
		day++
	}
	return day
}

func daysInHebrewYear(year int) int {
	return hebrewElapsedDays(year+1) - hebrewElapsedDays(year)
}

func lastDayOfHebrewMonth(year, month int) int {
	switch {
	case month == 2 || month == 4 || month == 6 || month == 10 || month == monthAdarBeit:
		return 29
	case month == monthAdar && !hebrewLeapYear(year):
		return 29
	case month == 8 && daysInHebrewYear(year)%10 != 5:
		return 29
	case month == 9 && daysInHebrewYear(year)%10 == 3:
		return 29
	}
	return 30
}

func fixedFromHebrew(year, month, day int) int {
	days := day
	if month < monthTishri {
		for m := monthTishri; m <= lastMonthOfHebrewYear(year); m++ {
			days += lastDayOfHebrewMonth(year, m)
		}
		for m := 1; m < month; m++ {
			days += lastDayOfHebrewMonth(year, m)
		}
	} else {
		for m := monthTishri; m < month; m++ {
			days += lastDayOfHebrewMonth(year, m)
		}
	}
	return days + hebrewElapsedDays(year) + hebrewEpoch
}

// =============================================================================
// GEMATRIA
// =============================================================================

var (
	gematriaHundreds = []string{"", "ק", "ר", "ש", "ת"}
	gematriaTens     = []string{"", "י", "כ", "ל", "מ", "נ", "ס", "ע", "פ", "צ"}
	gematriaUnits    = []string{"", "א", "ב", "ג", "ד", "ה", "ו", "ז", "ח", "ט"}
)

// gematria renders 1..999 in Hebrew letters with geresh/gershayim.
func gematria(n int) string {
	var letters []string
	for n >= 400 {
		letters = append(letters, "ת")
		n -= 400
	}
	if n >= 100 {
		letters = append(letters, gematriaHundreds[n/100])
		n %= 100
	}
	switch n {
	case 15:
		letters = append(letters, "ט", "ו")
	case 16:
		letters = append(letters, "ט", "ז")
	default:
		if n >= 10 {
			letters = append(letters, gematriaTens[n/10])
		}
		if n%10 > 0 {
			letters = append(letters, gematriaUnits[n%10])
		}
	}

	switch len(letters) {
	case 0:
		return ""
	case 1:
		return letters[0] + "׳"
	}
	last := len(letters) - 1
	return strings.Join(letters[:last], "") + "״" + letters[last]
}

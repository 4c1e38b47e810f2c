package generator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateContext is the time frame a prompt asks for.
type DateContext struct {
	Year        int    `json:"year,omitempty"`
	Month       int    `json:"month,omitempty"`
	Day         int    `json:"day,omitempty"`
	Era         string `json:"era,omitempty"`
	Instruction string `json:"instruction"`
}

var (
	monthNames = []string{"january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december"}
	monthAlt = strings.Join(monthNames, "|")

	dayMonthRe = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)?\s+(` + monthAlt + `)(?:\s*,?\s*(\d{4}))?`)
	monthDayRe = regexp.MustCompile(`\b(` + monthAlt + `)\s+(\d{1,2})(?:st|nd|rd|th)?(?:\s*,?\s*(\d{4}))?`)
	numericRe  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	eraRe      = regexp.MustCompile(`\b(early|late|mid)[-\s]?(\d{4})s?\b`)
	decadeRe   = regexp.MustCompile(`\b(?:the\s+)?(?:(19|20)(\d0)|'?(\d0))s\b`)
	yearRe     = regexp.MustCompile(`\b(\d{4})\b`)
	relativeRe = regexp.MustCompile(`\b(\d+)\s*(year|month|week|day)s?\s+ago\b`)
)

// ExtractDateContext reads the temporal setting out of a free-text prompt.
// Prompts without one are anchored on now.
func ExtractDateContext(prompt string, now time.Time) DateContext {
	p := strings.ToLower(prompt)

	if m := numericRe.FindStringSubmatch(p); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		return DateContext{Year: year, Month: month, Day: day,
			Instruction: fmt.Sprintf("The reference date is %s. Keep every date close to it.", m[0])}
	}
	if dc, ok := namedDate(p, now); ok {
		return dc
	}
	if m := eraRe.FindStringSubmatch(p); m != nil {
		year, _ := strconv.Atoi(m[2])
		month := map[string]int{"early": 2, "mid": 6, "late": 11}[m[1]]
		return DateContext{Year: year, Month: month,
			Instruction: fmt.Sprintf("The period is %s %d. Dates must reflect that time.", m[1], year)}
	}
	if m := decadeRe.FindStringSubmatch(p); m != nil {
		var decade int
		if m[1] != "" {
			decade, _ = strconv.Atoi(m[1] + m[2])
		} else {
			d, _ := strconv.Atoi(m[3])
			decade = 1900 + d
			if d < 30 {
				decade = 2000 + d
			}
		}
		return DateContext{Year: decade, Era: fmt.Sprintf("%ds", decade),
			Instruction: fmt.Sprintf("The setting is the %ds. Match technology, language and dates to that era.", decade)}
	}
	if m := yearRe.FindStringSubmatch(p); m != nil {
		year, _ := strconv.Atoi(m[1])
		if year >= 1990 && year <= now.Year()+10 {
			return DateContext{Year: year,
				Instruction: fmt.Sprintf("Every date must be in %d.", year)}
		}
	}
	if m := relativeRe.FindStringSubmatch(p); m != nil {
		n, _ := strconv.Atoi(m[1])
		var ref time.Time
		switch m[2] {
		case "year":
			ref = now.AddDate(-n, 0, 0)
		case "month":
			ref = now.AddDate(0, -n, 0)
		case "week":
			ref = now.AddDate(0, 0, -7*n)
		default:
			ref = now.AddDate(0, 0, -n)
		}
		unit := m[2]
		if n > 1 {
			unit += "s"
		}
		return DateContext{Year: ref.Year(), Month: int(ref.Month()), Day: ref.Day(),
			Instruction: fmt.Sprintf("The reference date is %d %s ago, around %s.", n, unit, ref.Format("January 2, 2006"))}
	}
	return DateContext{Year: now.Year(), Month: int(now.Month()), Day: now.Day(),
		Instruction: fmt.Sprintf("Use today's date (%s) as the reference.", now.Format("January 2, 2006"))}
}

func namedDate(p string, now time.Time) (DateContext, bool) {
	var dayStr, monthStr, yearStr, match string
	if m := dayMonthRe.FindStringSubmatch(p); m != nil {
		match, dayStr, monthStr, yearStr = m[0], m[1], m[2], m[3]
	} else if m := monthDayRe.FindStringSubmatch(p); m != nil {
		match, monthStr, dayStr, yearStr = m[0], m[1], m[2], m[3]
	} else {
		return DateContext{}, false
	}
	day, _ := strconv.Atoi(dayStr)
	year := now.Year()
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	}
	month := 0
	for i, name := range monthNames {
		if name == monthStr {
			month = i + 1
		}
	}
	return DateContext{Year: year, Month: month, Day: day,
		Instruction: fmt.Sprintf("The reference date is %s. Keep every date close to it.", strings.TrimSpace(match))}, true
}

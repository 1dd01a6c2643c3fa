package todo

import (
	"regexp"
	"strings"
	"time"

	"github.com/amonks/tracker/internal/dates"
)

var (
	priorityTagPattern = regexp.MustCompile(`\[P([0-4])\]`)
	dueLiteralPattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// ParseDirective extracts a title, priority, and due date from task text.
//
// The first [P0]..[P4] tag sets the priority (default P1) and is removed.
// If more than one word remains, a trailing "today", "tomorrow", or
// YYYY-MM-DD sets the due date and is removed; otherwise the task is due
// tomorrow. Dates are calendar days in now's location. The title is never
// validated here.
func ParseDirective(words []string, now time.Time) Directive {
	text := strings.Join(words, " ")
	directive := Directive{
		Priority: PriorityDefault,
		DueDate:  dates.AddDays(now, 1),
	}

	if loc := priorityTagPattern.FindStringSubmatchIndex(text); loc != nil {
		directive.Priority = Priority("P" + text[loc[2]:loc[3]])
		directive.PriorityExplicit = true
		text = text[:loc[0]] + text[loc[1]:]
	}
	text = strings.TrimSpace(text)

	tokens := strings.Split(text, " ")
	if len(tokens) > 1 {
		if due, ok := dueFromKeyword(tokens[len(tokens)-1], now); ok {
			directive.DueDate = due
			directive.DueExplicit = true
			tokens = tokens[:len(tokens)-1]
		}
	}

	directive.Title = strings.Join(tokens, " ")
	return directive
}

func dueFromKeyword(word string, now time.Time) (string, bool) {
	switch {
	case word == "today":
		return dates.Day(now), true
	case word == "tomorrow":
		return dates.AddDays(now, 1), true
	case dueLiteralPattern.MatchString(word):
		return word, true
	default:
		return "", false
	}
}

package optimizer

import (
	"regexp"
	"strings"
)

// unit is one retrievable chunk of the source: a declaration with its body,
// or a prose paragraph.
type unit struct {
	header string // first line, used for headline scoring
	body   string // full text including the header line
	isDecl bool   // starts with a declaration keyword
}

// declStart matches lines that open a function/class/type declaration in the
// languages this optimizer commonly sees.
var declStart = regexp.MustCompile(`^(func|def|class|type|struct|impl|fn|public|private|protected)\b`)

// splitUnits chunks source into retrievable units. A new unit starts at a
// declaration line at zero indentation; prose falls back to blank-line
// separated paragraphs. Blank lines inside a declaration body (followed by
// indented or closing lines) do not split the unit.
func splitUnits(source string) []unit {
	lines := strings.Split(source, "\n")
	var units []unit
	var current []string
	currentIsDecl := false

	flush := func() {
		if len(current) == 0 {
			return
		}
		body := strings.TrimRight(strings.Join(current, "\n"), " \t\n")
		if strings.TrimSpace(body) != "" {
			units = append(units, unit{
				header: strings.TrimSpace(current[0]),
				body:   body,
				isDecl: currentIsDecl,
			})
		}
		current = nil
		currentIsDecl = false
	}

	// nextMeaningful returns the first non-blank line after index i.
	nextMeaningful := func(i int) string {
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) != "" {
				return lines[j]
			}
		}
		return ""
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		atMargin := line == strings.TrimLeft(line, " \t")
		startsDecl := atMargin && declStart.MatchString(trimmed)

		switch {
		case len(current) == 0:
			if trimmed == "" {
				continue
			}
			currentIsDecl = startsDecl
			current = append(current, line)

		case startsDecl:
			flush()
			currentIsDecl = true
			current = append(current, line)

		case trimmed == "":
			if !currentIsDecl {
				flush()
				continue
			}
			// Inside a declaration: only a dedented follow-up line that is
			// not a closer ends the unit.
			next := nextMeaningful(i)
			nextTrimmed := strings.TrimSpace(next)
			dedented := next != "" && next == strings.TrimLeft(next, " \t")
			closer := strings.HasPrefix(nextTrimmed, "}") || strings.HasPrefix(nextTrimmed, ")") ||
				strings.HasPrefix(nextTrimmed, "]")
			if dedented && !closer && !declStart.MatchString(nextTrimmed) {
				flush()
			} else {
				current = append(current, line)
			}

		default:
			current = append(current, line)
		}
	}
	flush()
	return units
}

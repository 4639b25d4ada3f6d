package deadline

import (
	"regexp"
	"strings"
	"time"

	"campusdigest/internal/model"
)

var urlInTextRe = regexp.MustCompile(`https?://[^\s<>"]+`)

// icsProperty is one logical content line: NAME;PARAM=VALUE:value.
type icsProperty struct {
	name   string
	params map[string]string
	value  string
}

// ParseICS parses an ICS calendar document into due-dated candidate tasks.
// Events without a resolvable DTSTART/DTEND are dropped; a malformed event
// never aborts the surrounding parse.
func ParseICS(data string, loc *time.Location) []model.Task {
	lines := unfoldLines(data)

	var tasks []model.Task
	var block []icsProperty
	inEvent := false

	for _, line := range lines {
		prop, ok := parseProperty(line)
		if !ok {
			continue
		}
		switch {
		case prop.name == "BEGIN" && strings.EqualFold(prop.value, "VEVENT"):
			inEvent = true
			block = block[:0]
		case prop.name == "END" && strings.EqualFold(prop.value, "VEVENT"):
			if inEvent {
				if task, ok := eventToTask(block, loc); ok {
					tasks = append(tasks, task)
				}
			}
			inEvent = false
		case inEvent:
			block = append(block, prop)
		}
	}
	return tasks
}

// unfoldLines undoes RFC 5545 line folding: a line starting with a space or
// tab continues the previous logical line.
func unfoldLines(data string) []string {
	raw := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	var out []string
	for _, line := range raw {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		out = append(out, line)
	}
	return out
}

func parseProperty(line string) (icsProperty, bool) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return icsProperty{}, false
	}
	head := line[:idx]
	value := line[idx+1:]

	parts := strings.Split(head, ";")
	prop := icsProperty{
		name:   strings.ToUpper(strings.TrimSpace(parts[0])),
		params: map[string]string{},
		value:  value,
	}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			prop.params[strings.ToUpper(kv[0])] = kv[1]
		}
	}
	return prop, true
}

func eventToTask(block []icsProperty, loc *time.Location) (model.Task, bool) {
	var summary, description, urlField, categories string
	var due *time.Time

	for _, prop := range block {
		switch prop.name {
		case "SUMMARY":
			summary = unescapeText(prop.value)
		case "DESCRIPTION":
			description = unescapeText(prop.value)
		case "URL":
			urlField = strings.TrimSpace(prop.value)
		case "CATEGORIES":
			categories = unescapeText(prop.value)
		case "DTSTART", "DTEND":
			// DTSTART wins; DTEND only fills in when DTSTART was absent
			// or unparseable.
			if due == nil {
				due = resolveICSTime(prop, loc)
			} else if prop.name == "DTSTART" {
				if t := resolveICSTime(prop, loc); t != nil {
					due = t
				}
			}
		}
	}

	if due == nil {
		return model.Task{}, false
	}

	url := urlField
	if url == "" {
		url = urlInTextRe.FindString(description)
	}
	title := strings.TrimSpace(summary)
	if title == "" {
		title = "Untitled event"
	}

	return model.Task{
		Source:   "canvas_feed",
		Title:    title,
		DueAt:    due,
		Course:   strings.TrimSpace(categories),
		Details:  strings.TrimSpace(description),
		URL:      url,
		Priority: 2,
	}, true
}

// resolveICSTime interprets a DTSTART/DTEND value. All-day events
// (VALUE=DATE) resolve to 23:59 local; UTC stamps keep their instant.
func resolveICSTime(prop icsProperty, loc *time.Location) *time.Time {
	value := strings.TrimSpace(prop.value)

	if prop.params["VALUE"] == "DATE" || len(value) == 8 {
		d, err := time.ParseInLocation("20060102", value, loc)
		if err != nil {
			return nil
		}
		t := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 0, 0, loc)
		return &t
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return nil
		}
		return &t
	}

	t, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return nil
	}
	return &t
}

// unescapeText decodes ICS text escaping: \n, \, \; and \\.
func unescapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		case ',', ';', '\\':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

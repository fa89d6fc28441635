package sections

import (
	"regexp"
	"strings"
)

// itemLinePattern recognises the `- **key:** value` convention
// case-insensitively. Anything else in a rehydrated string is dropped.
var itemLinePattern = regexp.MustCompile(`(?i)^-\s*\*\*(.+?):\*\*\s*(.*)$`)

const headingPrefix = "#### "

// Serialize renders the section list as the markdown fragment the assembled
// report embeds. Sections without a single item carrying both a non-blank
// key and a non-blank value contribute nothing; qualifying sections are
// joined with one blank line, preserving user order.
func Serialize(sections []Section) string {
	var blocks []string
	for _, section := range sections {
		block := serializeSection(section)
		if block == "" {
			continue
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n")
}

func serializeSection(section Section) string {
	var lines []string
	for _, item := range section.Items {
		key := strings.TrimSpace(item.Key)
		value := strings.TrimSpace(item.Value)
		if key == "" || value == "" {
			continue
		}
		lines = append(lines, "- **"+key+":** "+value)
	}
	if len(lines) == 0 {
		return ""
	}

	var b strings.Builder
	if title := strings.TrimSpace(section.Title); title != "" {
		b.WriteString(headingPrefix + title + "\n\n")
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// Parse recovers sections from a serialised fragment. Level-4 headings start
// a new titled section; item lines attach to the current section; everything
// else is ignored.
func Parse(markdown string) []Section {
	trimmed := strings.TrimSpace(markdown)
	if trimmed == "" {
		return nil
	}

	var out []Section
	current := Section{}
	flush := func() {
		if current.Title == "" && len(current.Items) == 0 {
			return
		}
		out = append(out, current)
		current = Section{}
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, headingPrefix) {
			flush()
			current.Title = strings.TrimSpace(strings.TrimPrefix(line, headingPrefix))
			continue
		}
		match := itemLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		current.Items = append(current.Items, Item{
			Key:   strings.TrimSpace(match[1]),
			Value: strings.TrimSpace(match[2]),
		})
	}
	flush()
	return out
}

// Pairs flattens the sections to their key/value entries in order. Useful
// for round-trip comparisons where titles are not guaranteed to survive.
func Pairs(sections []Section) []Item {
	var out []Item
	for _, section := range sections {
		out = append(out, section.Items...)
	}
	return out
}

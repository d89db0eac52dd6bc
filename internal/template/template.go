// Package template substitutes fields in publish path templates.
//
// Templates are plain paths with {field} placeholders, for example
// "{root}/publish/{name}/v{version}/{name}.{SEQ}.tif". The special {SEQ}
// field stands for the frame number and resolves to a printf-style token
// instead of a caller value.
package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// SequenceField is the reserved field name for the frame number.
const SequenceField = "SEQ"

// defaultSequencePadding is the zero-pad width {SEQ} resolves to when the
// caller does not override it.
const defaultSequencePadding = 4

var fieldPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a parsed path template.
type Template struct {
	raw    string
	fields []string
}

// Parse validates raw and returns a Template. A template with no fields is
// valid and applies to itself.
func Parse(raw string) (*Template, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("template is empty")
	}
	if strings.Count(trimmed, "{") != strings.Count(trimmed, "}") {
		return nil, fmt.Errorf("template %q has unbalanced braces", trimmed)
	}

	seen := make(map[string]struct{})
	var fields []string
	for _, match := range fieldPattern.FindAllStringSubmatch(trimmed, -1) {
		name := match[1]
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fields = append(fields, name)
	}
	return &Template{raw: trimmed, fields: fields}, nil
}

// Raw returns the template text.
func (t *Template) Raw() string { return t.raw }

// Fields lists the distinct field names in order of first appearance, the
// {SEQ} field included.
func (t *Template) Fields() []string {
	return append([]string(nil), t.fields...)
}

// MissingKeys returns the sorted field names not present in values. {SEQ}
// never counts as missing.
func (t *Template) MissingKeys(values map[string]string) []string {
	var missing []string
	for _, field := range t.fields {
		if field == SequenceField {
			continue
		}
		if _, ok := values[field]; !ok {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}

// Apply substitutes values into the template. Every non-{SEQ} field must be
// present in values; {SEQ} becomes a %0Nd frame token using
// defaultSequencePadding unless values overrides it with an explicit value.
func (t *Template) Apply(values map[string]string) (string, error) {
	if missing := t.MissingKeys(values); len(missing) > 0 {
		return "", fmt.Errorf("template %q missing keys: %s", t.raw, strings.Join(missing, ", "))
	}
	out := fieldPattern.ReplaceAllStringFunc(t.raw, func(match string) string {
		name := match[1 : len(match)-1]
		if value, ok := values[name]; ok {
			return value
		}
		if name == SequenceField {
			return fmt.Sprintf("%%0%dd", defaultSequencePadding)
		}
		return match
	})
	return out, nil
}

// Extract matches path against the template and returns the field values.
// {SEQ} matches a frame number and is returned like any other field.
func (t *Template) Extract(path string) (map[string]string, error) {
	pattern := regexp.QuoteMeta(t.raw)
	for _, field := range t.fields {
		quoted := regexp.QuoteMeta("{" + field + "}")
		inner := `[^/\\]+?`
		if field == SequenceField {
			inner = `\d+`
		}
		// Only the first occurrence captures; repeats match the same shape.
		pattern = strings.Replace(pattern, quoted, fmt.Sprintf(`(?P<%s>%s)`, field, inner), 1)
		pattern = strings.ReplaceAll(pattern, quoted, inner)
	}
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", t.raw, err)
	}

	match := re.FindStringSubmatch(path)
	if match == nil {
		return nil, fmt.Errorf("path %q does not match template %q", path, t.raw)
	}
	values := make(map[string]string, len(t.fields))
	for i, name := range re.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		values[name] = match[i]
	}
	return values, nil
}

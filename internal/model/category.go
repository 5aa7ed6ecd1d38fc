package model

import "strings"

// Category is one of the provider's event category tags.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DefaultCategory is used when a request names no category or an unknown one.
const DefaultCategory = "festivals"

// MaxWeeks bounds any requested duration. Longer windows cannot add events
// once the synthesized list is capped.
const MaxWeeks = 20

// Categories is the fixed set offered to clients, in display order.
var Categories = []Category{
	{Value: "concerts", Label: "Concerts"},
	{Value: "festivals", Label: "Festivals"},
	{Value: "performing-arts", Label: "Performing Arts"},
	{Value: "sports", Label: "Sports"},
	{Value: "conferences", Label: "Conferences"},
	{Value: "expos", Label: "Expos"},
	{Value: "community", Label: "Community"},
	{Value: "public-holidays", Label: "Public Holidays"},
	{Value: "school-holidays", Label: "School Holidays"},
	{Value: "observances", Label: "Observances"},
	{Value: "politics", Label: "Politics"},
	{Value: "academic", Label: "Academic"},
}

// CategoryLabel returns the display label for a category value, or the value
// itself when unknown.
func CategoryLabel(value string) string {
	for _, c := range Categories {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

// SplitCategories turns a comma-separated category set into a trimmed,
// de-duplicated list. Empty entries are skipped.
func SplitCategories(s string) []string {
	out := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

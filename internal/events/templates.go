package events

import "eventcal/internal/model"

// titleTemplates holds the per-category title patterns used by Synthesize.
// Each pattern takes the city name once.
var titleTemplates = map[string][]string{
	"festivals": {
		"%s Summer Festival",
		"%s Food & Wine Festival",
		"%s Street Festival",
		"%s Light Festival",
		"%s Cultural Festival",
		"%s Film Festival",
	},
	"concerts": {
		"Live Jazz Night in %s",
		"%s Symphony Orchestra",
		"Indie Rock Showcase %s",
		"%s Open Air Concert",
		"Electronic Music Night %s",
		"Acoustic Sessions %s",
	},
	"performing-arts": {
		"%s Theatre Premiere",
		"Contemporary Dance at %s Opera House",
		"Stand-up Comedy Night %s",
		"%s Ballet Evening",
		"Improv Theatre %s",
	},
	"sports": {
		"%s City Marathon",
		"%s Derby Match",
		"Basketball Championship %s",
		"%s Cycling Tour",
		"Tennis Open %s",
	},
	"conferences": {
		"%s Tech Summit",
		"%s Startup Conference",
		"Sustainability Forum %s",
		"%s Design Week Talks",
		"AI & Data Conference %s",
	},
	"expos": {
		"%s Trade Fair",
		"%s Art Expo",
		"Home & Garden Show %s",
		"%s Book Fair",
		"Innovation Expo %s",
	},
	"community": {
		"%s Farmers Market",
		"Neighbourhood Clean-up %s",
		"%s Flea Market",
		"Community Picnic in %s",
		"%s Charity Run",
	},
	"public-holidays": {
		"%s Holiday Parade",
		"%s Public Holiday Celebration",
		"Holiday Fireworks over %s",
	},
	"school-holidays": {
		"%s Kids Holiday Camp",
		"Family Fun Day %s",
		"%s Holiday Workshop for Kids",
	},
	"observances": {
		"%s Remembrance Ceremony",
		"Heritage Day %s",
		"%s Awareness Walk",
	},
	"politics": {
		"%s Town Hall Meeting",
		"City Council Open Session %s",
		"%s Public Policy Debate",
	},
	"academic": {
		"%s University Open Day",
		"Public Lecture Series %s",
		"%s Science Night",
	},
}

// templatesFor returns the title patterns for category, defaulting to the
// festivals set when the category is unknown.
func templatesFor(category string) []string {
	if t, ok := titleTemplates[category]; ok && len(t) > 0 {
		return t
	}
	return titleTemplates[model.DefaultCategory]
}

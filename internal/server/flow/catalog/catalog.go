// Package catalog holds the fixed option lists the booking screens offer.
//
// Lists are returned as fresh copies so callers cannot alter the catalog.
// The first entry of every list is the fallback for unknown or missing ids.
package catalog

// Option is one selectable item as rendered by the flow screens.
type Option struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

var destinations = [...]Option{
	{ID: "bali", Title: "Bali, Indonesia", Description: "Tropical beaches, rice terraces and temples"},
	{ID: "santorini", Title: "Santorini, Greece", Description: "Whitewashed cliffs over the Aegean"},
	{ID: "kyoto", Title: "Kyoto, Japan", Description: "Shrines, gardens and tea houses"},
	{ID: "maldives", Title: "Maldives", Description: "Overwater villas and coral reefs"},
}

var packages = [...]Option{
	{ID: "budget", Title: "Budget", Description: "Essentials at the best price"},
	{ID: "standard", Title: "Standard", Description: "Comfortable stay with daily breakfast"},
	{ID: "luxury", Title: "Luxury", Description: "Premium stay, transfers and all meals"},
	{ID: "family", Title: "Family", Description: "Connecting rooms and kids activities"},
}

var accommodations = [...]Option{
	{ID: "beachfront", Title: "Beachfront Villa", Description: "Steps from the sand"},
	{ID: "resort", Title: "Resort Hotel", Description: "Pools, spa and restaurants on site"},
	{ID: "boutique", Title: "Boutique Hotel", Description: "Small, stylish and central"},
	{ID: "homestay", Title: "Local Homestay", Description: "Stay with a host family"},
}

var activities = [...]Option{
	{ID: "scuba_diving", Title: "Scuba Diving Course", Description: "Beginner friendly, certified instructors"},
	{ID: "cultural_tour", Title: "Cultural Tour", Description: "Guided visit of local landmarks"},
	{ID: "cooking_class", Title: "Cooking Class", Description: "Learn the regional cuisine"},
	{ID: "spa_day", Title: "Spa Day", Description: "Massage and wellness treatments"},
	{ID: "hiking", Title: "Hiking Adventure", Description: "Half-day trek with a guide"},
}

func Destinations() []Option   { return append([]Option(nil), destinations[:]...) }
func Packages() []Option       { return append([]Option(nil), packages[:]...) }
func Accommodations() []Option { return append([]Option(nil), accommodations[:]...) }
func Activities() []Option     { return append([]Option(nil), activities[:]...) }

// Lookup finds id in options.
func Lookup(options []Option, id string) (Option, bool) {
	for _, o := range options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// Resolve returns the option for id, or the first option when id is
// missing or unknown. fellBack reports the latter.
func Resolve(options []Option, id string) (opt Option, fellBack bool) {
	if o, ok := Lookup(options, id); ok {
		return o, false
	}
	return options[0], true
}

// ResolveMany resolves each id, dropping unknown ones. When nothing valid
// remains the first option is used and fellBack is true.
func ResolveMany(options []Option, ids []string) (out []Option, fellBack bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		o, ok := Lookup(options, id)
		if !ok {
			fellBack = true
			continue
		}
		if _, dup := seen[o.ID]; dup {
			continue
		}
		seen[o.ID] = struct{}{}
		out = append(out, o)
	}
	if len(out) == 0 {
		return []Option{options[0]}, true
	}
	return out, fellBack
}

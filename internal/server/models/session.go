// Package models defines server-side data models persisted in the database.
package models

import "time"

// TripContext accumulates the traveller's answers across screens.
// It is stored as JSON; unset fields are omitted.
type TripContext struct {
	Destination       string   `json:"destination,omitempty"`
	DestinationName   string   `json:"destination_name,omitempty"`
	DepartureDate     string   `json:"departure_date,omitempty"`
	ReturnDate        string   `json:"return_date,omitempty"`
	AdultCount        *int     `json:"adult_count,omitempty"`
	ChildCount        *int     `json:"child_count,omitempty"`
	PackageType       string   `json:"package_type,omitempty"`
	PackageName       string   `json:"package_name,omitempty"`
	Accommodation     string   `json:"accommodation,omitempty"`
	AccommodationName string   `json:"accommodation_name,omitempty"`
	Activities        []string `json:"activities,omitempty"`
	ActivityNames     []string `json:"activity_names,omitempty"`
}

// Merge returns c overlaid with every field set in p. Fields p leaves unset
// keep their value in c, so applying the same patch twice is a no-op.
func (c TripContext) Merge(p TripContext) TripContext {
	out := c
	setString(&out.Destination, p.Destination)
	setString(&out.DestinationName, p.DestinationName)
	setString(&out.DepartureDate, p.DepartureDate)
	setString(&out.ReturnDate, p.ReturnDate)
	if p.AdultCount != nil {
		v := *p.AdultCount
		out.AdultCount = &v
	}
	if p.ChildCount != nil {
		v := *p.ChildCount
		out.ChildCount = &v
	}
	setString(&out.PackageType, p.PackageType)
	setString(&out.PackageName, p.PackageName)
	setString(&out.Accommodation, p.Accommodation)
	setString(&out.AccommodationName, p.AccommodationName)
	if p.Activities != nil {
		out.Activities = append([]string(nil), p.Activities...)
	}
	if p.ActivityNames != nil {
		out.ActivityNames = append([]string(nil), p.ActivityNames...)
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Travelers returns adult and child counts, treating unset values as 0.
func (c TripContext) Travelers() (adults, children int) {
	if c.AdultCount != nil {
		adults = *c.AdultCount
	}
	if c.ChildCount != nil {
		children = *c.ChildCount
	}
	return adults, children
}

// FlowSession is the durable conversation state keyed by FlowToken.
//
// Version is an optimistic concurrency counter: updates only apply when the
// stored version still matches and bump it by one.
type FlowSession struct {
	ID              string
	FlowToken       string
	Context         TripContext
	LastScreen      string
	LastAction      string
	LastInteraction time.Time
	ChannelIdentity string
	IsArchived      bool
	BookingID       string
	Version         int64
	CreatedAt       time.Time
}

// SessionPatch is one screen's worth of changes to a session.
type SessionPatch struct {
	Context   TripContext
	Screen    string
	Action    string
	Archive   bool
	BookingID string
}

// Apply merges the patch into s and stamps the audit fields with now.
func (s *FlowSession) Apply(p SessionPatch, now time.Time) {
	s.Context = s.Context.Merge(p.Context)
	if p.Screen != "" {
		s.LastScreen = p.Screen
	}
	if p.Action != "" {
		s.LastAction = p.Action
	}
	if p.Archive {
		s.IsArchived = true
	}
	if p.BookingID != "" {
		s.BookingID = p.BookingID
	}
	s.LastInteraction = now
}

package flow

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/server/flow/catalog"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// Traveller count bounds. Out-of-range values fall back to the minimum
// (one adult, no children).
const (
	MinAdults   = 1
	MaxAdults   = 20
	MaxChildren = 20
)

const dateLayout = "2006-01-02"

// Outcome is the result of submitting one screen.
type Outcome struct {
	Next     string
	Patch    models.TripContext
	Terminal bool
	// Fallbacks names the fields whose submitted value was replaced by a
	// default.
	Fallbacks []string
}

// Machine is the fixed screen graph.
type Machine struct {
	prices catalog.PriceTable
}

func NewMachine(prices catalog.PriceTable) *Machine {
	return &Machine{prices: prices}
}

// Prices returns the price table used for summaries.
func (m *Machine) Prices() catalog.PriceTable {
	return m.prices
}

// Advance validates data submitted on screen and returns the transition.
// It never touches storage. Unknown screens, and the terminal screen
// itself, yield common.ErrUnknownScreen.
func (m *Machine) Advance(screen string, prior models.TripContext, data map[string]any) (Outcome, error) {
	switch screen {
	case ScreenDestination:
		opt, fb := catalog.Resolve(catalog.Destinations(), stringField(data, selectionKey(data, FieldDestination)))
		return Outcome{
			Next:      ScreenTravelDates,
			Patch:     models.TripContext{Destination: opt.ID, DestinationName: opt.Title},
			Fallbacks: fallback(fb, FieldDestination),
		}, nil

	case ScreenTravelDates:
		dep, ret, fbs := travelDates(data)
		return Outcome{
			Next:      ScreenTravelers,
			Patch:     models.TripContext{DepartureDate: dep, ReturnDate: ret},
			Fallbacks: fbs,
		}, nil

	case ScreenTravelers:
		var fbs []string
		adults, ok := intField(data, "adult_count")
		if !ok || adults < MinAdults || adults > MaxAdults {
			adults = MinAdults
			fbs = append(fbs, "adult_count")
		}
		children, ok := intField(data, "child_count")
		if !ok || children < 0 || children > MaxChildren {
			if _, present := data["child_count"]; present {
				fbs = append(fbs, "child_count")
			}
			children = 0
		}
		return Outcome{
			Next:      ScreenPackage,
			Patch:     models.TripContext{AdultCount: &adults, ChildCount: &children},
			Fallbacks: fbs,
		}, nil

	case ScreenPackage:
		opt, fb := catalog.Resolve(catalog.Packages(), stringField(data, selectionKey(data, FieldPackage)))
		return Outcome{
			Next:      ScreenAccommodation,
			Patch:     models.TripContext{PackageType: opt.ID, PackageName: opt.Title},
			Fallbacks: fallback(fb, FieldPackage),
		}, nil

	case ScreenAccommodation:
		opt, fb := catalog.Resolve(catalog.Accommodations(), stringField(data, selectionKey(data, FieldAccommodation)))
		return Outcome{
			Next:      ScreenActivities,
			Patch:     models.TripContext{Accommodation: opt.ID, AccommodationName: opt.Title},
			Fallbacks: fallback(fb, FieldAccommodation),
		}, nil

	case ScreenActivities:
		opts, fb := catalog.ResolveMany(catalog.Activities(), stringsField(data, selectionKey(data, FieldActivities)))
		ids := make([]string, 0, len(opts))
		names := make([]string, 0, len(opts))
		for _, o := range opts {
			ids = append(ids, o.ID)
			names = append(names, o.Title)
		}
		return Outcome{
			Next:      ScreenSummary,
			Patch:     models.TripContext{Activities: ids, ActivityNames: names},
			Fallbacks: fallback(fb, FieldActivities),
		}, nil

	case ScreenSummary:
		return Outcome{Next: ScreenConfirmation, Terminal: true}, nil

	default:
		return Outcome{}, fmt.Errorf("%w: %q", common.ErrUnknownScreen, screen)
	}
}

func fallback(fellBack bool, field string) []string {
	if fellBack {
		return []string{field}
	}
	return nil
}

// travelDates keeps submitted dates as given when they parse, and uses
// FlexibleDate for missing or malformed ones. A return before departure
// becomes flexible.
func travelDates(data map[string]any) (dep, ret string, fbs []string) {
	dep, depOK := parseDate(data, "departure_date")
	if !depOK {
		fbs = append(fbs, "departure_date")
	}
	ret, retOK := parseDate(data, "return_date")
	if !retOK {
		fbs = append(fbs, "return_date")
	}

	if dep != FlexibleDate && ret != FlexibleDate && ret < dep {
		ret = FlexibleDate
		fbs = append(fbs, "return_date")
	}
	return dep, ret, fbs
}

// parseDate returns FlexibleDate for a missing value (ok) and for a
// malformed one (not ok).
func parseDate(data map[string]any, key string) (string, bool) {
	raw := stringField(data, key)
	if raw == "" || raw == FlexibleDate {
		return FlexibleDate, true
	}
	if _, err := time.Parse(dateLayout, raw); err != nil {
		return FlexibleDate, false
	}
	return raw, true
}

package flow

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tripflow/internal/server/flow/catalog"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// BuildSummary digests the trip context. Missing choices are shown as the
// catalog fallback so the summary is always complete.
func BuildSummary(c models.TripContext, prices catalog.PriceTable) (models.BookingSummary, int64) {
	price := prices.Estimate(c.PackageType)

	return models.BookingSummary{
		Destination:   nameOr(c.DestinationName, catalog.Destinations()),
		Dates:         dateRange(c.DepartureDate, c.ReturnDate),
		Travelers:     travelersLabel(c),
		Package:       nameOr(c.PackageName, catalog.Packages()),
		Accommodation: nameOr(c.AccommodationName, catalog.Accommodations()),
		Activities:    activitiesLabel(c.ActivityNames),
		TotalPrice:    prices.FormatPrice(price),
	}, price
}

// BookingName is the descriptive name stored on the booking record,
// e.g. "Bali, Indonesia - Luxury (2 travelers)".
func BookingName(c models.TripContext) string {
	adults, children := c.Travelers()
	if adults < MinAdults {
		adults = MinAdults
	}
	return fmt.Sprintf("%s - %s (%d travelers)",
		nameOr(c.DestinationName, catalog.Destinations()),
		nameOr(c.PackageName, catalog.Packages()),
		adults+children)
}

// Remarks lists every answer plus the flow token, one per line.
func Remarks(s models.BookingSummary, flowToken string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination: %s\n", s.Destination)
	fmt.Fprintf(&b, "Dates: %s\n", s.Dates)
	fmt.Fprintf(&b, "Travelers: %s\n", s.Travelers)
	fmt.Fprintf(&b, "Package: %s\n", s.Package)
	fmt.Fprintf(&b, "Accommodation: %s\n", s.Accommodation)
	fmt.Fprintf(&b, "Activities: %s\n", s.Activities)
	fmt.Fprintf(&b, "Estimated price: %s\n", s.TotalPrice)
	fmt.Fprintf(&b, "Flow token: %s", flowToken)
	return b.String()
}

func nameOr(name string, options []catalog.Option) string {
	if name != "" {
		return name
	}
	return options[0].Title
}

func dateRange(dep, ret string) string {
	if dep == "" {
		dep = FlexibleDate
	}
	if ret == "" {
		ret = FlexibleDate
	}
	if dep == FlexibleDate && ret == FlexibleDate {
		return FlexibleDate
	}
	return dep + " to " + ret
}

func travelersLabel(c models.TripContext) string {
	adults, children := c.Travelers()
	if adults < MinAdults {
		adults = MinAdults
	}
	label := plural(adults, "adult", "adults")
	if children > 0 {
		label += ", " + plural(children, "child", "children")
	}
	return label
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func activitiesLabel(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, ", ")
}

package flow

import (
	"fmt"

	"github.com/dmitrijs2005/tripflow/internal/common"
	"github.com/dmitrijs2005/tripflow/internal/server/flow/catalog"
	"github.com/dmitrijs2005/tripflow/internal/server/models"
)

// Render returns the data payload that displays screen for a session in
// state c. bookingRef is only used by the confirmation screen.
func (m *Machine) Render(screen string, c models.TripContext, bookingRef string) (map[string]any, error) {
	switch screen {
	case ScreenDestination:
		return map[string]any{"destinations": catalog.Destinations()}, nil

	case ScreenTravelDates:
		return map[string]any{"destination_name": nameOr(c.DestinationName, catalog.Destinations())}, nil

	case ScreenTravelers:
		return map[string]any{
			"destination_name": nameOr(c.DestinationName, catalog.Destinations()),
			"dates":            dateRange(c.DepartureDate, c.ReturnDate),
			"max_adults":       MaxAdults,
			"max_children":     MaxChildren,
		}, nil

	case ScreenPackage:
		return map[string]any{"packages": m.pricedPackages()}, nil

	case ScreenAccommodation:
		return map[string]any{"accommodations": catalog.Accommodations()}, nil

	case ScreenActivities:
		return map[string]any{"activities": catalog.Activities()}, nil

	case ScreenSummary:
		summary, _ := BuildSummary(c, m.prices)
		return map[string]any{"summary": summary}, nil

	case ScreenConfirmation:
		summary, _ := BuildSummary(c, m.prices)
		return confirmation(summary, bookingRef), nil

	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownScreen, screen)
	}
}

// pricedPackages appends the package price to each description.
func (m *Machine) pricedPackages() []catalog.Option {
	pkgs := catalog.Packages()
	for i := range pkgs {
		pkgs[i].Description = fmt.Sprintf("%s (%s)", pkgs[i].Description, m.prices.FormatPrice(m.prices.Estimate(pkgs[i].ID)))
	}
	return pkgs
}

// Confirmation is the booking_confirmation block of the terminal screen.
type Confirmation struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

func confirmation(summary models.BookingSummary, bookingRef string) map[string]any {
	return map[string]any{
		"confirmation": Confirmation{
			BookingID: bookingRef,
			Status:    models.BookingStatusConfirmed,
			Message:   ConfirmationMessage(summary, bookingRef),
		},
		"summary": summary,
	}
}

// ConfirmationMessage is shown on screen and sent to the traveller.
func ConfirmationMessage(summary models.BookingSummary, bookingRef string) string {
	return fmt.Sprintf("Your trip to %s is confirmed! Booking reference: %s. Estimated total: %s.",
		summary.Destination, bookingRef, summary.TotalPrice)
}

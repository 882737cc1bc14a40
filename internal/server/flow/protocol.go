// Package flow implements the screen-by-screen booking conversation driven
// by the flows data-exchange protocol.
//
// Machine holds the pure screen graph: given the submitted screen, the
// current trip context and the submitted data it returns the next screen
// and the context patch. Processor wraps it with session persistence,
// events and booking finalization.
package flow

import (
	"strconv"
	"strings"
)

// Actions sent by the platform.
const (
	ActionPing         = "ping"
	ActionInit         = "INIT"
	ActionBack         = "BACK"
	ActionDataExchange = "data_exchange"
)

// Screens in graph order.
const (
	ScreenDestination   = "DESTINATION_SELECTION"
	ScreenTravelDates   = "TRAVEL_DATES"
	ScreenTravelers     = "TRAVELERS"
	ScreenPackage       = "PACKAGE_TYPE"
	ScreenAccommodation = "ACCOMMODATION"
	ScreenActivities    = "ACTIVITIES"
	ScreenSummary       = "PACKAGE_SUMMARY"
	ScreenConfirmation  = "BOOKING_CONFIRMATION"
)

// Keys of the selections submitted on the option screens.
const (
	FieldDestination   = "selected_destination"
	FieldPackage       = "selected_package"
	FieldAccommodation = "selected_accommodation"
	FieldActivities    = "selected_activities"
)

// fieldAliases are the bare key names older flow definitions submit.
var fieldAliases = map[string]string{
	FieldDestination:   "destination",
	FieldPackage:       "package_type",
	FieldAccommodation: "accommodation",
	FieldActivities:    "activities",
}

// selectionKey returns key when it was submitted, otherwise its alias if
// that was submitted instead.
func selectionKey(data map[string]any, key string) string {
	if _, ok := data[key]; ok {
		return key
	}
	if alias, ok := fieldAliases[key]; ok {
		if _, ok := data[alias]; ok {
			return alias
		}
	}
	return key
}

// DefaultVersion is echoed when a request omits its protocol version.
const DefaultVersion = "3.0"

// FlexibleDate stands in for a date the traveller did not pick.
const FlexibleDate = "Flexible"

// Request is the decrypted body of a flows data-exchange call.
type Request struct {
	Version   string         `json:"version"`
	Action    string         `json:"action"`
	Screen    string         `json:"screen,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	FlowToken string         `json:"flow_token"`
}

// Response is encrypted and returned as the HTTP body.
type Response struct {
	Version string         `json:"version,omitempty"`
	Screen  string         `json:"screen,omitempty"`
	Data    map[string]any `json:"data"`
}

// Normalize rewrites Action to its canonical spelling. Actions are matched
// case-insensitively; unknown ones are left as sent.
func (r *Request) Normalize() {
	for _, a := range [...]string{ActionPing, ActionInit, ActionBack, ActionDataExchange} {
		if strings.EqualFold(strings.TrimSpace(r.Action), a) {
			r.Action = a
			return
		}
	}
}

// IsErrorNotification reports whether the platform is telling us a
// previous response could not be processed.
func (r *Request) IsErrorNotification() bool {
	_, ok := r.Data["error"]
	return ok
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// intField accepts JSON numbers and numeric strings; ok is false otherwise.
func intField(data map[string]any, key string) (int, bool) {
	switch v := data[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// stringsField accepts a JSON array of strings or a comma-separated string.
func stringsField(data map[string]any, key string) []string {
	var out []string
	switch v := data[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

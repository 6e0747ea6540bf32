package core

import "strings"

// Marker strings the model is instructed to emit when it detects an intent.
const (
	MarkerBooking       = "INTENT_BOOKING"
	MarkerT30           = "INTENT_T30"
	MarkerShowroom      = "INTENT_SHOWROOM"
	MarkerSupportDirect = "INTENT_SUPPORT_DIRECT"
	MarkerSupport       = "INTENT_SUPPORT"
	MarkerAssistance    = "ASSISTANCE_NEEDED"
)

// DetectIntentMarker maps a marker found in model output to an intent.
// MarkerSupportDirect is checked before MarkerSupport because the latter is a
// prefix of the former.
func DetectIntentMarker(text string) Intent {
	switch {
	case strings.Contains(text, MarkerBooking):
		return IntentBooking
	case strings.Contains(text, MarkerT30):
		return IntentT30
	case strings.Contains(text, MarkerShowroom):
		return IntentShowroom
	case strings.Contains(text, MarkerSupportDirect):
		return IntentSupportDirect
	case strings.Contains(text, MarkerSupport):
		return IntentSupport
	case strings.Contains(text, MarkerAssistance):
		return IntentSupport
	default:
		return IntentNone
	}
}

// StripIntentMarkers removes every marker from model output, leaving the
// user-facing text.
func StripIntentMarkers(text string) string {
	for _, marker := range []string{
		MarkerBooking, MarkerT30, MarkerShowroom,
		MarkerSupportDirect, MarkerSupport, MarkerAssistance,
	} {
		text = strings.ReplaceAll(text, marker, "")
	}
	return strings.TrimSpace(text)
}

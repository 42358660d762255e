package enums

import "fmt"

// AnalyticsEventName is the canonical event_name for listing analytics events.
type AnalyticsEventName string

const (
	AnalyticsEventImpression    AnalyticsEventName = "impression"
	AnalyticsEventDetailView    AnalyticsEventName = "detail_view"
	AnalyticsEventOutboundClick AnalyticsEventName = "outbound_click"
	AnalyticsEventTagClick      AnalyticsEventName = "tag_click"
	AnalyticsEventShare         AnalyticsEventName = "share"
	AnalyticsEventBookmark      AnalyticsEventName = "bookmark"
)

var validAnalyticsEventNames = []AnalyticsEventName{
	AnalyticsEventImpression,
	AnalyticsEventDetailView,
	AnalyticsEventOutboundClick,
	AnalyticsEventTagClick,
	AnalyticsEventShare,
	AnalyticsEventBookmark,
}

// IsValid reports whether the value matches the canonical event_name enum.
func (a AnalyticsEventName) IsValid() bool {
	for _, candidate := range validAnalyticsEventNames {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAnalyticsEventName converts the raw string to AnalyticsEventName.
func ParseAnalyticsEventName(value string) (AnalyticsEventName, error) {
	for _, candidate := range validAnalyticsEventNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid analytics event name %q", value)
}

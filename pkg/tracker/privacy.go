package tracker

import "net/http"

// Signals carries the browser privacy signals that gate collection. When
// either flag is set, no analytics may be captured or transmitted for the
// request, and previously queued events must not be sent.
type Signals struct {
	DoNotTrack           bool
	GlobalPrivacyControl bool
}

// OptedOut reports whether any opt-out signal is present.
func (s Signals) OptedOut() bool {
	return s.DoNotTrack || s.GlobalPrivacyControl
}

// SignalsFromHeader extracts privacy signals from request headers. Only the
// literal value "1" counts as an opt-out; "0", empty, and anything else are
// treated as no signal.
func SignalsFromHeader(h http.Header) Signals {
	return Signals{
		DoNotTrack:           h.Get("DNT") == "1",
		GlobalPrivacyControl: h.Get("Sec-GPC") == "1",
	}
}

package ingest

import "strings"

// PageKind classifies which catalog surface a collected path points at.
type PageKind string

const (
	PageKindListing  PageKind = "listing"
	PageKindCategory PageKind = "category"
	PageKindOther    PageKind = "other"
)

// ClassifyPath maps a collected path onto a catalog surface. Detail pages
// live under /tools/{slug} and category index pages under /categories/{slug};
// anything else (including deeper subpaths) is recorded unattributed.
func ClassifyPath(path string) (PageKind, string) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return PageKindOther, ""
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[1] == "" {
		return PageKindOther, ""
	}

	switch parts[0] {
	case "tools":
		return PageKindListing, parts[1]
	case "categories":
		return PageKindCategory, parts[1]
	default:
		return PageKindOther, ""
	}
}

package state

import (
	"github.com/metcalfc/leaf/internal/progress"
	"github.com/metcalfc/leaf/internal/settings"
)

// initialPage picks the page a freshly loaded document opens at.
//
// An explicit request wins and falls back to 0 when out of range. Otherwise
// saved progress plus the open preference offset is used, falling back to the
// last page when out of range. Without either the document opens at 0.
func initialPage(numPages int, requested *int, saved progress.Row, hasSaved bool, pref settings.OpenPreference) int {
	if requested != nil {
		if inRange(*requested, numPages) {
			return *requested
		}
		return 0
	}
	if hasSaved {
		page := saved.CurrentPage + pref.Offset()
		if inRange(page, numPages) {
			return page
		}
		return max(numPages-1, 0)
	}
	return 0
}

func inRange(page, numPages int) bool {
	return page >= 0 && page < numPages
}

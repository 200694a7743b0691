package main

import (
	"github.com/metcalfc/leaf/internal/settings"
)

// palette is a pair of hex colors. Empty strings mean the front end's
// default colors.
type palette struct {
	Background string
	Text       string
}

var themePalettes = map[settings.Theme]palette{
	settings.ThemeNone:  {},
	settings.ThemeSepia: {Background: "#F4ECD8", Text: "#5B4636"},
	settings.ThemeDark:  {Background: "#1E1E1E", Text: "#D4D4D4"},
	settings.ThemeLight: {Background: "#FFFFFF", Text: "#1A1A1A"},
}

// paletteFor returns the reading colors for g. Custom colors replace the
// theme's when enabled.
func paletteFor(g settings.General) palette {
	if g.UseCustomColor {
		return palette{Background: g.BackgroundColor, Text: g.TextColor}
	}
	return themePalettes[g.Theme]
}

// nextTheme cycles through settings.Themes.
func nextTheme(t settings.Theme) settings.Theme {
	themes := settings.Themes
	for i, candidate := range themes {
		if candidate == t {
			return themes[(i+1)%len(themes)]
		}
	}
	return themes[0]
}

// togglePreference flips between resuming at the saved page and the page
// after it.
func togglePreference(p settings.OpenPreference) settings.OpenPreference {
	if p == settings.OpenNextChapter {
		return settings.OpenCurrentChapter
	}
	return settings.OpenNextChapter
}

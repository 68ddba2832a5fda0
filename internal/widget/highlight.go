package widget

import (
	"strings"
	"unicode/utf8"

	"github.com/bobby-s-dev/weather-widget/internal/models"
)

// Highlight splits text around the first case-insensitive occurrence of
// query. When query is empty or absent the whole text is returned as Prefix
// with Matched unset. Segments are slices of text, so invalid UTF-8 survives.
func Highlight(text, query string) models.Segments {
	if query == "" {
		return models.Segments{Prefix: text}
	}

	n := utf8.RuneCountInString(query)
	for i := 0; i < len(text); {
		end, runes := i, 0
		for runes < n && end < len(text) {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
			runes++
		}
		if runes < n {
			break
		}

		if strings.EqualFold(text[i:end], query) {
			return models.Segments{
				Prefix:  text[:i],
				Match:   text[i:end],
				Suffix:  text[end:],
				Matched: true,
			}
		}

		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}

	return models.Segments{Prefix: text}
}

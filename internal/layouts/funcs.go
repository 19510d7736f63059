package layouts

import (
	"html/template"
	"reflect"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// TagURL is the site-relative URL of a tag page.
func TagURL(tag string) string {
	return "/tags/" + content.TagSlug(tag) + "/"
}

// FuncMap returns the functions available to every layout.
func FuncMap(opts Options) template.FuncMap {
	tag, err := language.Parse(opts.Language)
	if err != nil {
		tag = language.Und
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")

	return template.FuncMap{
		"default": defaultValue,
		"dateFormat": func(layout string, t time.Time) string {
			return t.Format(layout)
		},
		"tagURL": TagURL,
		"absURL": func(p string) string {
			if strings.Contains(p, "://") {
				return p
			}
			return baseURL + "/" + strings.TrimLeft(p, "/")
		},
		"join": func(sep string, items []string) string {
			return strings.Join(items, sep)
		},
		"lower": strings.ToLower,
		// A Caser carries state; render workers each need their own.
		"title": func(s string) string {
			return cases.Title(tag).String(s)
		},
	}
}

// defaultValue returns value unless it is nil or the zero value of its type,
// in which case fallback is returned. Use with index to tolerate missing keys:
// {{ default "Anonymous" (index .Page.Params "author") }}.
func defaultValue(fallback, value any) any {
	if value == nil {
		return fallback
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		if v.Len() == 0 {
			return fallback
		}
	default:
		if v.IsZero() {
			return fallback
		}
	}
	return value
}


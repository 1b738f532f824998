package forms

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Collect gathers named field values from a form selection. Repeated field
// names accumulate, so callers receive array-valued entries for checkbox
// groups and multi-selects. Unchecked checkboxes and radios contribute
// nothing, matching browser submission behaviour.
func Collect(form *goquery.Selection) url.Values {
	values := url.Values{}

	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, field *goquery.Selection) {
		name, _ := field.Attr("name")
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}

		switch goquery.NodeName(field) {
		case "textarea":
			values.Add(name, field.Text())
		case "select":
			selected := field.Find("option[selected]")
			if selected.Length() == 0 {
				// Browsers submit the first option of a single select.
				if _, multiple := field.Attr("multiple"); !multiple {
					selected = field.Find("option").First()
				}
			}
			selected.Each(func(_ int, option *goquery.Selection) {
				if value, ok := option.Attr("value"); ok {
					values.Add(name, value)
					return
				}
				values.Add(name, strings.TrimSpace(option.Text()))
			})
		default:
			fieldType, _ := field.Attr("type")
			if fieldType == "checkbox" || fieldType == "radio" {
				if _, checked := field.Attr("checked"); !checked {
					return
				}
			}
			values.Add(name, field.AttrOr("value", ""))
		}
	})

	return values
}

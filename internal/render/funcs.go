package render

import (
	"html/template"
	"math"
	"strings"

	"github.com/dfryer1193/esatsite/content/application"
	"github.com/dfryer1193/esatsite/content/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	contactPriceLabel = "Liên hệ"
	currencySuffix    = "đ"
	dateLayout        = "02/01/2006"
	defaultSiteName   = "ESAT"
)

var vietnamese = message.NewPrinter(language.Vietnamese)

// FormatPrice renders a CMS price in vi-VN grouping ("1.500.000đ"). A
// non-numeric label such as "Thỏa thuận" is shown as is; empty and
// non-positive prices read "Liên hệ".
func FormatPrice(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return contactPriceLabel
	}

	v, ok := domain.ParsePrice(raw)
	if !ok {
		return raw
	}
	if v <= 0 {
		return contactPriceLabel
	}
	if v == math.Trunc(v) {
		return vietnamese.Sprint(number.Decimal(int64(v))) + currencySuffix
	}
	return vietnamese.Sprint(number.Decimal(v, number.MaxFractionDigits(2))) + currencySuffix
}

// FormatDate renders a CMS timestamp as dd/mm/yyyy, or "" when unparseable.
func FormatDate(raw string) string {
	t := domain.ParseTimestamp(raw)
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func deref(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case *string:
		if s == nil {
			return ""
		}
		return *s
	}
	return ""
}

func isActive(current, href string) bool {
	if href == "/" {
		return current == "/"
	}
	return current == href || strings.HasPrefix(current, strings.TrimSuffix(href, "/")+"/")
}

func siteName(s *domain.SettingsConfig) string {
	if s != nil && s.SiteName != nil && *s.SiteName != "" {
		return *s.SiteName
	}
	return defaultSiteName
}

// pageTitle is "<title> | <site>", or the SEO title on pages without one.
func pageTitle(p *Page) string {
	name := siteName(p.Home.Settings)
	if p.Title != "" {
		return p.Title + " | " + name
	}
	if s := p.Home.Settings; s != nil && s.SEOTitle != nil && *s.SEOTitle != "" {
		return *s.SEOTitle
	}
	return name
}

// Funcs is the helper set every template can call.
func Funcs(storageURL string) template.FuncMap {
	descriptions := application.NewDescriptionRenderer(storageURL)

	return template.FuncMap{
		"formatPrice": FormatPrice,
		"formatDate":  FormatDate,
		"imageURL": func(v any) string {
			return application.ResolveImageURL(storageURL, deref(v))
		},
		"metaDescription": application.MetaDescription,
		"excerpt":         application.Excerpt,
		"renderDescription": func(v any) template.HTML {
			out, err := descriptions.Render(deref(v))
			if err != nil {
				log.Error().Err(err).Msg("Failed to render description")
				return template.HTML(template.HTMLEscapeString(deref(v)))
			}
			return template.HTML(out)
		},
		"shouldExpand": func(v any) bool {
			return application.ShouldExpand(deref(v))
		},
		// Post and product bodies are authored HTML from the CMS.
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"deref":        deref,
		"isActive":     isActive,
		"siteName":     siteName,
		"pageTitle":    pageTitle,
		"sectionOrder": application.SectionOrder,
	}
}

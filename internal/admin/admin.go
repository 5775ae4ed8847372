package admin

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// View is a section of the admin shell.
type View string

const (
	ViewDashboard View = "dashboard"
	ViewPosts     View = "posts"
	ViewMedia     View = "media"
	ViewUsers     View = "users"
	ViewSettings  View = "settings"
)

const (
	ThemeCookie = "theme"
	ThemeDark   = "dark"
	ThemeLight  = "light"

	// ThemeHintHeader is the client hint browsers send when asked for it.
	ThemeHintHeader = "Sec-CH-Prefers-Color-Scheme"
)

var views = []View{ViewDashboard, ViewPosts, ViewMedia, ViewUsers, ViewSettings}

var viewPaths = map[View]string{
	ViewDashboard: "/admin",
	ViewPosts:     "/admin/posts",
	ViewMedia:     "/admin/media",
	ViewUsers:     "/admin/users",
	ViewSettings:  "/admin/settings",
}

var viewLabels = map[View]string{
	ViewDashboard: "Dashboard",
	ViewPosts:     "Bài viết",
	ViewMedia:     "Media",
	ViewUsers:     "Người dùng",
	ViewSettings:  "Cài đặt",
}

// CurrentView picks the section a path belongs to. Anything unrecognised is
// the dashboard.
func CurrentView(path string) View {
	for _, v := range []View{ViewPosts, ViewMedia, ViewUsers, ViewSettings} {
		if strings.Contains(path, "/"+string(v)) {
			return v
		}
	}
	return ViewDashboard
}

// ViewPath returns the entry path of a view. ok is false for unknown views.
func ViewPath(v View) (string, bool) {
	p, ok := viewPaths[v]
	return p, ok
}

type Crumb struct {
	Label string
	Path  string
}

var (
	postEditPattern  = regexp.MustCompile(`/posts/\d+(?:/edit)?$`)
	mediaItemPattern = regexp.MustCompile(`/media/[^/]+$`)
)

// Breadcrumbs describes where path sits in the admin shell. Only the leading
// crumb of a two-level trail links anywhere.
func Breadcrumbs(path string) []Crumb {
	view := CurrentView(path)
	section := viewLabels[view]
	sectionPath := viewPaths[view]

	trail := func(leaf string) []Crumb {
		return []Crumb{{Label: section, Path: sectionPath}, {Label: leaf}}
	}

	switch view {
	case ViewPosts:
		switch {
		case strings.HasSuffix(path, "/create"):
			return trail("Tạo mới")
		case postEditPattern.MatchString(path):
			return trail("Chỉnh sửa")
		}
		return trail("Danh sách")
	case ViewMedia:
		switch {
		case strings.HasSuffix(path, "/media/create"):
			return trail("Tải mới")
		case mediaItemPattern.MatchString(path):
			return trail("Chỉnh sửa")
		}
		return trail("Danh sách")
	case ViewUsers:
		if strings.HasSuffix(path, "/edit") {
			return trail("Chỉnh sửa")
		}
		return trail("Danh sách")
	}

	return []Crumb{{Label: section}}
}

// Theme resolves the colour scheme from the theme cookie, then the client
// hint, defaulting to light.
func Theme(cookie, hint string) string {
	switch cookie {
	case ThemeDark, ThemeLight:
		return cookie
	}
	if strings.EqualFold(strings.TrimSpace(hint), ThemeDark) {
		return ThemeDark
	}
	return ThemeLight
}

type MenuEntry struct {
	Label  string
	Path   string
	Active bool
}

// Menu lists every view with the current one marked.
func Menu(current View) []MenuEntry {
	entries := make([]MenuEntry, 0, len(views))
	for _, v := range views {
		entries = append(entries, MenuEntry{
			Label:  viewLabels[v],
			Path:   viewPaths[v],
			Active: v == current,
		})
	}
	return entries
}

// Page is what the admin template renders.
type Page struct {
	Title       string
	Theme       string
	User        string
	Today       string
	View        View
	Menu        []MenuEntry
	Breadcrumbs []Crumb
}

func NewPage(path, theme, user string, now time.Time) *Page {
	view := CurrentView(path)
	title := "Trang quản trị"
	if view != ViewDashboard {
		title = viewLabels[view]
	}

	return &Page{
		Title:       title,
		Theme:       theme,
		User:        user,
		Today:       FormatLongDate(now),
		View:        view,
		Menu:        Menu(view),
		Breadcrumbs: Breadcrumbs(path),
	}
}

var weekdays = [...]string{"Chủ Nhật", "Thứ Hai", "Thứ Ba", "Thứ Tư", "Thứ Năm", "Thứ Sáu", "Thứ Bảy"}

// FormatLongDate renders t as e.g. "Thứ Hai, 19 tháng 10, 2026".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d tháng %d, %d", weekdays[t.Weekday()], t.Day(), int(t.Month()), t.Year())
}

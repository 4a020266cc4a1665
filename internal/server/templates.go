package server

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/user/summary-dashboard/internal/view"
	"github.com/user/summary-dashboard/internal/youtube"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"dashboard", "detail", "video_form", "channel_form", "settings", "error"}

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"duration": func(sec *int) string {
			if sec == nil {
				return ""
			}
			return view.FormatDuration(*sec)
		},
		"longDuration": func(sec *int) string {
			if sec == nil {
				return ""
			}
			return view.FormatLongDuration(*sec)
		},
		"views": func(n *int64) string {
			if n == nil {
				return ""
			}
			return view.FormatViews(*n)
		},
		"viewsFull": func(n *int64) string {
			if n == nil {
				return ""
			}
			return view.FormatViewsFull(*n)
		},
		"ago": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return view.RelativeTime(*t, s.now())
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"truncate": view.Truncate,
		"watchURL": youtube.WatchURL,
	}
}

// parseTemplates builds one template set per page on top of the layout
func (s *Server) parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New(name).Funcs(s.funcs()).ParseFS(templateFS,
			"templates/layout.html",
			fmt.Sprintf("templates/%s.html", name),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

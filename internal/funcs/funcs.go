package funcs

import (
	"strings"
	"text/template"
	"time"
)

var TemplateFuncs = template.FuncMap{
	"formatTime": formatTime,
	"titleCase":  titleCase,
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

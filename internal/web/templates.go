package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/joelazar/fancy-forms/pkg/mutation"
	"github.com/joelazar/fancy-forms/pkg/view"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"timestamp": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
	"intentField":  func() string { return mutation.IntentField },
	"actionField":  func() string { return mutation.ActionField },
	"focusTitle":   func() string { return view.FocusTitle },
	"retryLabel":   func() string { return view.LabelRetry },
	"deleteLabel":  func() string { return view.LabelDelete },
	"createLabel":  func() string { return view.LabelCreate },
	"pendingLabel": func() string { return view.LabelCreating },
}

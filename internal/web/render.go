// Package web renders the HTML front of the application: the root layout with
// theme and page metadata, the branded app header, the home page and the
// sign-in/sign-up pages hosting the identity provider widgets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/eugenenazirov/androfit/internal/appconfig"
	"github.com/eugenenazirov/androfit/internal/toast"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Renderer.Render.
const (
	PageHome   = "home"
	PageSignIn = "sign_in"
	PageSignUp = "sign_up"
)

var sharedTemplates = []string{"templates/layout.html", "templates/header.html", "templates/toasts.html"}

// AuthSettings locates the identity provider widgets.
type AuthSettings struct {
	PublishableKey string
	ScriptURL      string
	SignInPath     string
	SignUpPath     string
	AfterAuthURL   string
}

// PageData is the view model every page template receives.
type PageData struct {
	Config appconfig.AppConfig
	Theme  template.CSS
	Toasts []toast.Toast
	Auth   AuthSettings
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, page := range []string{PageHome, PageSignIn, PageSignUp} {
		files := append(append([]string{}, sharedTemplates...), "templates/"+page+".html")
		tmpl, err := template.New(page).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render writes page to w.
func (r *Renderer) Render(w io.Writer, page string, data PageData) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("render %s: %w", page, err)
	}
	return nil
}

// ThemeCSS builds the custom properties that apply the accent colors. Tokens
// that are not hex colors are left out.
func ThemeCSS(cfg appconfig.AppConfig) template.CSS {
	var rules []string
	if appconfig.IsColor(cfg.Accent) {
		rules = append(rules, ":root { --primary: "+cfg.Accent+"; }")
	}
	if appconfig.IsColor(cfg.AccentDark) {
		rules = append(rules, ".dark { --primary: "+cfg.AccentDark+"; }")
	}
	return template.CSS(strings.Join(rules, "\n"))
}

// StaticFS returns the embedded static assets rooted at the static directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

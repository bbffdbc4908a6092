package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"maps"
	"strings"
)

type Template string

const (
	Welcome           Template = "welcome"
	EmailVerification Template = "email_verification"
	PasswordReset     Template = "password_reset"
	PostApproved      Template = "post_approved"
	PostEdited        Template = "post_edited"
	ContactRequest    Template = "contact_request"
	ReportReceived    Template = "report_received"
	ReportResolved    Template = "report_resolved"
)

// subjects are formatted with the application name.
var subjects = map[Template]string{
	Welcome:           "Welcome to %s",
	EmailVerification: "Verify Your Email - %s",
	PasswordReset:     "Password Reset Request - %s",
	PostApproved:      "Your Pet Post Has Been Approved - %s",
	PostEdited:        "Your Pet Post Has Been Edited - %s",
	ContactRequest:    "Contact Request for Your Pet - %s",
	ReportReceived:    "Report Received - %s",
	ReportResolved:    "Report Resolved - %s",
}

//go:embed templates/*.html
var templateFS embed.FS

type Renderer struct {
	appName   string
	clientURL string
	bodies    map[Template]*htmltemplate.Template
}

func NewRenderer(appName, clientURL string) (*Renderer, error) {
	base, err := htmltemplate.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	r := &Renderer{
		appName:   appName,
		clientURL: strings.TrimRight(clientURL, "/"),
		bodies:    make(map[Template]*htmltemplate.Template, len(subjects)),
	}
	for name := range subjects {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, "templates/"+string(name)+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.bodies[name] = t
	}
	return r, nil
}

func (r *Renderer) Known(name Template) bool {
	_, ok := r.bodies[name]
	return ok
}

// Render returns the subject and HTML body for name. The keys AppName and
// ClientURL are always available to the template.
func (r *Renderer) Render(name Template, data map[string]any) (string, string, error) {
	t, ok := r.bodies[name]
	if !ok {
		return "", "", fmt.Errorf("mail: unknown template %q", name)
	}
	vars := make(map[string]any, len(data)+2)
	maps.Copy(vars, data)
	vars["AppName"] = r.appName
	vars["ClientURL"] = r.clientURL

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", vars); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return fmt.Sprintf(subjects[name], r.appName), buf.String(), nil
}

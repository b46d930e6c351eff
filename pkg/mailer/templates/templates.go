package templates

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	"sync"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// ResetOTP is the password reset code email.
const ResetOTP = "reset_otp"

// ErrUnknownTemplate is returned by Render for a name with no embedded files.
var ErrUnknownTemplate = errors.New("unknown email template")

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name           string
	Email          string
	RecipientEmail string
	Type           string

	CompanyName string
	AppName     string
	SupportURL  string

	ExpiresAt     time.Time
	ExpiresAtText string
	Code          string
}

// Map flattens d into the map carried by an EmailJob.
func (d EmailData) Map() map[string]any {
	return map[string]any{
		"Name":           d.Name,
		"Email":          d.Email,
		"RecipientEmail": d.RecipientEmail,
		"Type":           d.Type,
		"CompanyName":    d.CompanyName,
		"AppName":        d.AppName,
		"SupportURL":     d.SupportURL,
		"ExpiresAt":      d.ExpiresAt,
		"ExpiresAtText":  d.ExpiresAtText,
		"Code":           d.Code,
	}
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func funcs() map[string]any {
	return map[string]any{
		"upper":   strings.ToUpper,
		"default": defaultFn,
	}
}

// set holds the parsed parts of one email: <name>.subject.tmpl,
// <name>.text.tmpl and <name>.html.tmpl.
type set struct {
	subject *texttpl.Template
	text    *texttpl.Template
	html    *htmpl.Template
}

var (
	loadOnce sync.Once
	sets     map[string]*set
	loadErr  error
)

func load() {
	sets = map[string]*set{}
	for _, name := range []string{ResetOTP} {
		// The root template must carry the file name ParseFS assigns.
		subject, text, html := name+".subject.tmpl", name+".text.tmpl", name+".html.tmpl"
		s := &set{}
		if s.subject, loadErr = texttpl.New(subject).Funcs(funcs()).ParseFS(FS, subject); loadErr != nil {
			return
		}
		if s.text, loadErr = texttpl.New(text).Funcs(funcs()).ParseFS(FS, text); loadErr != nil {
			return
		}
		if s.html, loadErr = htmpl.New(html).Funcs(funcs()).ParseFS(FS, html); loadErr != nil {
			return
		}
		sets[name] = s
	}
}

// Render renders the subject, text and html bodies of the named email.
func Render(name string, data any) (subject string, text string, html string, err error) {
	loadOnce.Do(load)
	if loadErr != nil {
		return "", "", "", fmt.Errorf("load templates: %w", loadErr)
	}
	s, ok := sets[name]
	if !ok {
		return "", "", "", fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err = s.subject.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())
	buf.Reset()
	if err = s.text.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	text = buf.String()
	buf.Reset()
	if err = s.html.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return subject, text, buf.String(), nil
}

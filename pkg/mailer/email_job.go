package mailer

// EmailJob is the JSON message on the email queue. Template jobs carry Data
// for pkg/mailer/templates; plain jobs set Subject and Text or HTML.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

package email

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// TemplateData is the input to every mail template.
type TemplateData struct {
	RecipientName string
	Title         string
	Message       string
	ItemKind      string
	ItemTitle     string
	ProjectName   string
}

type mailTemplate struct {
	subject *template.Template
	body    *template.Template
}

const signature = "\n\nBest regards,\nTask Management Team\n"

var templates = map[string]mailTemplate{
	"task_assignment": mustTemplate(
		"New Task Assigned: {{.ItemTitle}}",
		"Hi {{.RecipientName}},\n\nYou have been assigned {{.ItemTitle}}{{if .ProjectName}} in {{.ProjectName}}{{end}}.\n\n{{.Message}}"),
	"deadline_approaching": mustTemplate(
		"Deadline Reminder: {{.ItemTitle}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}\n\nPlease complete this {{.ItemKind}} on time or request an extension."),
	"deadline_overdue": mustTemplate(
		"URGENT: {{.ItemKind}} overdue - {{.ItemTitle}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}\n\nPlease complete this {{.ItemKind}} immediately or request an extension."),
	"deadline_extension": mustTemplate(
		"Deadline extension requested: {{.ItemTitle}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}\n\nPlease review the request."),
	"deadline_extension_review": mustTemplate(
		"{{.Title}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}"),
	"milestone": mustTemplate(
		"New milestone in {{.ProjectName}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}"),
	"milestone_complete": mustTemplate(
		"Milestone completed in {{.ProjectName}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}"),
	"vacation_request": mustTemplate(
		"Vacation Request",
		"Hello {{.RecipientName}},\n\n{{.Message}}"),
	"general": mustTemplate(
		"{{if .Title}}{{.Title}}{{else}}Notification{{end}}",
		"Hello {{.RecipientName}},\n\n{{.Message}}"),
}

func mustTemplate(subject, body string) mailTemplate {
	return mailTemplate{
		subject: template.Must(template.New("subject").Parse(subject)),
		body:    template.Must(template.New("body").Parse(body + signature)),
	}
}

// Render selects the template for kind, falling back to "general".
func Render(kind string, data TemplateData) (subject, body string, err error) {
	tmpl, ok := templates[kind]
	if !ok {
		tmpl = templates["general"]
	}
	if data.RecipientName == "" {
		data.RecipientName = "there"
	}

	var sb, bb bytes.Buffer
	if err := tmpl.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render subject: %w", err)
	}
	if err := tmpl.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render body: %w", err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}

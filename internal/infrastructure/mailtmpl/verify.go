package mailtmpl

import (
	"bytes"
	"fmt"
	"html"
	"text/template"

	"github.com/yuin/goldmark"
)

// VerifySubject is the subject line of verification e-mails.
const VerifySubject = "Email Verification"

const verifyMarkdown = `# Verify your email

Use the code below to finish creating your account.

## {{ .Code }}

If you did not request this, you can ignore this message.
`

var verifyTmpl = template.Must(template.New("verify").Parse(verifyMarkdown))

// Renderer turns a verification code into an HTML e-mail body.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New()}
}

// RenderVerify renders the verification e-mail for code.
func (r *Renderer) RenderVerify(code string) (string, error) {
	var src bytes.Buffer
	if err := verifyTmpl.Execute(&src, struct{ Code string }{Code: html.EscapeString(code)}); err != nil {
		return "", fmt.Errorf("execute verify template: %w", err)
	}
	var out bytes.Buffer
	if err := r.md.Convert(src.Bytes(), &out); err != nil {
		return "", fmt.Errorf("convert verify markdown: %w", err)
	}
	return out.String(), nil
}

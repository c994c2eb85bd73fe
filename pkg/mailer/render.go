package mailer

import (
	"strconv"
	"strings"
)

// Placeholder tokens recognised in invitation subjects and bodies.
const (
	TokenFirstName             = "--firstName"
	TokenLastName              = "--lastName"
	TokenLocation              = "--location"
	TokenOccupation            = "--occupation"
	TokenProgrammingLanguage   = "--programmingLanguage"
	TokenNumberOfContributions = "--numberOfContributions"
	TokenNumberOfRepositories  = "--numberOfRepositories"
)

// Tokens lists every supported placeholder in substitution order.
var Tokens = []string{
	TokenFirstName,
	TokenLastName,
	TokenLocation,
	TokenOccupation,
	TokenProgrammingLanguage,
	TokenNumberOfContributions,
	TokenNumberOfRepositories,
}

// Render replaces every occurrence of each placeholder token in content with
// the recipient's attribute. Substitution happens in a single pass, so values
// that themselves look like tokens are left alone.
func Render(content string, r Recipient) string {
	if !strings.Contains(content, "--") {
		return content
	}
	return r.replacer().Replace(content)
}

// RenderMessage builds the personalised plain-text message for one recipient.
func RenderMessage(tpl Template, from, to Address, r Recipient) Message {
	rep := r.replacer()
	return Message{
		To:          to,
		From:        from,
		Subject:     rep.Replace(tpl.Subject),
		Body:        rep.Replace(tpl.Body),
		ContentType: ContentTypePlain,
		Charset:     CharsetUTF8,
	}
}

func (r Recipient) replacer() *strings.Replacer {
	return strings.NewReplacer(
		TokenFirstName, textValue(r.FirstName),
		TokenLastName, textValue(r.LastName),
		TokenLocation, textValue(r.Location),
		TokenOccupation, textValue(r.Occupation),
		TokenProgrammingLanguage, textValue(r.ProgrammingLanguage),
		TokenNumberOfContributions, intValue(r.NumberOfContributions),
		TokenNumberOfRepositories, intValue(r.NumberOfRepositories),
	)
}

func textValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intValue(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

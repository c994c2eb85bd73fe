package mailer

const (
	ContentTypePlain = "text/plain"
	CharsetUTF8      = "UTF-8"
)

// Template is the subject/body pair shared by every message of a batch.
type Template struct {
	Subject string `json:"subject"`
	Body    string `json:"body,omitempty"`
}

// Recipient carries the address and the optional profile attributes that
// placeholders resolve to. Nil attributes render as an empty string.
type Recipient struct {
	Email                 string  `json:"email"`
	FirstName             *string `json:"first_name,omitempty"`
	LastName              *string `json:"last_name,omitempty"`
	Location              *string `json:"location,omitempty"`
	Occupation            *string `json:"occupation,omitempty"`
	ProgrammingLanguage   *string `json:"programming_language,omitempty"`
	NumberOfContributions *int    `json:"number_of_contributions,omitempty"`
	NumberOfRepositories  *int    `json:"number_of_repositories,omitempty"`
}

// Message is one rendered, single-recipient email. It only lives for the
// duration of a send.
type Message struct {
	To          Address
	From        Address
	Subject     string
	Body        string
	ContentType string
	Charset     string
}

// Batch is one dispatch: a template and sender shared by a set of recipients.
// Ref is an opaque label (the study ID) carried into logs and reports.
type Batch struct {
	ID         string
	Ref        string
	Template   Template
	Sender     string
	Recipients []Recipient
}

package ai

import "context"

// Credential is resolved per request from runtime settings, so a key or
// model change applies without a restart.
type Credential struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// Document is the payload handed to the classification model.
type Document struct {
	Text      string
	Filename  string
	Filetype  string
	Filesize  string
	Timestamp string
}

// Oracle is the external classification model behind an API.
type Oracle interface {
	// Classify returns the model's raw text output, believed to be JSON.
	Classify(ctx context.Context, cred Credential, doc Document) (string, error)
	// Probe performs a minimal round trip to verify the credential works.
	Probe(ctx context.Context, cred Credential) error
}

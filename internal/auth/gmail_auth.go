package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// ErrCredentialsUnavailable marks a missing or unreadable Gmail credential
// set. Callers degrade (mailbox features off) rather than crash.
var ErrCredentialsUnavailable = errors.New("gmail credentials unavailable")

// GmailClient builds an authenticated HTTP client from credential.json and
// token.json. Token refresh is handled by the oauth2 transport; this code
// only consumes the stored grant.
func GmailClient(ctx context.Context) (*http.Client, error) {
	credPath := envOr("GMAIL_CREDENTIALS_PATH", "credential.json")
	tokenPath := envOr("GMAIL_TOKEN_PATH", "token.json")

	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCredentialsUnavailable, credPath, err)
	}

	config, err := google.ConfigFromJSON(b, gmail.MailGoogleComScope)
	if err != nil {
		return nil, fmt.Errorf("%w: parse client secret: %v", ErrCredentialsUnavailable, err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrCredentialsUnavailable, tokenPath, err)
	}

	return config.Client(ctx, tok), nil
}

func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

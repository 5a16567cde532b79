// Package googleauth loads the OAuth credential this tool uses against the
// Google consumer APIs. The operator authorizes once through the browser;
// afterwards the cached token is refreshed silently. A token that can no
// longer be refreshed surfaces as an AuthError telling the operator to
// re-authorize; nothing is retried.
package googleauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
)

// AuthError reports an expired or revoked credential that could not be
// refreshed silently.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authorization failed: %v (run 'tp authorize' to re-authorize)", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// WrapAPIError converts authentication failures reported by an API call
// into an AuthError and leaves everything else untouched.
func WrapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if apiErr, ok := err.(*googleapi.Error); ok {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return &AuthError{Err: err}
		}
	}
	if _, ok := err.(*oauth2.RetrieveError); ok {
		return &AuthError{Err: err}
	}
	return err
}

func oauthConfig(credentialsPath string, scopes ...string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read OAuth client credentials %q: %w", credentialsPath, err)
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("cannot parse OAuth client credentials %q: %w", credentialsPath, err)
	}
	return conf, nil
}

// Client returns an authorized HTTP client backed by the cached token. The
// token is verified up front so an action fails before performing any
// partial write.
func Client(ctx context.Context, credentialsPath, tokenPath string, scopes ...string) (*http.Client, error) {
	conf, err := oauthConfig(credentialsPath, scopes...)
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, &AuthError{Err: err}
	}

	source := conf.TokenSource(ctx, tok)
	fresh, err := source.Token()
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	if fresh.AccessToken != tok.AccessToken {
		// best effort: a failed save only costs a refresh next run
		_ = saveToken(tokenPath, fresh)
	}
	return oauth2.NewClient(ctx, source), nil
}

// AuthURL returns the URL the operator opens to authorize this tool.
func AuthURL(credentialsPath string, scopes ...string) (string, error) {
	conf, err := oauthConfig(credentialsPath, scopes...)
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline), nil
}

// Exchange trades the pasted authorization code for a token and caches it.
func Exchange(ctx context.Context, credentialsPath, tokenPath, code string, scopes ...string) error {
	conf, err := oauthConfig(credentialsPath, scopes...)
	if err != nil {
		return err
	}
	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return &AuthError{Err: err}
	}
	return saveToken(tokenPath, tok)
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("no cached token at %q: %w", path, err)
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("cannot parse cached token %q: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

func TestWrapAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		auth bool
	}{
		{"nil", nil, false},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, true},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, true},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, false},
		{"token refresh", &oauth2.RetrieveError{}, true},
		{"plain error", fmt.Errorf("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapAPIError(tt.err)
			var aerr *AuthError
			if isAuth := errors.As(got, &aerr); isAuth != tt.auth {
				t.Errorf("WrapAPIError(%v) auth = %v, want %v", tt.err, isAuth, tt.auth)
			}
			if !tt.auth && !errors.Is(got, tt.err) {
				t.Errorf("WrapAPIError(%v) = %v, want the error untouched", tt.err, got)
			}
		})
	}
}

func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{Err: fmt.Errorf("token expired")}
	if !strings.Contains(err.Error(), "tp authorize") {
		t.Errorf("AuthError should tell the operator how to recover: %q", err)
	}
	if !errors.Is(err, err.Err) {
		t.Error("AuthError should unwrap to its cause")
	}
}

func TestClientWithoutCachedToken(t *testing.T) {
	dir := t.TempDir()
	credentials := filepath.Join(dir, "credentials.json")
	if err := writeTestCredentials(credentials); err != nil {
		t.Fatal(err)
	}

	_, err := Client(context.Background(), credentials, filepath.Join(dir, "token.json"), "scope")
	var aerr *AuthError
	if !errors.As(err, &aerr) {
		t.Fatalf("Client without a cached token = %v, want an *AuthError", err)
	}
}

func TestClientWithoutCredentials(t *testing.T) {
	dir := t.TempDir()
	_, err := Client(context.Background(), filepath.Join(dir, "nope.json"), filepath.Join(dir, "token.json"), "scope")
	if err == nil {
		t.Fatal("Client without credentials should fail")
	}
	var aerr *AuthError
	if errors.As(err, &aerr) {
		t.Error("missing credentials is a setup problem, not an authorization failure")
	}
}

func writeTestCredentials(path string) error {
	const installed = `{"installed":{"client_id":"id","client_secret":"secret","redirect_uris":["urn:ietf:wg:oauth:2.0:oob"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`
	return os.WriteFile(path, []byte(installed), 0o600)
}

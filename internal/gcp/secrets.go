package gcp

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

// Scopes needed by the Docs exporter and the job scout.
var WorkspaceScopes = []string{
	"https://www.googleapis.com/auth/documents",
	"https://www.googleapis.com/auth/gmail.modify",
	"https://www.googleapis.com/auth/calendar.events",
}

// AccessSecret returns the latest version of a Secret Manager secret.
func AccessSecret(ctx context.Context, projectID, secretName string) ([]byte, error) {
	svc, err := secretmanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, secretName)
	resp, err := svc.Projects.Secrets.Versions.Access(name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", secretName, err)
	}
	if resp.Payload == nil {
		return nil, fmt.Errorf("secret %s has no payload", secretName)
	}
	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret %s: %w", secretName, err)
	}
	return data, nil
}

// UserTokenSource builds an OAuth token source from the authorized-user
// credentials JSON stored in Secret Manager.
func UserTokenSource(ctx context.Context, projectID, secretName string) (oauth2.TokenSource, error) {
	data, err := AccessSecret(ctx, projectID, secretName)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, data, WorkspaceScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse oauth credentials from %s: %w", secretName, err)
	}
	return creds.TokenSource, nil
}

package push

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// ErrNoCredentials is returned when no Firebase credential form is configured.
var ErrNoCredentials = errors.New("firebase credentials not configured")

type Credentials struct {
	ServiceAccountBase64 string
	ProjectID            string
	ClientEmail          string
	PrivateKey           string
	CredentialsFile      string
}

type FCMClient struct {
	App       *firebase.App
	Messaging *messaging.Client
}

// NewFCMClient creates a Firebase Cloud Messaging client from the first
// configured credential form: base64 service account JSON, discrete
// project/email/key variables, or a credentials file.
func NewFCMClient(ctx context.Context, creds Credentials) (*FCMClient, error) {
	opt, projectID, err := clientOption(creds)
	if err != nil {
		return nil, err
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, err
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &FCMClient{App: app, Messaging: client}, nil
}

func clientOption(creds Credentials) (option.ClientOption, string, error) {
	switch {
	case creds.ServiceAccountBase64 != "":
		data, err := base64.StdEncoding.DecodeString(creds.ServiceAccountBase64)
		if err != nil {
			return nil, "", err
		}
		return option.WithCredentialsJSON(data), creds.ProjectID, nil
	case creds.ProjectID != "" && creds.ClientEmail != "" && creds.PrivateKey != "":
		data, err := json.Marshal(map[string]string{
			"type":         "service_account",
			"project_id":   creds.ProjectID,
			"client_email": creds.ClientEmail,
			"private_key":  strings.ReplaceAll(creds.PrivateKey, `\n`, "\n"),
			"token_uri":    "https://oauth2.googleapis.com/token",
		})
		if err != nil {
			return nil, "", err
		}
		return option.WithCredentialsJSON(data), creds.ProjectID, nil
	case creds.CredentialsFile != "":
		return option.WithCredentialsFile(creds.CredentialsFile), creds.ProjectID, nil
	}
	return nil, "", ErrNoCredentials
}

// SendMulticast sends one notification to every token and returns the tokens
// FCM reported as no longer registered.
func (f *FCMClient) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	resp, err := f.Messaging.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, err
	}

	var stale []string
	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		if messaging.IsUnregistered(r.Error) {
			stale = append(stale, tokens[i])
			continue
		}
		log.Printf("[PUSH] Delivery to token %d failed: %v", i, r.Error)
	}
	return stale, nil
}

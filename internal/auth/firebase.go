// Package auth verifies Firebase ID tokens and carries the caller's user id
// through request contexts.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

// GoogleCertsURL publishes the certificates that sign Firebase ID tokens.
const GoogleCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const defaultCertTTL = time.Hour

var ErrUnauthorized = errors.New("unauthorized")

// FirebaseVerifier checks RS256 Firebase ID tokens against Google's rotating
// certificates, cached for as long as Cache-Control max-age allows.
type FirebaseVerifier struct {
	projectID string
	certsURL  string
	client    *resty.Client
	now       func() time.Time

	mu      sync.Mutex
	keys    map[string]*rsa.PublicKey
	expires time.Time
}

func NewFirebaseVerifier(projectID string) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		certsURL:  GoogleCertsURL,
		client:    resty.New().SetTimeout(10 * time.Second),
		now:       time.Now,
	}
}

// Verify validates the raw token and returns its subject, the Firebase uid.
func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	_, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no kid header")
		}
		return v.key(ctx, kid)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return claims.Subject, nil
}

func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.keys == nil || !v.now().Before(v.expires) {
		if err := v.refresh(ctx); err != nil {
			return nil, err
		}
	}
	k, ok := v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown signing key %q", kid)
	}
	return k, nil
}

// refresh must be called with v.mu held.
func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	certs := map[string]string{}
	resp, err := v.client.R().SetContext(ctx).SetResult(&certs).Get(v.certsURL)
	if err != nil {
		return fmt.Errorf("fetch signing certificates: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetch signing certificates: status %d", resp.StatusCode())
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pemData := range certs {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemData))
		if err != nil {
			slog.Warn("Skipping unparseable signing certificate.", "kid", kid, "error", err)
			continue
		}
		keys[kid] = k
	}
	if len(keys) == 0 {
		return errors.New("no usable signing certificates")
	}

	v.keys = keys
	v.expires = v.now().Add(maxAge(resp.Header().Get("Cache-Control")))
	return nil
}

// maxAge reads max-age from a Cache-Control header.
func maxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultCertTTL
}

package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/sync/singleflight"

	"github.com/victornm/techbridge/internal/domain"
)

const (
	defaultCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	defaultCertsTTL = time.Hour
	// Unknown key ids trigger at most one refetch per interval.
	defaultRefreshInterval = time.Minute
)

type FirebaseConfig struct {
	ProjectID string
	// CertsURL serves the signing certificates as a JSON object of key id to PEM.
	CertsURL   string
	CertsTTL time.Duration
	// RefreshInterval is the minimum time between refetches caused by unknown key ids.
	RefreshInterval time.Duration
	HTTPClient      *http.Client

	Now func() time.Time
}

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	issuer   string
	audience string
	certsURL string
	ttl      time.Duration
	refresh  time.Duration
	client   *http.Client
	now      func() time.Time

	group     singleflight.Group
	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchTime time.Time
}

func NewFirebaseVerifier(c FirebaseConfig) *FirebaseVerifier {
	v := &FirebaseVerifier{
		issuer:   "https://securetoken.google.com/" + c.ProjectID,
		audience: c.ProjectID,
		certsURL: c.CertsURL,
		ttl:      c.CertsTTL,
		refresh:  c.RefreshInterval,
		client:   c.HTTPClient,
		now:      c.Now,
	}

	if v.certsURL == "" {
		v.certsURL = defaultCertsURL
	}
	if v.ttl <= 0 {
		v.ttl = defaultCertsTTL
	}
	if v.refresh <= 0 {
		v.refresh = defaultRefreshInterval
	}
	if v.now == nil {
		v.now = time.Now
	}
	if v.client == nil {
		v.client = &http.Client{Timeout: 10 * time.Second}
	}

	return v
}

func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodRS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}

		return v.key(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if err := c.verify(v.issuer, v.audience); err != nil {
		return nil, err
	}

	return c.identity()
}

// key returns the public key with the id. Stale certificates are refetched. An unknown id
// refetches only when the last fetch is older than the refresh interval. Concurrent refetches
// share one request.
func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	k, ok := v.keys[kid]
	fetched := v.fetchTime
	v.mu.RUnlock()

	age := v.now().Sub(fetched)
	fresh := !fetched.IsZero() && age < v.ttl
	switch {
	case ok && fresh:
		return k, nil
	case !ok && fresh && age < v.refresh:
		return nil, fmt.Errorf("unknown key id %q", kid)
	}

	keys, err := v.refreshKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch certificates: %w", err)
	}

	k, ok = keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return k, nil
}

func (v *FirebaseVerifier) refreshKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	res, err, _ := v.group.Do("certs", func() (any, error) {
		keys, err := v.fetchKeys(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		v.mu.Lock()
		v.keys = keys
		v.fetchTime = v.now()
		v.mu.Unlock()

		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return res.(map[string]*rsa.PublicKey), nil
}

func (v *FirebaseVerifier) fetchKeys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, v.certsURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var certs map[string]string
	if err := json.Unmarshal(body, &certs); err != nil {
		return nil, fmt.Errorf("decode certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		k, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, fmt.Errorf("parse certificate %s: %w", kid, err)
		}
		keys[kid] = k
	}

	return keys, nil
}

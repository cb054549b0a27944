package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victornm/techbridge/internal/auth"
	"github.com/victornm/techbridge/internal/domain"
)

const project = "tech-bridge-test"

type certServer struct {
	*httptest.Server
	key     *rsa.PrivateKey
	fetches atomic.Int32
}

func newCertServer(t *testing.T) *certServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	certs, err := json.Marshal(map[string]string{
		"k1": string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})),
	})
	require.NoError(t, err)

	s := &certServer{key: key}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fetches.Add(1)
		_, _ = w.Write(certs)
	}))
	t.Cleanup(s.Close)

	return s
}

func (s *certServer) sign(t *testing.T, kid string, mutate func(c jwt.MapClaims)) string {
	t.Helper()

	c := jwt.MapClaims{
		"iss":     "https://securetoken.google.com/" + project,
		"aud":     project,
		"sub":     "uid1",
		"name":    "Ada",
		"email":   "ada@example.com",
		"picture": "https://p/1.png",
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	if mutate != nil {
		mutate(c)
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	tok.Header["kid"] = kid
	signed, err := tok.SignedString(s.key)
	require.NoError(t, err)
	return signed
}

func TestFirebaseVerifier(t *testing.T) {
	srv := newCertServer(t)

	tests := map[string]struct {
		token   func(t *testing.T) string
		wantErr bool
	}{
		"valid token": {
			token: func(t *testing.T) string { return srv.sign(t, "k1", nil) },
		},
		"expired token": {
			token: func(t *testing.T) string {
				return srv.sign(t, "k1", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() })
			},
			wantErr: true,
		},
		"wrong audience": {
			token: func(t *testing.T) string {
				return srv.sign(t, "k1", func(c jwt.MapClaims) { c["aud"] = "other-project" })
			},
			wantErr: true,
		},
		"wrong issuer": {
			token: func(t *testing.T) string {
				return srv.sign(t, "k1", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com" })
			},
			wantErr: true,
		},
		"missing subject": {
			token: func(t *testing.T) string {
				return srv.sign(t, "k1", func(c jwt.MapClaims) { delete(c, "sub") })
			},
			wantErr: true,
		},
		"unknown key id": {
			token:   func(t *testing.T) string { return srv.sign(t, "k2", nil) },
			wantErr: true,
		},
		"hmac token": {
			token: func(t *testing.T) string {
				s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "uid1"}).SignedString([]byte("secret"))
				require.NoError(t, err)
				return s
			},
			wantErr: true,
		},
		"garbage": {
			token:   func(t *testing.T) string { return "not-a-token" },
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v := auth.NewFirebaseVerifier(auth.FirebaseConfig{ProjectID: project, CertsURL: srv.URL})

			id, err := v.Verify(context.Background(), tt.token(t))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, &domain.Identity{
				Subject: "uid1",
				Name:    "Ada",
				Email:   "ada@example.com",
				Picture: "https://p/1.png",
			}, id)
		})
	}
}

func TestFirebaseVerifier_CachesCertificates(t *testing.T) {
	srv := newCertServer(t)
	v := auth.NewFirebaseVerifier(auth.FirebaseConfig{ProjectID: project, CertsURL: srv.URL, CertsTTL: time.Hour})

	for i := 0; i < 3; i++ {
		_, err := v.Verify(context.Background(), srv.sign(t, "k1", nil))
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), srv.fetches.Load())
}

func TestFirebaseVerifier_LimitsRefetchOnUnknownKey(t *testing.T) {
	srv := newCertServer(t)

	var mu sync.Mutex
	clock := time.Now()
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(d)
	}

	v := auth.NewFirebaseVerifier(auth.FirebaseConfig{
		ProjectID:       project,
		CertsURL:        srv.URL,
		CertsTTL:        time.Hour,
		RefreshInterval: time.Minute,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return clock
		},
	})
	ctx := context.Background()

	_, err := v.Verify(ctx, srv.sign(t, "k1", nil))
	require.NoError(t, err)
	require.Equal(t, int32(1), srv.fetches.Load())

	forged := srv.sign(t, "forged", nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(ctx, forged)
			assert.Error(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), srv.fetches.Load(), "unknown ids within the interval should not refetch")

	advance(2 * time.Minute)
	_, err = v.Verify(ctx, forged)
	require.Error(t, err)
	assert.Equal(t, int32(2), srv.fetches.Load(), "one refetch once the interval has passed")

	_, err = v.Verify(ctx, srv.sign(t, "k1", nil))
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.fetches.Load(), "known ids keep using the cache")
}

func TestHMACVerifier(t *testing.T) {
	v := auth.NewHMACVerifier(auth.HMACConfig{Secret: "secret", Issuer: "techbridge", Audience: "web"})

	token, err := v.Sign(domain.Identity{Subject: "uid1", Name: "Ada"}, time.Hour)
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "uid1", id.Subject)
	assert.Equal(t, "Ada", id.Name)

	other := auth.NewHMACVerifier(auth.HMACConfig{Secret: "other", Issuer: "techbridge", Audience: "web"})
	_, err = other.Verify(context.Background(), token)
	assert.Error(t, err, "wrong secret")

	expired, err := v.Sign(domain.Identity{Subject: "uid1"}, -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(context.Background(), expired)
	assert.Error(t, err, "expired")
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	v := auth.NewHMACVerifier(auth.HMACConfig{Secret: "secret"})
	token, err := v.Sign(domain.Identity{Subject: "uid1", Email: "ada@example.com"}, time.Hour)
	require.NoError(t, err)

	tests := map[string]struct {
		header     string
		wantStatus int
	}{
		"valid bearer token":       {header: "Bearer " + token, wantStatus: http.StatusOK},
		"lowercase scheme":         {header: "bearer " + token, wantStatus: http.StatusOK},
		"missing header":           {wantStatus: http.StatusUnauthorized},
		"wrong scheme":             {header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		"empty token":              {header: "Bearer ", wantStatus: http.StatusUnauthorized},
		"token with bad signature": {header: "Bearer " + token + "x", wantStatus: http.StatusUnauthorized},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			e := gin.New()
			e.GET("/me", auth.Middleware(v), func(c *gin.Context) {
				id, ok := auth.IdentityFrom(c)
				require.True(t, ok)
				c.JSON(http.StatusOK, gin.H{"sub": id.Subject})
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"sub":"uid1"}`, w.Body.String())
				return
			}

			var body struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Message)
		})
	}
}

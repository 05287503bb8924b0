package ethauth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/ethauth/adapters/tokenizer"
	"github.com/layer-3/ethauth/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "dev"
	testApp    = "app-1"
	address    = "0x71c7656ec7ab88b098defb751b7401b5f6d8976f"
)

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func sign(t *testing.T, key *rsa.PrivateKey, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func registered(now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    testIssuer,
		Subject:   core.DeriveSubject(address),
		Audience:  jwt.ClaimStrings{testApp},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		ID:        "token-1",
	}
}

func TestVerifyIssuedToken(t *testing.T) {
	key := newKey(t)
	issuer, err := tokenizer.NewJWTTokenizer(key, testIssuer)
	require.NoError(t, err)

	now := time.Now().Truncate(time.Second)
	token, err := issuer.ClaimToToken(core.IdentityClaim{
		ID:        "token-1",
		Subject:   core.DeriveSubject(address),
		Audience:  testApp,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	require.NoError(t, err)

	pemData, err := issuer.PublicKeyPEM()
	require.NoError(t, err)
	publicKey, err := ParsePublicKeyPEM(pemData)
	require.NoError(t, err)

	identity, err := NewVerifier(publicKey, testIssuer, testApp).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "0f782c58-ab9e-510b-8389-1be5d8d19e60", identity.Subject)
	assert.Equal(t, "token-1", identity.TokenID)
	assert.True(t, identity.IssuedAt.Equal(now))
	assert.True(t, identity.ExpiresAt.Equal(now.Add(time.Hour)))
}

func TestVerifyRejects(t *testing.T) {
	key := newKey(t)
	now := time.Now()
	verifier := NewVerifier(&key.PublicKey, testIssuer, testApp)

	t.Run("other audience", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now)}
		claims.Audience = jwt.ClaimStrings{"app-2"}
		_, err := verifier.Verify(sign(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidAudience)
	})

	t.Run("other issuer", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now)}
		claims.Issuer = "elsewhere"
		_, err := verifier.Verify(sign(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now.Add(-2 * time.Hour))}
		_, err := verifier.Verify(sign(t, key, claims))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now)}
		claims.ExpiresAt = nil
		_, err := verifier.Verify(sign(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("no subject", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now)}
		claims.Subject = ""
		_, err := verifier.Verify(sign(t, key, claims))
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("legacy uuid claim", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now), UUID: core.DeriveSubject(address)}
		claims.Subject = ""
		identity, err := verifier.Verify(sign(t, key, claims))
		require.NoError(t, err)
		assert.Equal(t, core.DeriveSubject(address), identity.Subject)
	})

	t.Run("other key", func(t *testing.T) {
		claims := Claims{RegisteredClaims: registered(now)}
		_, err := verifier.Verify(sign(t, newKey(t), claims))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		token, err := jwt.NewWithClaims(jwt.SigningMethodES256, Claims{RegisteredClaims: registered(now)}).SignedString(ecKey)
		require.NoError(t, err)

		_, err = verifier.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidSigningMethod)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := verifier.Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestParsePublicKeyPEM(t *testing.T) {
	_, err := ParsePublicKeyPEM([]byte("not pem"))
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	key := newKey(t)
	verifier := NewVerifier(&key.PublicKey, testIssuer, testApp)

	router := gin.New()
	router.GET("/private", Middleware(verifier), func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"subject": identity.Subject})
	})

	request := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := request("Bearer " + sign(t, key, Claims{RegisteredClaims: registered(time.Now())}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"subject":"0f782c58-ab9e-510b-8389-1be5d8d19e60"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, request("").Code)
	assert.Equal(t, http.StatusUnauthorized, request("Basic abc").Code)

	w = request("Bearer " + sign(t, key, Claims{RegisteredClaims: registered(time.Now().Add(-2 * time.Hour))}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"token expired"}`, w.Body.String())
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(req)
	assert.ErrorIs(t, err, ErrMissingToken)

	req.Header.Set("Authorization", "Bearer abc")
	token, err := BearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", token)
}

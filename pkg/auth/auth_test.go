package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	h, err := HashPassword("hunter22")
	if err != nil {
		t.Fatal(err)
	}
	if h == "hunter22" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(h, "hunter22") {
		t.Fatal("expected password to match")
	}
	if CheckPassword(h, "hunter23") {
		t.Fatal("expected wrong password to fail")
	}
}

func TestRandomTokenLength(t *testing.T) {
	a, err := RandomToken(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := RandomToken(32)
	if len(a) != 64 || a == b {
		t.Fatalf("unexpected tokens %q %q", a, b)
	}
	if hashToken(a) == a || len(hashToken(a)) != 64 {
		t.Fatal("stored hash must differ from raw token")
	}
}

func TestAccessToken(t *testing.T) {
	tokens := NewTokens([]byte("secret"), 30*time.Minute)
	s, err := tokens.Issue(42)
	if err != nil {
		t.Fatal(err)
	}
	id, err := tokens.Parse(s)
	if err != nil || id != 42 {
		t.Fatalf("expected user 42, got %d (%v)", id, err)
	}

	other := NewTokens([]byte("other"), time.Minute)
	if _, err := other.Parse(s); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong key must fail, got %v", err)
	}

	if _, err := tokens.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage must fail, got %v", err)
	}
}

func TestAccessTokenExpiry(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Minute)
	past := time.Now().Add(-time.Hour)
	tokens.now = func() time.Time { return past }
	s, err := tokens.Issue(7)
	if err != nil {
		t.Fatal(err)
	}
	tokens.now = time.Now
	if _, err := tokens.Parse(s); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token must fail, got %v", err)
	}
}

func TestAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	tokens := NewTokens([]byte("secret"), time.Minute)
	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tokens.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("alg none must fail, got %v", err)
	}
	noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte("secret"))
	if _, err := tokens.Parse(noSub); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing subject must fail, got %v", err)
	}
}

func tokeninfoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("id_token") {
		case "good":
			_, _ = w.Write([]byte(`{"aud":"web-client","email":"ana@example.com","email_verified":"true","name":"Ana","picture":"https://img/ana.png","locale":"id"}`))
		case "unverified":
			_, _ = w.Write([]byte(`{"aud":"web-client","email":"eve@example.com","email_verified":"false"}`))
		case "noemail":
			_, _ = w.Write([]byte(`{"aud":"web-client"}`))
		case "otheraud":
			_, _ = w.Write([]byte(`{"aud":"someone-else","email":"bob@example.com","email_verified":"true"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error_description":"Invalid Value"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGoogleVerifier(t *testing.T) {
	srv := tokeninfoServer(t)
	ctx := context.Background()

	v := NewGoogleVerifier(srv.URL, []string{"web-client", "android-client"}, srv.Client())
	id, err := v.Verify(ctx, "good")
	if err != nil {
		t.Fatal(err)
	}
	if id.Email != "ana@example.com" || id.DisplayName() != "Ana" || id.Locale != "id" {
		t.Fatalf("unexpected identity %+v", id)
	}

	for _, tok := range []string{"", "bogus", "unverified", "noemail", "otheraud"} {
		if _, err := v.Verify(ctx, tok); !errors.Is(err, ErrInvalidGoogleToken) {
			t.Fatalf("token %q: expected ErrInvalidGoogleToken, got %v", tok, err)
		}
	}

	open := NewGoogleVerifier(srv.URL, nil, srv.Client())
	if _, err := open.Verify(ctx, "otheraud"); err != nil {
		t.Fatalf("any audience must be accepted without client ids: %v", err)
	}
}

func TestDisplayNameFallback(t *testing.T) {
	id := GoogleIdentity{Email: "budi.santoso@example.com"}
	if got := id.DisplayName(); got != "budi.santoso" {
		t.Fatalf("expected local part, got %q", got)
	}
	if !strings.Contains((&GoogleIdentity{Name: " Sri "}).DisplayName(), "Sri") {
		t.Fatal("expected trimmed name")
	}
}

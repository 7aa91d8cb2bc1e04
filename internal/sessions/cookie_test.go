package sessions

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieRoundTrip(t *testing.T) {
	svc, _ := testService(t)
	id := "9f2c1e48-7f9a-4a7c-a0d2-0d5a3a6b1c2d"

	cookie := svc.Cookie(id)
	assert.Equal(t, CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	assert.False(t, cookie.Secure, "Secure only outside development")

	assert.Equal(t, id, svc.ParseCookie(cookie.Value))
}

func TestCookieSecureInProduction(t *testing.T) {
	svc, cfg := testService(t)
	cfg.Env = "production"
	assert.True(t, svc.Cookie("abc").Secure)
}

func TestParseCookieRejectsTampering(t *testing.T) {
	svc, _ := testService(t)
	id := "session-id-under-test"
	value := svc.Cookie(id).Value
	dot := strings.Index(value, ".")
	require.Positive(t, dot)
	sig := value[dot+1:]

	cases := map[string]string{
		"no separator":       id + sig,
		"empty signature":    id + ".",
		"empty id":           "." + sig,
		"truncated sig":      id + "." + sig[:len(sig)-2],
		"extended sig":       id + "." + sig + "00",
		"flipped sig byte":   id + "." + flipHexDigit(sig),
		"non-hex signature":  id + ".zzzz",
		"different identity": "other-id." + sig,
	}
	for name, raw := range cases {
		assert.Empty(t, svc.ParseCookie(raw), name)
	}
}

func TestSignDeterministicPerSecret(t *testing.T) {
	svc, _ := testService(t)
	other, _ := testService(t)
	other.cfg.SessionSecret = "a-different-secret"

	assert.Equal(t, svc.Sign("abc"), svc.Sign("abc"))
	assert.NotEqual(t, svc.Sign("abc"), svc.Sign("abd"))
	assert.NotEqual(t, svc.Sign("abc"), other.Sign("abc"))
}

func flipHexDigit(s string) string {
	b := []byte(s)
	if b[0] == '0' {
		b[0] = '1'
	} else {
		b[0] = '0'
	}
	return string(b)
}

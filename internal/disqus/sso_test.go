package disqus

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/store"
)

func ssoSettings() *store.Settings {
	s := &store.Settings{Domain: "x.example"}
	s.Advanced.PublicKey = "pub"
	s.Advanced.SecretKey = "sekrit"
	s.Advanced.SSO = store.SSOSettings{
		Enabled:  true,
		Name:     "Example",
		LoginURL: "https://example.com/login",
		Button:   "https://example.com/button.png",
	}
	return s
}

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func TestSignedSSO_IdentifiedViewer(t *testing.T) {
	p := &SignedSSO{Now: fixedClock}

	fields, err := p.SSOFields(context.Background(), ssoSettings(), alice)
	require.NoError(t, err)

	assert.Equal(t, "pub", fields[SSOFieldAPIKey])
	assert.Equal(t, "Example", fields[SSOFieldName])
	assert.Equal(t, "https://example.com/login", fields[SSOFieldLoginURL])
	assert.Equal(t, "https://example.com/button.png", fields[SSOFieldButton])
	assert.NotContains(t, fields, SSOFieldLogoutURL, "unset optional fields are omitted")
	assert.NotContains(t, fields, SSOFieldIcon)

	parts := strings.Split(fields[SSOFieldRemoteAuth], " ")
	require.Len(t, parts, 3)
	assert.Equal(t, "1700000000", parts[2])

	payload, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7","username":"alice","email":"a@x.com"}`, string(payload))

	mac := hmac.New(sha1.New, []byte("sekrit"))
	mac.Write([]byte(parts[0] + " " + parts[2]))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), parts[1])
}

func TestSignedSSO_AnonymousViewer(t *testing.T) {
	fields, err := (&SignedSSO{Now: fixedClock}).SSOFields(context.Background(), ssoSettings(), auth.Anonymous())
	require.NoError(t, err)

	parts := strings.Split(fields[SSOFieldRemoteAuth], " ")
	require.Len(t, parts, 3)
	payload, err := base64.StdEncoding.DecodeString(parts[0])
	require.NoError(t, err)
	assert.Equal(t, "{}", string(payload))
}

func TestSignedSSO_MissingKeys(t *testing.T) {
	for _, mutate := range []func(*store.Settings){
		func(s *store.Settings) { s.Advanced.PublicKey = "" },
		func(s *store.Settings) { s.Advanced.SecretKey = "" },
	} {
		s := ssoSettings()
		mutate(s)
		_, err := (&SignedSSO{}).SSOFields(context.Background(), s, alice)
		assert.ErrorIs(t, err, ErrSSONotConfigured)
	}
}

func TestCompose_WithSignedSSO(t *testing.T) {
	res, err := Compose(context.Background(), baseRequest(), Env{
		Settings: ssoSettings(),
		Viewer:   alice,
		SSO:      &SignedSSO{Now: fixedClock},
	})
	require.NoError(t, err)
	assert.Equal(t, "pub", res.Config.SSO[SSOFieldAPIKey])

	s := ssoSettings()
	s.Advanced.SecretKey = ""
	_, err = Compose(context.Background(), baseRequest(), Env{Settings: s, SSO: &SignedSSO{}})
	assert.ErrorIs(t, err, ErrSSOUnavailable)
	assert.ErrorIs(t, err, ErrSSONotConfigured)
}

// ABOUTME: Single sign-on fields for the widget, signed with the site's API secret
// ABOUTME: Produces remote_auth_s3 as "<base64 payload> <hex hmac-sha1> <timestamp>"

package disqus

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/2389/disqus-embed/internal/auth"
	"github.com/2389/disqus-embed/internal/store"
)

// SSO errors
var (
	ErrSSOUnavailable   = errors.New("sso provider unavailable")
	ErrSSONotConfigured = errors.New("sso requires public and secret keys")
)

// SSO field names understood by the widget script
const (
	SSOFieldAPIKey     = "api_key"
	SSOFieldRemoteAuth = "remote_auth_s3"
	SSOFieldName       = "sso_name"
	SSOFieldLoginURL   = "sso_login_url"
	SSOFieldLogoutURL  = "sso_logout_url"
	SSOFieldButton     = "sso_button"
	SSOFieldIcon       = "sso_icon"
)

// SSOProvider supplies the single sign-on keys merged into WidgetConfig.
type SSOProvider interface {
	SSOFields(ctx context.Context, settings *store.Settings, viewer auth.Viewer) (map[string]string, error)
}

// SignedSSO signs the viewer's identity with the configured secret key.
type SignedSSO struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// SSOFields implements SSOProvider.
func (s *SignedSSO) SSOFields(ctx context.Context, settings *store.Settings, viewer auth.Viewer) (map[string]string, error) {
	adv := settings.Advanced
	if adv.PublicKey == "" || adv.SecretKey == "" {
		return nil, ErrSSONotConfigured
	}

	now := time.Now
	if s != nil && s.Now != nil {
		now = s.Now
	}

	remoteAuth, err := signRemoteAuth(viewer, adv.SecretKey, now())
	if err != nil {
		return nil, err
	}

	fields := map[string]string{
		SSOFieldAPIKey:     adv.PublicKey,
		SSOFieldRemoteAuth: remoteAuth,
	}
	optional := []struct{ key, value string }{
		{SSOFieldName, adv.SSO.Name},
		{SSOFieldLoginURL, adv.SSO.LoginURL},
		{SSOFieldLogoutURL, adv.SSO.LogoutURL},
		{SSOFieldButton, adv.SSO.Button},
		{SSOFieldIcon, adv.SSO.Icon},
	}
	for _, f := range optional {
		if f.value != "" {
			fields[f.key] = f.value
		}
	}
	return fields, nil
}

// ssoUser is the identity payload. Anonymous viewers send an empty object,
// which logs them out of the widget.
type ssoUser struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

func signRemoteAuth(viewer auth.Viewer, secret string, at time.Time) (string, error) {
	var user ssoUser
	if !viewer.IsAnonymous() {
		user = ssoUser{ID: viewer.ID, Username: viewer.AccountName, Email: viewer.Email}
	}

	payload, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encoding sso payload: %w", err)
	}

	message := base64.StdEncoding.EncodeToString(payload)
	timestamp := strconv.FormatInt(at.Unix(), 10)

	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(message + " " + timestamp))
	signature := hex.EncodeToString(mac.Sum(nil))

	return message + " " + signature + " " + timestamp, nil
}

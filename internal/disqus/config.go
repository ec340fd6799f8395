// ABOUTME: WidgetConfig, the settings object handed to the client-side widget script
// ABOUTME: JSON encoding flattens SSO keys into the top level, last write wins

package disqus

import (
	"encoding/json"
)

// WidgetConfig is built additively by Compose; fields are never cleared.
type WidgetConfig struct {
	Domain     string
	URL        string
	Title      string
	Identifier string
	Name       string
	Email      string
	Language   string
	SSO        map[string]string
	Callbacks  Callbacks

	// identified and localized record that the identity and language
	// steps set their keys, which may legitimately be empty.
	identified bool
	localized  bool
}

// setIdentity sets the viewer keys.
func (c *WidgetConfig) setIdentity(name, email string) {
	c.Name = name
	c.Email = email
	c.identified = true
}

// setLanguage sets the language key.
func (c *WidgetConfig) setLanguage(lang string) {
	c.Language = lang
	c.localized = true
}

// setSSO merges one SSO-provided key.
func (c *WidgetConfig) setSSO(key, value string) {
	if c.SSO == nil {
		c.SSO = make(map[string]string)
	}
	c.SSO[key] = value
}

// appendCallback adds ref to the end of event's list, creating it if needed.
func (c *WidgetConfig) appendCallback(event, ref string) {
	if c.Callbacks == nil {
		c.Callbacks = make(Callbacks)
	}
	c.Callbacks[event] = append(c.Callbacks[event], ref)
}

// Fields returns the flat key/value form the widget script consumes.
// Keys are written in composition order so SSO keys override earlier ones.
func (c WidgetConfig) Fields() map[string]any {
	out := map[string]any{
		"domain":     c.Domain,
		"url":        c.URL,
		"title":      c.Title,
		"identifier": c.Identifier,
	}
	if c.identified {
		out["name"] = c.Name
		out["email"] = c.Email
	}
	if c.localized {
		out["language"] = c.Language
	}
	for k, v := range c.SSO {
		out[k] = v
	}
	if len(c.Callbacks) > 0 {
		out["callbacks"] = c.Callbacks
	}
	return out
}

// MarshalJSON encodes Fields.
func (c WidgetConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}

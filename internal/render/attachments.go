// ABOUTME: Page attachments produced by fragments: script libraries and client settings
// ABOUTME: Libraries form an ordered set; settings merge by top-level key

package render

import "slices"

// Attachments are the assets and client-side settings a fragment needs on
// the page that contains it.
type Attachments struct {
	// Library is an ordered set of asset identifiers such as "disqus/disqus".
	Library []string `json:"library,omitempty"`
	// Settings are serialized into the page for client scripts.
	Settings map[string]any `json:"settings,omitempty"`
}

// AddLibrary appends an asset identifier unless it is already attached.
func (a *Attachments) AddLibrary(id string) {
	if !slices.Contains(a.Library, id) {
		a.Library = append(a.Library, id)
	}
}

// SetSetting sets a top-level client setting.
func (a *Attachments) SetSetting(key string, value any) {
	if a.Settings == nil {
		a.Settings = make(map[string]any)
	}
	a.Settings[key] = value
}

// Merge adds the libraries and settings of other. Settings from other
// replace same-named keys.
func (a *Attachments) Merge(other Attachments) {
	for _, id := range other.Library {
		a.AddLibrary(id)
	}
	for k, v := range other.Settings {
		a.SetSetting(k, v)
	}
}

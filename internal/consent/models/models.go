package models

import (
	"encoding/json"
	"fmt"

	dErrors "sapid/pkg/domain-errors"
)

// Category names a class of cookies the visitor can allow or refuse.
type Category string

const (
	CategoryNecessary   Category = "necessary"
	CategoryAnalytics   Category = "analytics"
	CategoryMarketing   Category = "marketing"
	CategoryPreferences Category = "preferences"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryNecessary, CategoryAnalytics, CategoryMarketing, CategoryPreferences}

// ParseCategory converts an untrusted string into a Category.
func ParseCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategoryNecessary, CategoryAnalytics, CategoryMarketing, CategoryPreferences:
		return c, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown cookie category %q", s))
}

// Preferences is the visitor's consent decision. Necessary is always true.
type Preferences struct {
	Necessary   bool `json:"necessary"`
	Analytics   bool `json:"analytics"`
	Marketing   bool `json:"marketing"`
	Preferences bool `json:"preferences"`
}

// DefaultPreferences allows only necessary cookies.
func DefaultPreferences() Preferences {
	return Preferences{Necessary: true}
}

func AllAccepted() Preferences {
	return Preferences{Necessary: true, Analytics: true, Marketing: true, Preferences: true}
}

func AllRejected() Preferences {
	return DefaultPreferences()
}

// Toggle returns a copy with c flipped. Necessary cannot be turned off.
func (p Preferences) Toggle(c Category) Preferences {
	switch c {
	case CategoryAnalytics:
		p.Analytics = !p.Analytics
	case CategoryMarketing:
		p.Marketing = !p.Marketing
	case CategoryPreferences:
		p.Preferences = !p.Preferences
	}
	return p
}

// Allowed reports whether cookies of category c may be set.
func (p Preferences) Allowed(c Category) bool {
	switch c {
	case CategoryNecessary:
		return true
	case CategoryAnalytics:
		return p.Analytics
	case CategoryMarketing:
		return p.Marketing
	case CategoryPreferences:
		return p.Preferences
	}
	return false
}

// UIState is the consent prompt's visibility.
type UIState string

const (
	UIHidden        UIState = "hidden"
	UIBannerVisible UIState = "banner_visible"
	UISettingsOpen  UIState = "settings_open"
)

// Snapshot is what the presentation layer renders.
type Snapshot struct {
	Preferences Preferences `json:"preferences"`
	UIState     UIState     `json:"ui_state"`
	Recorded    bool        `json:"recorded"`
}

// ShowBanner and ShowSettings mirror the two render flags of the prompt.
func (s Snapshot) ShowBanner() bool   { return s.UIState == UIBannerVisible }
func (s Snapshot) ShowSettings() bool { return s.UIState == UISettingsOpen }

// StorageKeyPrefix prefixes every persisted consent blob.
const StorageKeyPrefix = "cookie-consent"

// StorageKey returns the blob key for a visitor.
func StorageKey(visitorID string) string {
	return StorageKeyPrefix + ":" + visitorID
}

// Encode serializes preferences into the persisted blob.
func Encode(p Preferences) ([]byte, error) {
	p.Necessary = true
	return json.Marshal(p)
}

// Decode parses a persisted blob. Blobs that are not a JSON object with
// boolean category fields are rejected.
func Decode(blob []byte) (Preferences, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return Preferences{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed consent blob")
	}
	if raw == nil {
		return Preferences{}, dErrors.New(dErrors.CodeInvalidInput, "malformed consent blob")
	}
	var p Preferences
	if err := json.Unmarshal(blob, &p); err != nil {
		return Preferences{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed consent blob")
	}
	p.Necessary = true
	return p, nil
}

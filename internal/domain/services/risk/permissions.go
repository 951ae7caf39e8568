package risk

import (
	"strings"
)

// Tier is a permission severity level
type Tier int

const (
	TierAstronomical Tier = iota
	TierCritical
	TierHigh
	TierMedium
	TierLow
	TierNone
)

func (t Tier) String() string {
	switch t {
	case TierAstronomical:
		return "astronomical"
	case TierCritical:
		return "critical"
	case TierHigh:
		return "high"
	case TierMedium:
		return "medium"
	case TierLow:
		return "low"
	}
	return "none"
}

// Weight returns the severity points of the tier
func (t Tier) Weight() float64 {
	switch t {
	case TierAstronomical:
		return 100
	case TierCritical:
		return 10
	case TierHigh:
		return 7.5
	case TierMedium:
		return 5
	case TierLow:
		return 2.5
	}
	return 0
}

// Tiers lists the scored tiers in lookup order
var Tiers = []Tier{TierAstronomical, TierCritical, TierHigh, TierMedium, TierLow}

const perm = "android.permission."

// permissionTiers holds the stack-ranked permissions per tier
var permissionTiers = map[Tier][]string{
	TierAstronomical: {
		perm + "INSTALL_PACKAGES",
	},
	TierCritical: {
		perm + "COPY_PROTECTED_DATA",
		perm + "WRITE_SECURE_SETTINGS",
		perm + "READ_FRAME_BUFFER",
		perm + "MANAGE_CA_CERTIFICATES",
		perm + "MANAGE_APP_OPS_MODES",
		perm + "GRANT_RUNTIME_PERMISSIONS",
		perm + "DUMP",
		perm + "CAMERA",
		perm + "SYSTEM_CAMERA",
		perm + "MANAGE_PROFILE_AND_DEVICE_OWNERS",
		perm + "MOUNT_UNMOUNT_FILESYSTEMS",
	},
	TierHigh: {
		perm + "INSTALL_GRANT_RUNTIME_PERMISSIONS",
		perm + "READ_SMS",
		perm + "WRITE_SMS",
		perm + "RECEIVE_MMS",
		perm + "SEND_SMS_NO_CONFIRMATION",
		perm + "RECEIVE_SMS",
		perm + "READ_LOGS",
		perm + "READ_PRIVILEGED_PHONE_STATE",
		perm + "LOCATION_HARDWARE",
		perm + "ACCESS_FINE_LOCATION",
		perm + "ACCESS_BACKGROUND_LOCATION",
		perm + "BIND_ACCESSIBILITY_SERVICE",
		perm + "ACCESS_WIFI_STATE",
		"com.android.voicemail.permission.READ_VOICEMAIL",
		perm + "RECORD_AUDIO",
		perm + "CAPTURE_AUDIO_OUTPUT",
		perm + "ACCESS_NOTIFICATIONS",
		perm + "INTERACT_ACROSS_USERS_FULL",
		perm + "BLUETOOTH_PRIVILEGED",
		perm + "GET_PASSWORD",
		perm + "INTERNAL_SYSTEM_WINDOW",
	},
	TierMedium: {
		perm + "ACCESS_COARSE_LOCATION",
		perm + "CHANGE_COMPONENT_ENABLED_STATE",
		perm + "READ_CONTACTS",
		perm + "WRITE_CONTACTS",
		perm + "CONNECTIVITY_INTERNAL",
		perm + "ACCESS_MEDIA_LOCATION",
		perm + "READ_EXTERNAL_STORAGE",
		perm + "WRITE_EXTERNAL_STORAGE",
		perm + "SYSTEM_ALERT_WINDOW",
		perm + "READ_CALL_LOG",
		perm + "WRITE_CALL_LOG",
		perm + "INTERACT_ACROSS_USERS",
		perm + "MANAGE_USERS",
		perm + "READ_CALENDAR",
		perm + "BLUETOOTH_ADMIN",
		perm + "BODY_SENSORS",
	},
	TierLow: {
		perm + "DOWNLOAD_WITHOUT_NOTIFICATION",
		perm + "PACKAGE_USAGE_STATS",
		perm + "MASTER_CLEAR",
		perm + "DELETE_PACKAGES",
		perm + "GET_PACKAGE_SIZE",
		perm + "BLUETOOTH",
		perm + "DEVICE_POWER",
	},
}

// Catalog maps permission names to severity tiers
type Catalog struct {
	tiers map[Tier][]string
	index map[string]Tier
}

// NewCatalog builds a catalog. A permission listed under several tiers takes the first in Tiers order.
func NewCatalog(tiers map[Tier][]string) *Catalog {
	c := &Catalog{
		tiers: tiers,
		index: make(map[string]Tier),
	}
	for _, tier := range Tiers {
		for _, name := range tiers[tier] {
			if _, seen := c.index[name]; !seen {
				c.index[name] = tier
			}
		}
	}
	return c
}

// DefaultCatalog returns the built-in permission ranking
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

var defaultCatalog = NewCatalog(permissionTiers)

// TierOf returns the tier governing a permission, TierNone if unranked
func (c *Catalog) TierOf(name string) Tier {
	if t, ok := c.index[name]; ok {
		return t
	}
	return TierNone
}

// Weight returns the severity points of a permission
func (c *Catalog) Weight(name string) float64 {
	return c.TierOf(name).Weight()
}

// Members returns the permissions listed under a tier
func (c *Catalog) Members(tier Tier) []string {
	return append([]string(nil), c.tiers[tier]...)
}

// Overlaps returns permissions that appear in more than one tier, with every tier they appear in
func (c *Catalog) Overlaps() map[string][]Tier {
	seen := make(map[string][]Tier)
	for _, tier := range Tiers {
		for _, name := range c.tiers[tier] {
			seen[name] = append(seen[name], tier)
		}
	}
	out := make(map[string][]Tier)
	for name, tiers := range seen {
		if len(tiers) > 1 {
			out[name] = tiers
		}
	}
	return out
}

// FairScore is a permission score that counts each permission group once
type FairScore struct {
	Generic  float64
	Location float64
	SMS      float64
}

// Total sums the components
func (s FairScore) Total() float64 {
	return s.Generic + s.Location + s.SMS
}

// FairScore scores a permission set. Location and SMS permissions only
// contribute their most severe member; everything else is summed.
func (c *Catalog) FairScore(permissions []string) FairScore {
	var s FairScore
	for _, p := range permissions {
		w := c.Weight(p)
		switch {
		case strings.Contains(p, "LOCATION"):
			s.Location = max(s.Location, w)
		case strings.Contains(p, "SMS"):
			s.SMS = max(s.SMS, w)
		default:
			s.Generic += w
		}
	}
	return s
}

// NaiveScore sums the weights of all permissions without grouping
func (c *Catalog) NaiveScore(permissions []string) float64 {
	var total float64
	for _, p := range permissions {
		total += c.Weight(p)
	}
	return total
}

// Weight returns the severity points of a permission in the default catalog
func Weight(name string) float64 {
	return defaultCatalog.Weight(name)
}

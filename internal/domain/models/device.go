package models

import (
	"slices"
	"sort"
)

// Well-known Android identifiers used across the risk metrics
const (
	FrameworkPackage     = "android"
	SystemSharedUID      = "android.uid.system"
	PermissionInternet   = "android.permission.INTERNET"
	PermissionInstallPkg = "android.permission.INSTALL_PACKAGES"
)

// BuildInfo describes the platform build of a captured device
type BuildInfo struct {
	APILevel    int    `json:"apiLevel"`
	Fingerprint string `json:"fingerprint"`
}

// HardwareInfo describes the manufacturer and model of a captured device
type HardwareInfo struct {
	OEM     string `json:"oem"`
	Brand   string `json:"brand"`
	Model   string `json:"modelName"`
	Product string `json:"productName"`
}

// PackageRecord is a normalized view of one installed package
type PackageRecord struct {
	Name                  string   `json:"name"`
	CertIDs               []string `json:"certIds"`
	SharedUserID          *string  `json:"sharedUserId"`
	HasCode               bool     `json:"hasCode"`
	PermissionsGranted    []string `json:"permissionsGranted"`
	PermissionsNotGranted []string `json:"permissionsNotGranted"`
	PermissionsSpecial    []string `json:"permissionsSpecial"`
	UsesCleartextTraffic  bool     `json:"usesCleartextTraffic"`
}

// PrimarySigner returns the first signing certificate, or "" if the package is unsigned
func (p *PackageRecord) PrimarySigner() string {
	if len(p.CertIDs) == 0 {
		return ""
	}
	return p.CertIDs[0]
}

// SignedBy reports whether cert appears anywhere in the package's signer list
func (p *PackageRecord) SignedBy(cert string) bool {
	if cert == "" {
		return false
	}
	return slices.Contains(p.CertIDs, cert)
}

// HasGranted reports whether permission is in the granted set
func (p *PackageRecord) HasGranted(permission string) bool {
	return slices.Contains(p.PermissionsGranted, permission)
}

// SharedUID returns the shared user id or "" when the package has none
func (p *PackageRecord) SharedUID() string {
	if p.SharedUserID == nil {
		return ""
	}
	return *p.SharedUserID
}

// DeviceRecord is the read-only input of a scoring session
type DeviceRecord struct {
	Packages []PackageRecord `json:"packages"`
	Build    BuildInfo       `json:"build"`
	Hardware HardwareInfo    `json:"hardware"`
}

// APILevel returns the platform API level of the build
func (d *DeviceRecord) APILevel() int {
	return d.Build.APILevel
}

// OEM returns the manufacturer string used to select a whitelist
func (d *DeviceRecord) OEM() string {
	return d.Hardware.OEM
}

// PlatformSignature returns the primary certificate of the framework package.
// It is "" when the framework package was not captured.
func (d *DeviceRecord) PlatformSignature() string {
	for i := range d.Packages {
		if d.Packages[i].Name == FrameworkPackage {
			return d.Packages[i].PrimarySigner()
		}
	}
	return ""
}

// Package looks up a package by name
func (d *DeviceRecord) Package(name string) (*PackageRecord, bool) {
	for i := range d.Packages {
		if d.Packages[i].Name == name {
			return &d.Packages[i], true
		}
	}
	return nil, false
}

// PackageNames lists package names in capture order, optionally only code-bearing ones
func (d *DeviceRecord) PackageNames(codeOnly bool) []string {
	names := make([]string, 0, len(d.Packages))
	for _, pkg := range d.Packages {
		if !codeOnly || pkg.HasCode {
			names = append(names, pkg.Name)
		}
	}
	return names
}

// PlatformPackageNames lists packages signed with the platform key, optionally only code-bearing ones
func (d *DeviceRecord) PlatformPackageNames(codeOnly bool) []string {
	sig := d.PlatformSignature()
	names := make([]string, 0)
	for _, pkg := range d.Packages {
		if !pkg.SignedBy(sig) {
			continue
		}
		if !codeOnly || pkg.HasCode {
			names = append(names, pkg.Name)
		}
	}
	return names
}

// SharedUIDGroup is one shared user id and its member packages
type SharedUIDGroup struct {
	UID      string
	Packages []string
}

// SharedUIDGroups returns the platform-signed packages that declare a shared
// user id, grouped by uid. Groups are sorted by uid; members keep capture order.
func (d *DeviceRecord) SharedUIDGroups() []SharedUIDGroup {
	sig := d.PlatformSignature()
	members := make(map[string][]string)
	for _, pkg := range d.Packages {
		uid := pkg.SharedUID()
		if uid == "" || !pkg.SignedBy(sig) {
			continue
		}
		members[uid] = append(members[uid], pkg.Name)
	}

	groups := make([]SharedUIDGroup, 0, len(members))
	for uid, names := range members {
		groups = append(groups, SharedUIDGroup{UID: uid, Packages: names})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].UID < groups[j].UID })
	return groups
}

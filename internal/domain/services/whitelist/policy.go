// Package whitelist holds the OEM-specific exclusion policies, the GMS
// package registry and the fuzzy package-name matcher used by every risk
// metric.
package whitelist

import (
	"maps"
	"slices"
	"sync"

	"uraniborg-lab/internal/domain/models"
)

// Policy is the set of exclusions that apply to one OEM.
// A Policy is immutable after construction.
type Policy struct {
	name       string
	excluded   map[string]struct{}
	installers map[string]string
}

// Override extends a base policy: exclusions are unioned, installer certs are merged by name
type Override struct {
	ExcludedPackages  []string          `yaml:"excluded_packages"`
	InstallerPackages map[string]string `yaml:"installer_packages"`
}

// Name returns the policy variant name
func (p *Policy) Name() string {
	return p.name
}

// IsExcluded reports whether the package is removed from all metrics
func (p *Policy) IsExcluded(name string) bool {
	_, ok := p.excluded[name]
	return ok
}

// ExcludedPackages returns the sorted exclusion set
func (p *Policy) ExcludedPackages() []string {
	return slices.Sorted(maps.Keys(p.excluded))
}

// InstallerPackages returns a copy of the installer name to certificate map
func (p *Policy) InstallerPackages() map[string]string {
	return maps.Clone(p.installers)
}

// ExpectedInstallerCert returns the registered signer of an official store client
func (p *Policy) ExpectedInstallerCert(name string) (string, bool) {
	cert, ok := p.installers[name]
	return cert, ok
}

// CheckInstaller tells whether pkg is this OEM's official store client.
// A listed installer signed by another certificate is not trusted and the
// mismatch is returned for the caller to report; the package must then
// be scored like any other.
func (p *Policy) CheckInstaller(pkg *models.PackageRecord) (trusted bool, mismatch *models.PolicyMismatch) {
	expected, ok := p.installers[pkg.Name]
	if !ok {
		return false, nil
	}
	actual := pkg.PrimarySigner()
	if actual == expected {
		return true, nil
	}
	return false, &models.PolicyMismatch{
		Kind:     models.MismatchInstaller,
		Package:  pkg.Name,
		Expected: expected,
		Actual:   actual,
	}
}

// Extend returns a new policy composed of p and the override
func (p *Policy) Extend(name string, o Override) *Policy {
	out := &Policy{
		name:       name,
		excluded:   maps.Clone(p.excluded),
		installers: maps.Clone(p.installers),
	}
	for _, pkg := range o.ExcludedPackages {
		out.excluded[pkg] = struct{}{}
	}
	maps.Copy(out.installers, o.InstallerPackages)
	return out
}

const playStoreCert = "f0fd6c5b410f25cb25c3b53346c8972fae30f8ee7411df910480ad6b2d60db83"

// defaultPolicy excludes the framework package and the observer app, and
// trusts the Play Store client since it is required by MADA. Third-party
// installers never belong here.
func defaultPolicy() *Policy {
	return &Policy{
		name: "default",
		excluded: map[string]struct{}{
			models.FrameworkPackage: {},
			"com.uraniborg.hubble":  {},
		},
		installers: map[string]string{
			"com.android.vending": playStoreCert,
		},
	}
}

// oemOverrides maps the exact Build.MANUFACTURER string to its variant
var oemOverrides = map[string]struct {
	variant  string
	override Override
}{
	"Google": {"google", Override{
		ExcludedPackages: []string{"com.android.safetyregulatoryinfo"},
	}},
	"samsung": {"samsung", Override{
		ExcludedPackages: []string{"com.samsung.safetyinformation"},
		InstallerPackages: map[string]string{
			"com.sec.android.app.samsungapps": "fba3af4e7757d9016e953fb3ee4671ca2bd9af725f9a53d52ed4a38eaaa08901",
		},
	}},
	"HUAWEI": {"huawei", Override{
		InstallerPackages: map[string]string{
			"com.huawei.appmarket": "ffe391e0ea186d0734ed601e4e70e3224b7309d48e2075bac46d8c667eae7212",
		},
	}},
	"HMD Global": {"nokia", Override{
		ExcludedPackages: []string{"com.hmdglobal.app.legalinformation"},
	}},
	"Sony":     {"sony", Override{}},
	"motorola": {"motorola", Override{}},
	"asus":     {"asus", Override{}},
	"OnePlus":  {"oneplus", Override{}},
}

// Registry resolves OEM strings to policies. The zero value is not usable; use NewRegistry.
type Registry struct {
	mu       sync.RWMutex
	base     *Policy
	policies map[string]*Policy
}

// NewRegistry builds the built-in variants and applies overlays on top of them.
// Overlay keys are OEM strings; an overlay for the key "default" extends every variant.
func NewRegistry(overlays map[string]Override) *Registry {
	base := defaultPolicy()
	if o, ok := overlays[DefaultOEM]; ok {
		base = base.Extend(base.name, o)
	}

	r := &Registry{
		base:     base,
		policies: make(map[string]*Policy, len(oemOverrides)),
	}
	for oem, v := range oemOverrides {
		r.policies[oem] = base.Extend(v.variant, v.override)
	}
	for oem, o := range overlays {
		if oem == DefaultOEM {
			continue
		}
		if p, ok := r.policies[oem]; ok {
			r.policies[oem] = p.Extend(p.name, o)
			continue
		}
		r.policies[oem] = base.Extend(oem, o)
	}
	return r
}

// DefaultOEM is the overlay key that targets the default policy
const DefaultOEM = "default"

// Get returns the policy for an exact, case-sensitive OEM match, else the default policy
func (r *Registry) Get(oem string) *Policy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.policies[oem]; ok {
		return p
	}
	return r.base
}

// OEMs returns the sorted list of OEM strings with a dedicated policy
func (r *Registry) OEMs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.policies))
}

var builtin = NewRegistry(nil)

// GetWhitelist returns the built-in policy for the OEM. Unknown OEMs get the default policy.
func GetWhitelist(oem string) *Policy {
	return builtin.Get(oem)
}

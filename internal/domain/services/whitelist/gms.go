package whitelist

import (
	"maps"

	"uraniborg-lab/internal/domain/models"
)

const (
	gmsReleaseCert = "f0fd6c5b410f25cb25c3b53346c8972fae30f8ee7411df910480ad6b2d60db83"
	gmsMediaCert   = "3d7a1223019aa39d9ea0e3436ab7c0896bfb4fb679f4de5fe7c23f326c8f994a"
)

// gmsPackages maps Google Mobile Services packages to their expected signer.
// Needs updating if Google rotates these certificates.
var gmsPackages = map[string]string{
	"com.google.android.gms":                  gmsReleaseCert, // gmscore
	"com.google.android.apps.docs":            gmsReleaseCert, // Drive
	"com.google.android.youtube":              gmsMediaCert,
	"com.android.vending":                     gmsReleaseCert, // Play Store client
	"com.android.chrome":                      gmsReleaseCert,
	"com.google.android.apps.photos":          gmsMediaCert,
	"com.google.android.apps.maps":            gmsReleaseCert,
	"com.google.android.gm":                   gmsReleaseCert, // Gmail
	"com.google.android.gsf":                  gmsReleaseCert, // Services Framework
	"com.google.android.googlequicksearchbox": gmsReleaseCert,
	"com.google.android.setupwizard":          gmsReleaseCert,
	"com.google.android.calendar":             gmsReleaseCert,
	"com.google.android.videos":               gmsMediaCert, // Movies
}

// GMSPackages returns a copy of the registry
func GMSPackages() map[string]string {
	return maps.Clone(gmsPackages)
}

// IsGMSListed reports whether the name is a registered GMS package, regardless of signer
func IsGMSListed(name string) bool {
	_, ok := gmsPackages[name]
	return ok
}

// CheckGMS tells whether pkg is a genuine GMS package. A registered name
// with a different primary signer yields a mismatch; such packages are
// scored normally.
func CheckGMS(pkg *models.PackageRecord) (genuine bool, mismatch *models.PolicyMismatch) {
	expected, ok := gmsPackages[pkg.Name]
	if !ok {
		return false, nil
	}
	actual := pkg.PrimarySigner()
	if actual == expected {
		return true, nil
	}
	return false, &models.PolicyMismatch{
		Kind:     models.MismatchGMS,
		Package:  pkg.Name,
		Expected: expected,
		Actual:   actual,
	}
}

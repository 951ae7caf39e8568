package risk

import "uraniborg-lab/internal/domain/models"

// cleartextTraffic counts packages that allow cleartext traffic and can actually reach the network
func (a *Analyzer) cleartextTraffic(t *Target, normalize bool) (float64, []string) {
	var (
		count   float64
		related []string
	)
	for i := range t.Device.Packages {
		pkg := &t.Device.Packages[i]

		if a.skipExcluded(t, pkg.Name) {
			continue
		}
		if normalize && a.skipBaseline(pkg.Name, t.Baseline.PackagesAll()) {
			continue
		}
		if a.skipGMS(pkg) {
			continue
		}
		if !pkg.HasCode {
			a.trace(markSkipped, pkg.Name, "has no code")
			continue
		}
		if !pkg.UsesCleartextTraffic {
			continue
		}
		// the flag defaults to true, so without INTERNET it is a false positive
		if !pkg.HasGranted(models.PermissionInternet) {
			a.trace(markDiscounted, pkg.Name, "cleartext without internet permission")
			continue
		}

		count++
		related = append(related, pkg.Name)
		a.trace(markCounted, pkg.Name, "uses cleartext traffic")
	}
	return count, related
}

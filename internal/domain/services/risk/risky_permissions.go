package risk

// riskyPermissions sums the fair permission score of pre-granted and special
// permissions across non-platform preloaded packages.
//
// Packages that fuzzy-match a baseline package are skipped outright rather
// than scored on their permission difference.
func (a *Analyzer) riskyPermissions(t *Target, normalize bool) (float64, []string) {
	var (
		granted, ungranted float64
		related            []string
	)
	for i := range t.Device.Packages {
		pkg := &t.Device.Packages[i]

		if t.Platform.Apps.Has(pkg.Name) {
			a.trace(markSkipped, pkg.Name, "platform signed")
			continue
		}
		if a.skipExcluded(t, pkg.Name) {
			continue
		}
		if a.skipInstaller(t, pkg) {
			continue
		}
		if normalize && a.skipBaseline(pkg.Name, t.Baseline.PackagesAll()) {
			continue
		}
		if !pkg.HasCode {
			a.trace(markSkipped, pkg.Name, "has no code")
			continue
		}
		if a.skipGMS(pkg) {
			continue
		}

		fair := a.catalog.FairScore(pkg.PermissionsGranted)
		var special float64
		for _, p := range pkg.PermissionsSpecial {
			special += a.catalog.Weight(p)
		}
		score := fair.Total() + special
		ungranted += a.catalog.FairScore(pkg.PermissionsNotGranted).Total()

		if score > 0 {
			related = append(related, pkg.Name)
			a.logger.Debug().
				Str("mark", markCounted).
				Str("package", pkg.Name).
				Float64("generic", fair.Generic).
				Float64("location", fair.Location).
				Float64("sms", fair.SMS).
				Float64("special", special).
				Msg("pregranted permissions")
		}
		granted += score
	}

	a.logger.Debug().
		Float64("granted", granted).
		Float64("ungranted", ungranted).
		Float64("baseline_ungranted", a.params.UngrantedScore).
		Msg("permission totals")
	return granted, related
}

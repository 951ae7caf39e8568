package risk

// platformSignature counts code-bearing packages signed with the platform key
// that the baseline build does not also platform-sign.
func (a *Analyzer) platformSignature(t *Target, normalize bool) (float64, []string) {
	sig := t.Device.PlatformSignature()
	if sig == "" {
		a.logger.Warn().Msg("framework package not captured, platform signature unknown")
	}

	var (
		count   float64
		related []string
	)
	for i := range t.Device.Packages {
		pkg := &t.Device.Packages[i]

		if a.skipExcluded(t, pkg.Name) {
			continue
		}
		if !pkg.SignedBy(sig) {
			continue
		}
		// only discount packages that are platform signed in the baseline too
		if normalize && a.skipBaseline(pkg.Name, t.Baseline.PlatformAppsAll()) {
			continue
		}
		if !pkg.HasCode {
			a.trace(markDiscounted, pkg.Name, "platform signed but has no code")
			continue
		}

		count++
		related = append(related, pkg.Name)
		a.logger.Debug().Str("mark", markCounted).Str("package", pkg.Name).Float64("running", count).Msg("platform signed")
	}
	return count, related
}

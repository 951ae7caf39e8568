package risk

// systemUID counts members of privileged shared-uid groups. Normalizing drops
// OEM-excluded packages and (uid, package) pairs that exist in the baseline.
func (a *Analyzer) systemUID(t *Target, normalize bool) (float64, []string) {
	var (
		count   float64
		related []string
	)
	for _, group := range t.Device.SharedUIDGroups() {
		for _, name := range group.Packages {
			if normalize {
				if a.skipExcluded(t, name) {
					continue
				}
				if t.Baseline.HasSharedUIDMember(group.UID, name) {
					a.logger.Debug().Str("mark", markSkipped).Str("package", name).Str("uid", group.UID).Msg("baseline shared uid")
					continue
				}
			}
			count++
			related = append(related, name)
			a.logger.Debug().Str("mark", markCounted).Str("package", name).Str("uid", group.UID).Msg("newly introduced shared uid")
		}
	}
	a.logger.Debug().Float64("score", count).Msg("shared uid score")
	return count, related
}

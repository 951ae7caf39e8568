package risk

import "uraniborg-lab/internal/domain/models"

// hostileDownloader returns the number of distinct signers that can install
// packages, plus one for each such package signed with the platform key.
func (a *Analyzer) hostileDownloader(t *Target, normalize bool) (float64, []string) {
	sig := t.Device.PlatformSignature()
	signers := make(map[string]struct{})
	var (
		platformSigned int
		installers     []string
	)
	for i := range t.Device.Packages {
		pkg := &t.Device.Packages[i]

		if !pkg.HasGranted(models.PermissionInstallPkg) {
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
		if a.skipGMS(pkg) {
			continue
		}

		signer := pkg.PrimarySigner()
		if signer == "" {
			a.logger.Warn().Str("package", pkg.Name).Msg("installer package has no signing certificate")
			continue
		}
		signers[signer] = struct{}{}
		installers = append(installers, pkg.Name)
		a.logger.Debug().Str("mark", markCounted).Str("package", pkg.Name).Str("signer", signer).Msg("can install other packages")

		if signer == sig {
			platformSigned++
			a.logger.Warn().Str("mark", markMismatch).Str("package", pkg.Name).Msg("installer signed with platform key")
		}
	}

	a.logger.Debug().Int("sources", len(signers)).Int("installers", len(installers)).Msg("installer sources")
	return float64(len(signers) + platformSigned), installers
}

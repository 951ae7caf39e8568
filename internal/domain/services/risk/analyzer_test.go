package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/internal/domain/services/whitelist"
	"uraniborg-lab/pkg/logger"
)

func threePackageDevice() *models.DeviceRecord {
	return newDevice("Google",
		models.PackageRecord{
			Name:    "com.oem.resources",
			CertIDs: []string{platformCert},
			HasCode: false,
		},
		models.PackageRecord{
			Name:               "com.thirdparty.store",
			CertIDs:            []string{vendorCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg, models.PermissionInternet},
		},
		models.PackageRecord{
			Name:                 "com.oem.notes",
			CertIDs:              []string{vendorCert},
			HasCode:              true,
			UsesCleartextTraffic: true,
		},
	)
}

func TestThreePackageScenario(t *testing.T) {
	target := targetFor(threePackageDevice())

	platform := mustScorer(models.MetricPlatform)
	cleartext := mustScorer(models.MetricCleartext)
	hostile := NewHostileDownloader(30, logger.NewNop())

	for _, normalize := range []bool{false, true} {
		assert.Equal(t, 0.0, platform.ComputeBaseScore(target, normalize))
		assert.Equal(t, 0.0, cleartext.ComputeBaseScore(target, normalize))
		assert.Equal(t, 1.0, hostile.ComputeBaseScore(target, normalize))
	}

	assert.Equal(t, 0.0, platform.ComputeScore(target, true))
	assert.Equal(t, 0.0, cleartext.ComputeScore(target, true))
}

func TestOEMDeviceScores(t *testing.T) {
	target := targetFor(oemDevice())

	tests := []struct {
		metric     models.MetricKey
		normalized float64
		baseline   float64
		score      float64
	}{
		{models.MetricPlatform, 1, 3, 2.0},
		{models.MetricSystemUID, 2, 4, 3.0},
		{models.MetricRiskyPermissions, 10, 40, 0.75},
		{models.MetricCleartext, 1, 2, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			res := mustScorer(tt.metric).Evaluate(target, true)
			assert.Equal(t, tt.normalized, res.RawNormalized)
			assert.Equal(t, tt.baseline, res.RawBaseline)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
			assert.Equal(t, models.FormulaRatio, res.Formula)
			assert.Equal(t, Phi(tt.metric), res.Phi)
		})
	}
}

func TestSystemUIDIgnoresVendorSignedMembers(t *testing.T) {
	device := newDevice("Google",
		models.PackageRecord{
			Name:         "com.oem.sysapp",
			CertIDs:      []string{platformCert},
			SharedUserID: strPtr(models.SystemSharedUID),
			HasCode:      true,
		},
		models.PackageRecord{
			Name:         "com.vendor.helper",
			CertIDs:      []string{vendorCert},
			SharedUserID: strPtr(models.SystemSharedUID),
			HasCode:      true,
		},
	)

	res := mustScorer(models.MetricSystemUID).Evaluate(targetFor(device), true)
	assert.Equal(t, 1.0, res.RawNormalized)
	assert.Equal(t, 2.0, res.RawBaseline)
	assert.InDelta(t, 3.0, res.Score, 1e-9)
	assert.Equal(t, []string{"com.oem.sysapp"}, res.RelatedApps)
}

func TestNormalizationOnlyRemoves(t *testing.T) {
	devices := map[string]*models.DeviceRecord{
		"oem":   oemDevice(),
		"three": threePackageDevice(),
		"bare":  newDevice("samsung"),
	}
	for name, device := range devices {
		target := targetFor(device)
		for _, kind := range []models.MetricKey{
			models.MetricPlatform,
			models.MetricSystemUID,
			models.MetricRiskyPermissions,
			models.MetricCleartext,
		} {
			a := mustScorer(kind)
			normalized := a.ComputeBaseScore(target, true)
			raw := a.ComputeBaseScore(target, false)
			assert.LessOrEqual(t, normalized, raw, "%s/%s", name, kind)

			score := a.ComputeScore(target, true)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, Phi(kind), "%s/%s", name, kind)
		}
	}
}

func TestEmptyDeviceScoresZero(t *testing.T) {
	target := targetFor(newDevice("Google"))
	for _, kind := range []models.MetricKey{models.MetricPlatform, models.MetricRiskyPermissions, models.MetricCleartext} {
		assert.Equal(t, 0.0, mustScorer(kind).ComputeScore(target, true), kind)
	}
}

func TestGetScorerErrors(t *testing.T) {
	_, err := GetScorer(models.MetricHostileDownloader, 30, logger.NewNop())
	assert.ErrorIs(t, err, models.ErrScorerUnavailable)

	_, err = GetScorer("battery-drain", 30, logger.NewNop())
	assert.ErrorIs(t, err, models.ErrUnknownMetric)

	_, err = GetScorer(models.MetricPlatform, 32, logger.NewNop())
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 32, cfgErr.APILevel)
	assert.Equal(t, models.MetricPlatform, cfgErr.Metric)
	assert.ErrorIs(t, err, models.ErrUnsupportedAPILevel)
}

func TestGetScorerParams(t *testing.T) {
	for _, level := range SupportedAPILevels() {
		for _, kind := range []models.MetricKey{models.MetricPlatform, models.MetricSystemUID, models.MetricRiskyPermissions, models.MetricCleartext} {
			a, err := GetScorer(kind, level, logger.NewNop())
			require.NoError(t, err)
			assert.Equal(t, level, a.APILevel())
			assert.Equal(t, kind, a.Metric())
			assert.Positive(t, a.Params().BaseScore)
			assert.Equal(t, DefaultLambdaI, a.Params().LambdaI)
		}
	}
	assert.NotContains(t, SupportedAPILevels(), 32)

	p, ok := LookupParams(models.MetricRiskyPermissions, 30)
	require.True(t, ok)
	assert.Equal(t, 462.5, p.BaseScore)
	assert.Equal(t, 187.5, p.UngrantedScore)
	assert.Equal(t, 3.0, p.Phi)
}

func TestLambdaO(t *testing.T) {
	assert.Equal(t, 0.25, LambdaO(1, 0.25))
	assert.Equal(t, 0.0, LambdaO(0, 0.25))
	assert.InDelta(t, 0.5, LambdaO(3, 0.25), 1e-12)

	prev := 0.0
	for _, l := range []float64{0, 0.5, 1, 2, 5, 50} {
		v := LambdaO(l, DefaultLambdaI)
		assert.GreaterOrEqual(t, v, prev)
		assert.Less(t, v, 1.0)
		prev = v
	}

	assert.InDelta(t, 0.25, ToProbability(ToOdds(0.25)), 1e-12)
	assert.InDelta(t, 1.0/3.0, ToOdds(0.25), 1e-12)
}

func TestOddsRatioFormula(t *testing.T) {
	target := targetFor(oemDevice())
	a := mustScorer(models.MetricPlatform, WithFormula(models.FormulaOddsRatio))
	require.Equal(t, models.FormulaOddsRatio, a.Formula())

	res := a.Evaluate(target, true)
	assert.Equal(t, 1.0, res.RawNormalized)
	assert.Equal(t, 0.0, res.RawBaseline)

	likelihood := 1.0 / a.Params().BaseScore
	assert.InDelta(t, LambdaO(likelihood, DefaultLambdaI)*Phi(models.MetricPlatform), res.Score, 1e-12)
}

func TestHostileDownloader(t *testing.T) {
	device := newDevice("Google",
		models.PackageRecord{
			Name:               "com.oem.updater",
			CertIDs:            []string{platformCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg},
		},
		models.PackageRecord{
			Name:               "com.thirdparty.store",
			CertIDs:            []string{vendorCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg},
		},
		models.PackageRecord{
			Name:               "com.thirdparty.companion",
			CertIDs:            []string{vendorCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg},
		},
		models.PackageRecord{
			Name:               "com.android.vending",
			CertIDs:            []string{gmsCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg},
		},
		models.PackageRecord{
			Name:               "com.google.android.gms",
			CertIDs:            []string{gmsCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg},
		},
		models.PackageRecord{
			Name:               "com.thirdparty.unsigned",
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInstallPkg},
		},
		models.PackageRecord{
			Name:               "com.thirdparty.noinstall",
			CertIDs:            []string{storeCert},
			HasCode:            true,
			PermissionsGranted: []string{models.PermissionInternet},
		},
	)
	target := targetFor(device)

	a := NewHostileDownloader(30, logger.NewNop())
	assert.Equal(t, models.FormulaOddsRatio, a.Formula())

	// two distinct signers plus one platform-signed installer
	assert.Equal(t, 3.0, a.ComputeBaseScore(target, false))
	// signer sets do not leak between calls
	assert.Equal(t, 3.0, a.ComputeBaseScore(target, true))

	assert.InDelta(t, 0.25*2.5, a.ComputeScore(target, false), 1e-12)
	assert.InDelta(t, 0.5*2.5, a.ComputeScore(target, true), 1e-12)

	res := a.Evaluate(target, true)
	assert.Equal(t, 3.0, res.RawNormalized)
	assert.ElementsMatch(t, []string{"com.oem.updater", "com.thirdparty.store", "com.thirdparty.companion"}, res.RelatedApps)
}

func TestHostileDownloaderIgnoresFormulaOption(t *testing.T) {
	a := NewHostileDownloader(30, logger.NewNop(), WithFormula(models.FormulaRatio))
	assert.Equal(t, models.FormulaOddsRatio, a.Formula())
}

func TestRelatedAppsRecordedOnce(t *testing.T) {
	a := mustScorer(models.MetricPlatform)

	a.ComputeBaseScore(targetFor(oemDevice()), false)
	assert.Empty(t, a.RelatedApps())

	a.ComputeBaseScore(targetFor(oemDevice()), true)
	assert.Equal(t, []string{"com.oem.diagnostics"}, a.RelatedApps())

	other := newDevice("Google", models.PackageRecord{Name: "com.oem.camera", CertIDs: []string{platformCert}, HasCode: true})
	a.ComputeBaseScore(targetFor(other), true)
	assert.Equal(t, []string{"com.oem.diagnostics"}, a.RelatedApps())

	related := a.RelatedApps()
	related[0] = "mutated"
	assert.Equal(t, []string{"com.oem.diagnostics"}, a.RelatedApps())
}

func TestGMSDiscount(t *testing.T) {
	target := targetFor(oemDevice())

	discounted := mustScorer(models.MetricRiskyPermissions)
	assert.Equal(t, 40.0, discounted.ComputeBaseScore(target, false))

	included := mustScorer(models.MetricRiskyPermissions, WithGMSDiscount(false))
	assert.Equal(t, 50.0, included.ComputeBaseScore(target, false))
	assert.Equal(t, 20.0, included.ComputeBaseScore(target, true))

	cleartext := mustScorer(models.MetricCleartext, WithGMSDiscount(false))
	assert.Equal(t, 3.0, cleartext.ComputeBaseScore(target, false))
}

func TestMismatchedGMSIsScored(t *testing.T) {
	device := newDevice("Google", models.PackageRecord{
		Name:                 "com.google.android.gms",
		CertIDs:              []string{vendorCert},
		HasCode:              true,
		PermissionsGranted:   []string{models.PermissionInternet, "android.permission.CAMERA"},
		UsesCleartextTraffic: true,
	})

	var got []models.PolicyMismatch
	a := mustScorer(models.MetricRiskyPermissions, WithMismatchHandler(func(m models.PolicyMismatch) {
		got = append(got, m)
	}))
	target := targetFor(device)

	assert.Equal(t, 10.0, a.ComputeBaseScore(target, false))
	assert.Equal(t, 10.0, a.ComputeBaseScore(target, true))
	require.Len(t, got, 1)
	assert.Equal(t, models.MismatchGMS, got[0].Kind)
	assert.Equal(t, gmsCert, got[0].Expected)
	assert.Equal(t, vendorCert, got[0].Actual)
}

func TestMismatchedInstallerIsScored(t *testing.T) {
	device := newDevice("samsung", models.PackageRecord{
		Name:               "com.sec.android.app.samsungapps",
		CertIDs:            []string{storeCert},
		HasCode:            true,
		PermissionsGranted: []string{models.PermissionInstallPkg},
	})

	var got []models.PolicyMismatch
	handler := WithMismatchHandler(func(m models.PolicyMismatch) { got = append(got, m) })
	target := targetFor(device)

	risky := mustScorer(models.MetricRiskyPermissions, handler)
	assert.Equal(t, 100.0, risky.ComputeBaseScore(target, false))

	hostile := NewHostileDownloader(30, logger.NewNop(), handler)
	assert.Equal(t, 1.0, hostile.ComputeBaseScore(target, false))

	require.Len(t, got, 2)
	assert.Equal(t, models.MismatchInstaller, got[0].Kind)
	assert.Equal(t, "com.sec.android.app.samsungapps", got[0].Package)
}

func TestTrustedInstallerSkipped(t *testing.T) {
	device := newDevice("samsung", models.PackageRecord{
		Name:               "com.sec.android.app.samsungapps",
		CertIDs:            []string{"fba3af4e7757d9016e953fb3ee4671ca2bd9af725f9a53d52ed4a38eaaa08901"},
		HasCode:            true,
		PermissionsGranted: []string{models.PermissionInstallPkg},
	})
	target := targetFor(device)

	assert.Equal(t, 0.0, mustScorer(models.MetricRiskyPermissions).ComputeBaseScore(target, false))
	assert.Equal(t, 0.0, NewHostileDownloader(30, logger.NewNop()).ComputeBaseScore(target, false))
}

func TestAnalyzePlatform(t *testing.T) {
	device := oemDevice()
	apps := AnalyzePlatform(device, whitelist.GetWhitelist("Google"))

	assert.Equal(t, []string{"com.android.settings", "com.oem.settings", "com.oem.diagnostics", "com.oem.overlay"}, apps.Apps.Slice())
	assert.Equal(t, []string{"com.android.settings", "com.oem.settings", "com.oem.diagnostics"}, apps.SystemUID.Slice())
	assert.False(t, apps.Apps.Has(models.FrameworkPackage))
}

func TestMissingFrameworkPackage(t *testing.T) {
	device := oemDevice()
	device.Packages = device.Packages[1:]
	target := targetFor(device)

	assert.Equal(t, 0, target.Platform.Apps.Len())
	assert.Equal(t, 0.0, mustScorer(models.MetricPlatform).ComputeBaseScore(target, false))
	assert.Equal(t, 0.0, mustScorer(models.MetricSystemUID).ComputeBaseScore(target, false))
}

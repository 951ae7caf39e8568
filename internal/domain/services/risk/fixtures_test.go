package risk

import (
	"context"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/internal/domain/services/whitelist"
	"uraniborg-lab/internal/infrastructure/baseline"
	"uraniborg-lab/pkg/logger"
)

const (
	platformCert = "1111111111111111111111111111111111111111111111111111111111111111"
	vendorCert   = "2222222222222222222222222222222222222222222222222222222222222222"
	storeCert    = "3333333333333333333333333333333333333333333333333333333333333333"
	gmsCert      = "f0fd6c5b410f25cb25c3b53346c8972fae30f8ee7411df910480ad6b2d60db83"
)

func strPtr(s string) *string { return &s }

func framework() models.PackageRecord {
	return models.PackageRecord{
		Name:         models.FrameworkPackage,
		CertIDs:      []string{platformCert},
		SharedUserID: strPtr(models.SystemSharedUID),
		HasCode:      true,
	}
}

func testReference() *baseline.Reference {
	return baseline.NewReference("test", baseline.Document{
		PackagesAll:        []string{"android", "com.android.settings", "com.android.phone", "com.android.browser", "com.android.overlay"},
		PackagesNoCode:     []string{"com.android.overlay"},
		PlatformAppsAll:    []string{"android", "com.android.settings", "com.android.phone"},
		PlatformAppsNoCode: []string{"com.android.overlay"},
		PackagesSharedUID: map[string][]string{
			models.SystemSharedUID: {"android", "com.android.settings"},
			"android.uid.phone":    {"com.android.phone"},
		},
	})
}

func newDevice(oem string, pkgs ...models.PackageRecord) *models.DeviceRecord {
	return &models.DeviceRecord{
		Build:    models.BuildInfo{APILevel: 30, Fingerprint: "test/device:11/RP1A/1:user/release-keys"},
		Hardware: models.HardwareInfo{OEM: oem, Brand: "brand", Model: "model", Product: "product"},
		Packages: append([]models.PackageRecord{framework()}, pkgs...),
	}
}

// oemDevice is a Google device with a mix of forked, new and baseline packages:
//
//	platform (code, normalized / not): 1 / 3
//	system uid members:                2 / 4
//	risky permissions:                 10 / 40
//	cleartext:                         1 / 2
func oemDevice() *models.DeviceRecord {
	return newDevice("Google",
		models.PackageRecord{
			Name:         "com.android.settings",
			CertIDs:      []string{platformCert},
			SharedUserID: strPtr(models.SystemSharedUID),
			HasCode:      true,
		},
		models.PackageRecord{
			Name:         "com.oem.settings",
			CertIDs:      []string{platformCert},
			SharedUserID: strPtr(models.SystemSharedUID),
			HasCode:      true,
		},
		models.PackageRecord{
			Name:               "com.oem.diagnostics",
			CertIDs:            []string{platformCert},
			SharedUserID:       strPtr(models.SystemSharedUID),
			HasCode:            true,
			PermissionsGranted: []string{"android.permission.DUMP"},
		},
		models.PackageRecord{
			Name:    "com.oem.overlay",
			CertIDs: []string{platformCert},
			HasCode: false,
		},
		models.PackageRecord{
			Name:    "com.oem.browser",
			CertIDs: []string{vendorCert},
			HasCode: true,
			PermissionsGranted: []string{
				"android.permission.INTERNET",
				"android.permission.READ_SMS",
				"android.permission.SEND_SMS",
				"android.permission.ACCESS_FINE_LOCATION",
				"android.permission.ACCESS_COARSE_LOCATION",
				"android.permission.CAMERA",
			},
			PermissionsNotGranted: []string{"android.permission.RECORD_AUDIO"},
			PermissionsSpecial:    []string{"android.permission.SYSTEM_ALERT_WINDOW"},
			UsesCleartextTraffic:  true,
		},
		models.PackageRecord{
			Name:    "com.oem.weather",
			CertIDs: []string{vendorCert},
			HasCode: true,
			PermissionsGranted: []string{
				"android.permission.INTERNET",
				"android.permission.ACCESS_COARSE_LOCATION",
				"android.permission.READ_CONTACTS",
			},
			UsesCleartextTraffic: true,
		},
		models.PackageRecord{
			Name:                 "com.google.android.gms",
			CertIDs:              []string{gmsCert},
			HasCode:              true,
			PermissionsGranted:   []string{"android.permission.INTERNET", "android.permission.CAMERA"},
			UsesCleartextTraffic: true,
		},
		models.PackageRecord{
			Name:                 "com.android.safetyregulatoryinfo",
			CertIDs:              []string{vendorCert},
			HasCode:              true,
			PermissionsGranted:   []string{"android.permission.INTERNET", "android.permission.CAMERA"},
			UsesCleartextTraffic: true,
		},
		models.PackageRecord{
			Name:                 "com.oem.widget",
			CertIDs:              []string{vendorCert},
			HasCode:              true,
			UsesCleartextTraffic: true,
		},
	)
}

func targetFor(device *models.DeviceRecord) *Target {
	return NewTarget(device, testReference(), whitelist.GetWhitelist(device.OEM()))
}

func mustScorer(kind models.MetricKey, opts ...Option) *Analyzer {
	a, err := GetScorer(kind, 30, logger.NewNop(), opts...)
	if err != nil {
		panic(err)
	}
	return a
}

type fakeRefs struct {
	ref   *baseline.Reference
	err   error
	calls int
}

func (f *fakeRefs) Get(_ context.Context, _ int) (*baseline.Reference, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ref, nil
}

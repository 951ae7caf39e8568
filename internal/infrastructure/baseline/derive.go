package baseline

import (
	"uraniborg-lab/internal/domain/models"
)

// Derive builds a baseline document from a capture of a reference build
func Derive(device *models.DeviceRecord) Document {
	doc := Document{
		PackagesAll:        device.PackageNames(false),
		PackagesNoCode:     make([]string, 0),
		PlatformAppsAll:    device.PlatformPackageNames(false),
		PlatformAppsNoCode: make([]string, 0),
		PackagesSharedUID:  make(map[string][]string),
	}

	sig := device.PlatformSignature()
	for _, pkg := range device.Packages {
		if !pkg.HasCode {
			doc.PackagesNoCode = append(doc.PackagesNoCode, pkg.Name)
			if pkg.SignedBy(sig) {
				doc.PlatformAppsNoCode = append(doc.PlatformAppsNoCode, pkg.Name)
			}
		}
	}
	for _, g := range device.SharedUIDGroups() {
		doc.PackagesSharedUID[g.UID] = append([]string(nil), g.Packages...)
	}
	return doc
}

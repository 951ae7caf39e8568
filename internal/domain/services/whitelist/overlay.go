package whitelist

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// OverlayFile is the on-disk format for site-specific whitelist additions:
//
//	oems:
//	  samsung:
//	    excluded_packages: [com.samsung.android.legal]
//	    installer_packages:
//	      com.sec.android.app.samsungapps: fba3...
type OverlayFile struct {
	Version string              `yaml:"version"`
	OEMs    map[string]Override `yaml:"oems"`
}

// ParseOverlay decodes an overlay document
func ParseOverlay(r io.Reader) (map[string]Override, error) {
	var f OverlayFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return map[string]Override{}, nil
		}
		return nil, fmt.Errorf("failed to decode whitelist overlay: %w", err)
	}
	for oem, o := range f.OEMs {
		for name, cert := range o.InstallerPackages {
			if cert == "" {
				return nil, fmt.Errorf("whitelist overlay: oem %q installer %q has no certificate", oem, name)
			}
		}
	}
	if f.OEMs == nil {
		f.OEMs = map[string]Override{}
	}
	return f.OEMs, nil
}

// LoadOverlayFile reads an overlay from disk
func LoadOverlayFile(path string) (map[string]Override, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open whitelist overlay: %w", err)
	}
	defer f.Close()
	return ParseOverlay(f)
}

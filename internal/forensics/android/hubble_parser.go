package android

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"uraniborg-lab/internal/domain/models"
	"uraniborg-lab/pkg/logger"
)

// Hubble observation file names
const (
	PackagesFile = "packages.txt"
	BuildFile    = "build.txt"
	HardwareFile = "hardware.txt"
)

// MinimumVersion is the oldest Hubble output format this parser reads
const MinimumVersion = "1.0.0"

var (
	// ErrIncompatibleVersion is returned for Hubble output older than MinimumVersion
	ErrIncompatibleVersion = errors.New("incompatible hubble output version")
	// ErrEmptyObservation is returned when a core file has no entries
	ErrEmptyObservation = errors.New("empty hubble observation")
)

// HubbleParser turns the JSON files written by the Hubble observer app into a DeviceRecord
type HubbleParser struct {
	logger *logger.Logger
}

// NewHubbleParser creates a new Hubble output parser
func NewHubbleParser(log *logger.Logger) *HubbleParser {
	return &HubbleParser{
		logger: log.WithComponent("hubble-parser"),
	}
}

type packagesFile struct {
	Version  string                 `json:"version"`
	Packages []models.PackageRecord `json:"packages"`
}

type buildFile struct {
	Version   string             `json:"version"`
	BuildInfo []models.BuildInfo `json:"buildInfo"`
}

type hardwareFile struct {
	Version string                `json:"version"`
	HWInfo  []models.HardwareInfo `json:"hwInfo"`
}

// ParseDir parses an observation directory
func (p *HubbleParser) ParseDir(dir string) (*models.DeviceRecord, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open observation: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("observation %s is not a directory", dir)
	}
	return p.ParseFS(os.DirFS(dir))
}

// ParseFS parses the core observation files found at the root of fsys
func (p *HubbleParser) ParseFS(fsys fs.FS) (*models.DeviceRecord, error) {
	files := make(map[string][]byte, 3)
	for _, name := range []string{PackagesFile, BuildFile, HardwareFile} {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		files[name] = data
	}
	return p.Parse(files[PackagesFile], files[BuildFile], files[HardwareFile])
}

// Parse decodes the contents of packages.txt, build.txt and hardware.txt
func (p *HubbleParser) Parse(packages, build, hardware []byte) (*models.DeviceRecord, error) {
	var pf packagesFile
	if err := p.decode(PackagesFile, packages, &pf, &pf.Version); err != nil {
		return nil, err
	}
	if len(pf.Packages) == 0 {
		return nil, fmt.Errorf("%s: %w", PackagesFile, ErrEmptyObservation)
	}

	var bf buildFile
	if err := p.decode(BuildFile, build, &bf, &bf.Version); err != nil {
		return nil, err
	}
	if len(bf.BuildInfo) == 0 {
		return nil, fmt.Errorf("%s: %w", BuildFile, ErrEmptyObservation)
	}

	var hf hardwareFile
	if err := p.decode(HardwareFile, hardware, &hf, &hf.Version); err != nil {
		return nil, err
	}
	if len(hf.HWInfo) == 0 {
		return nil, fmt.Errorf("%s: %w", HardwareFile, ErrEmptyObservation)
	}

	device := &models.DeviceRecord{
		Packages: pf.Packages,
		Build:    bf.BuildInfo[0],
		Hardware: hf.HWInfo[0],
	}
	if device.PlatformSignature() == "" {
		p.logger.Warn().Msg("framework package missing from observation, platform metrics will find no matches")
	}

	p.logger.Debug().
		Int("packages", len(device.Packages)).
		Int("api_level", device.APILevel()).
		Str("oem", device.OEM()).
		Str("fingerprint", device.Build.Fingerprint).
		Msg("parsed hubble observation")
	return device, nil
}

func (p *HubbleParser) decode(name string, data []byte, dest any, version *string) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	if !CheckVersion(*version) {
		p.logger.Error().Str("file", name).Str("version", *version).Msg("hubble output version is incompatible")
		return fmt.Errorf("%s: version %q: %w", name, *version, ErrIncompatibleVersion)
	}
	return nil
}

// CheckVersion reports whether the major and minor components of version are at least MinimumVersion's
func CheckVersion(version string) bool {
	got := strings.Split(version, ".")
	want := strings.Split(MinimumVersion, ".")
	if len(got) < 2 {
		return false
	}
	for i := range 2 {
		g, err := strconv.Atoi(got[i])
		if err != nil {
			return false
		}
		w, _ := strconv.Atoi(want[i])
		if g > w {
			return true
		}
		if g < w {
			return false
		}
	}
	return true
}

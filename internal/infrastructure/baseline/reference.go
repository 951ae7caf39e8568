// Package baseline provides the version-matched reference package sets
// that target devices are normalized against.
package baseline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"uraniborg-lab/internal/domain/models"
)

// Document field names
const (
	FieldPackagesAll        = "packagesAll"
	FieldPackagesNoCode     = "packagesNoCode"
	FieldPlatformAppsAll    = "platformAppsAll"
	FieldPlatformAppsNoCode = "platformAppsNoCode"
	FieldPackagesSharedUID  = "packagesSharedUid"
)

// Document is the serialized form of a baseline dataset
type Document struct {
	PackagesAll        []string            `json:"packagesAll"`
	PackagesNoCode     []string            `json:"packagesNoCode"`
	PlatformAppsAll    []string            `json:"platformAppsAll"`
	PlatformAppsNoCode []string            `json:"platformAppsNoCode"`
	PackagesSharedUID  map[string][]string `json:"packagesSharedUid"`
}

// rawDocument distinguishes absent fields from empty ones
type rawDocument struct {
	PackagesAll        *[]string            `json:"packagesAll"`
	PackagesNoCode     *[]string            `json:"packagesNoCode"`
	PlatformAppsAll    *[]string            `json:"platformAppsAll"`
	PlatformAppsNoCode *[]string            `json:"platformAppsNoCode"`
	PackagesSharedUID  *map[string][]string `json:"packagesSharedUid"`
}

// Reference is the immutable snapshot of one baseline build
type Reference struct {
	dataset            string
	packagesAll        models.NameList
	packagesNoCode     models.NameList
	platformAppsAll    models.NameList
	platformAppsNoCode models.NameList
	sharedUID          map[string]models.NameList
}

// Parse decodes and validates a baseline document
func Parse(dataset string, data []byte) (*Reference, error) {
	var raw rawDocument
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode baseline %s: %w", dataset, err)
	}

	lists := []struct {
		field string
		value *[]string
	}{
		{FieldPackagesAll, raw.PackagesAll},
		{FieldPackagesNoCode, raw.PackagesNoCode},
		{FieldPlatformAppsAll, raw.PlatformAppsAll},
		{FieldPlatformAppsNoCode, raw.PlatformAppsNoCode},
	}
	for _, l := range lists {
		if err := checkField(dataset, l.field, l.value == nil, l.value != nil && len(*l.value) == 0); err != nil {
			return nil, err
		}
	}
	if err := checkField(dataset, FieldPackagesSharedUID, raw.PackagesSharedUID == nil,
		raw.PackagesSharedUID != nil && len(*raw.PackagesSharedUID) == 0); err != nil {
		return nil, err
	}

	return NewReference(dataset, Document{
		PackagesAll:        *raw.PackagesAll,
		PackagesNoCode:     *raw.PackagesNoCode,
		PlatformAppsAll:    *raw.PlatformAppsAll,
		PlatformAppsNoCode: *raw.PlatformAppsNoCode,
		PackagesSharedUID:  *raw.PackagesSharedUID,
	}), nil
}

func checkField(dataset, field string, missing, empty bool) error {
	switch {
	case missing:
		return &models.DataIntegrityError{Dataset: dataset, Field: field, Reason: "is missing"}
	case empty:
		return &models.DataIntegrityError{Dataset: dataset, Field: field, Reason: "is empty"}
	}
	return nil
}

// NewReference builds a snapshot from an already validated document. The document is copied.
func NewReference(dataset string, doc Document) *Reference {
	ref := &Reference{
		dataset:            dataset,
		packagesAll:        models.NewNameList(doc.PackagesAll...),
		packagesNoCode:     models.NewNameList(doc.PackagesNoCode...),
		platformAppsAll:    models.NewNameList(doc.PlatformAppsAll...),
		platformAppsNoCode: models.NewNameList(doc.PlatformAppsNoCode...),
		sharedUID:          make(map[string]models.NameList, len(doc.PackagesSharedUID)),
	}
	for uid, names := range doc.PackagesSharedUID {
		ref.sharedUID[uid] = models.NewNameList(names...)
	}
	return ref
}

// Dataset returns the dataset name the snapshot was loaded from
func (r *Reference) Dataset() string { return r.dataset }

// PackagesAll returns every package of the baseline build
func (r *Reference) PackagesAll() models.NameList { return r.packagesAll }

// PackagesNoCode returns the baseline packages without code
func (r *Reference) PackagesNoCode() models.NameList { return r.packagesNoCode }

// PlatformAppsAll returns the baseline packages signed with the platform key
func (r *Reference) PlatformAppsAll() models.NameList { return r.platformAppsAll }

// PlatformAppsNoCode returns the platform-signed baseline packages without code
func (r *Reference) PlatformAppsNoCode() models.NameList { return r.platformAppsNoCode }

// SharedUIDs returns the sorted shared user ids present in the baseline
func (r *Reference) SharedUIDs() []string {
	return slices.Sorted(maps.Keys(r.sharedUID))
}

// SharedUIDPackages returns the members of a baseline shared uid
func (r *Reference) SharedUIDPackages(uid string) (models.NameList, bool) {
	l, ok := r.sharedUID[uid]
	return l, ok
}

// HasSharedUIDMember reports whether the (uid, package) pair exists in the baseline
func (r *Reference) HasSharedUIDMember(uid, name string) bool {
	l, ok := r.SharedUIDPackages(uid)
	return ok && l.Has(name)
}

// Document returns a copy of the snapshot in serialized form
func (r *Reference) Document() Document {
	doc := Document{
		PackagesAll:        r.packagesAll.Slice(),
		PackagesNoCode:     r.packagesNoCode.Slice(),
		PlatformAppsAll:    r.platformAppsAll.Slice(),
		PlatformAppsNoCode: r.platformAppsNoCode.Slice(),
		PackagesSharedUID:  make(map[string][]string, len(r.sharedUID)),
	}
	for uid, l := range r.sharedUID {
		doc.PackagesSharedUID[uid] = l.Slice()
	}
	return doc
}

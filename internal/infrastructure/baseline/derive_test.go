package baseline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uraniborg-lab/internal/domain/models"
)

func sharedUID(s string) *string { return &s }

func TestDerive(t *testing.T) {
	device := &models.DeviceRecord{
		Build: models.BuildInfo{APILevel: 30},
		Packages: []models.PackageRecord{
			{Name: "android", CertIDs: []string{"p"}, SharedUserID: sharedUID(models.SystemSharedUID), HasCode: true},
			{Name: "com.android.settings", CertIDs: []string{"p"}, SharedUserID: sharedUID(models.SystemSharedUID), HasCode: true},
			{Name: "com.android.overlay", CertIDs: []string{"p"}, HasCode: false},
			{Name: "com.android.fonts", CertIDs: []string{"m"}, HasCode: false},
			{Name: "com.android.contacts", CertIDs: []string{"s"}, SharedUserID: sharedUID("android.uid.shared"), HasCode: true},
			{Name: "com.vendor.helper", CertIDs: []string{"v"}, SharedUserID: sharedUID(models.SystemSharedUID), HasCode: true},
		},
	}

	doc := Derive(device)
	assert.Equal(t, []string{"android", "com.android.settings", "com.android.overlay", "com.android.fonts", "com.android.contacts", "com.vendor.helper"}, doc.PackagesAll)
	assert.Equal(t, []string{"com.android.overlay", "com.android.fonts"}, doc.PackagesNoCode)
	assert.Equal(t, []string{"android", "com.android.settings", "com.android.overlay"}, doc.PlatformAppsAll)
	assert.Equal(t, []string{"com.android.overlay"}, doc.PlatformAppsNoCode)
	assert.Equal(t, map[string][]string{models.SystemSharedUID: {"android", "com.android.settings"}}, doc.PackagesSharedUID)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	ref, err := Parse("derived", data)
	require.NoError(t, err)
	assert.True(t, ref.HasSharedUIDMember(models.SystemSharedUID, "com.android.settings"))
	assert.False(t, ref.HasSharedUIDMember(models.SystemSharedUID, "com.vendor.helper"))
	assert.Equal(t, []string{models.SystemSharedUID}, ref.SharedUIDs())

	members, ok := ref.SharedUIDPackages(models.SystemSharedUID)
	require.True(t, ok)
	assert.Equal(t, []string{"android", "com.android.settings"}, members.Slice())

	_, ok = ref.SharedUIDPackages("android.uid.shared")
	assert.False(t, ok)
}

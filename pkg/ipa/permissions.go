package ipa

import (
	"strings"

	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// permissionKey maps a permission to the Info.plist usage-description keys that declare it
type permissionKey struct {
	kind     models.PermissionKind
	primary  string
	fallback string
}

// permissionTable is the closed set of permissions the checker understands.
// Extraction order follows this table.
var permissionTable = []permissionKey{
	{models.PermissionCamera, "NSCameraUsageDescription", ""},
	{models.PermissionLocation, "NSLocationWhenInUseUsageDescription", ""},
	{models.PermissionLocationAlways, "NSLocationAlwaysUsageDescription", "NSLocationAlwaysAndWhenInUseUsageDescription"},
	{models.PermissionMicrophone, "NSMicrophoneUsageDescription", ""},
	{models.PermissionPhotoLibrary, "NSPhotoLibraryUsageDescription", ""},
	{models.PermissionContacts, "NSContactsUsageDescription", ""},
	{models.PermissionBluetooth, "NSBluetoothAlwaysUsageDescription", "NSBluetoothPeripheralUsageDescription"},
	{models.PermissionHealthKit, "NSHealthShareUsageDescription", "NSHealthUpdateUsageDescription"},
}

// KnownPermissions returns the permission kinds in extraction order
func KnownPermissions() []models.PermissionKind {
	kinds := make([]models.PermissionKind, len(permissionTable))
	for i, entry := range permissionTable {
		kinds[i] = entry.kind
	}
	return kinds
}

// extractPermissions returns one entry per table row whose primary or fallback key is present.
// The description is the first non-blank string among primary then fallback; a present key with
// a non-string value still declares the permission, but without a description.
func extractPermissions(meta Dictionary, logger utils.Logger) []models.Permission {
	permissions := make([]models.Permission, 0, len(permissionTable))

	for _, entry := range permissionTable {
		keys := []string{entry.primary}
		if entry.fallback != "" {
			keys = append(keys, entry.fallback)
		}

		declared := false
		description := ""
		for _, key := range keys {
			v, ok := meta.Get(key)
			if !ok {
				continue
			}
			declared = true

			s, isString := v.AsString()
			if !isString {
				logger.Debug("Info.plist key %s has type %s, expected string", key, v.Kind())
				continue
			}
			if description == "" && strings.TrimSpace(s) != "" {
				description = s
			}
		}

		if declared {
			permissions = append(permissions, models.Permission{Kind: entry.kind, Description: description})
		}
	}

	return permissions
}

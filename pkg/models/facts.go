package models

import "strings"

// PermissionKind identifies a sensitive capability an application declares
type PermissionKind string

const (
	PermissionCamera         PermissionKind = "camera"
	PermissionLocation       PermissionKind = "location"
	PermissionLocationAlways PermissionKind = "locationAlways"
	PermissionMicrophone     PermissionKind = "microphone"
	PermissionPhotoLibrary   PermissionKind = "photoLibrary"
	PermissionContacts       PermissionKind = "contacts"
	PermissionBluetooth      PermissionKind = "bluetooth"
	PermissionHealthKit      PermissionKind = "healthKit"
)

// IsLocation reports whether the permission grants access to the user's location
func (k PermissionKind) IsLocation() bool {
	return k == PermissionLocation || k == PermissionLocationAlways
}

// Permission is a declared permission and the usage description shown to the user
type Permission struct {
	Kind        PermissionKind `json:"name"`
	Description string         `json:"description"`
}

// Described reports whether the permission carries a usable description
func (p Permission) Described() bool {
	return strings.TrimSpace(p.Description) != ""
}

// AppFacts is the semantic view of an application's Info.plist
type AppFacts struct {
	BundleID                string       `json:"bundleId,omitempty"`
	Name                    string       `json:"name,omitempty"`
	Version                 string       `json:"version,omitempty"`
	BuildVersion            string       `json:"buildVersion,omitempty"`
	MinimumOSVersion        string       `json:"minimumOSVersion,omitempty"`
	DeviceFamily            []int64      `json:"deviceFamily,omitempty"`
	PrivacyPolicyURL        string       `json:"privacyPolicyURL,omitempty"`
	HasPrivacyPolicy        bool         `json:"hasPrivacyPolicy"`
	Permissions             []Permission `json:"permissions"`
	AllowsInsecureTransport bool         `json:"allowsInsecureTransport"`
	MetadataKeys            int          `json:"metadataKeys"`
}

// UsesHTTPS reports whether the transport-security policy forbids plain HTTP
func (f *AppFacts) UsesHTTPS() bool {
	return !f.AllowsInsecureTransport
}

// FormFacts are facts supplied by a caller instead of (or alongside) a package.
// Nil pointers mean the caller did not answer the question.
type FormFacts struct {
	Name          string       `json:"name,omitempty"`
	PrivacyPolicy *bool        `json:"privacyPolicy,omitempty"`
	UsesHTTPS     *bool        `json:"usesHttps,omitempty"`
	Permissions   []Permission `json:"permissions,omitempty"`
}

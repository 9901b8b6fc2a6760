package ipa

import (
	"strings"

	"github.com/Coder-Joe458/ios-review-checker/pkg/models"
	"github.com/Coder-Joe458/ios-review-checker/pkg/utils"
)

// Info.plist keys read by the fact extractor
const (
	keyBundleID           = "CFBundleIdentifier"
	keyDisplayName        = "CFBundleDisplayName"
	keyName               = "CFBundleName"
	keyShortVersion       = "CFBundleShortVersionString"
	keyBundleVersion      = "CFBundleVersion"
	keyMinimumOSVersion   = "MinimumOSVersion"
	keyDeviceFamily       = "UIDeviceFamily"
	keyPrivacyPolicyURL   = "NSPrivacyPolicyURLString"
	keyTransportSecurity  = "NSAppTransportSecurity"
	keyAllowsArbitrary    = "NSAllowsArbitraryLoads"
	keyExceptionDomains   = "NSExceptionDomains"
	keyExceptionInsecure  = "NSExceptionAllowsInsecureHTTPLoads"
	keyThirdPartyInsecure = "NSThirdPartyExceptionAllowsInsecureHTTPLoads"
)

// ExtractFacts derives AppFacts from decoded metadata. Fields with an unexpected
// type are treated as absent and logged at debug level.
func ExtractFacts(meta *Metadata, logger utils.Logger) models.AppFacts {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	root := meta.Dictionary

	facts := models.AppFacts{
		BundleID:         stringField(root, keyBundleID, logger),
		Name:             firstNonEmpty(stringField(root, keyDisplayName, logger), stringField(root, keyName, logger)),
		Version:          stringField(root, keyShortVersion, logger),
		BuildVersion:     stringField(root, keyBundleVersion, logger),
		MinimumOSVersion: stringField(root, keyMinimumOSVersion, logger),
		DeviceFamily:     deviceFamily(root, logger),
		PrivacyPolicyURL: stringField(root, keyPrivacyPolicyURL, logger),
		Permissions:      extractPermissions(root, logger),
		MetadataKeys:     root.Len(),
	}
	facts.HasPrivacyPolicy = strings.TrimSpace(facts.PrivacyPolicyURL) != ""
	facts.AllowsInsecureTransport = allowsInsecureTransport(root, logger)

	return facts
}

func stringField(d Dictionary, key string, logger utils.Logger) string {
	v, ok := d.Get(key)
	if !ok {
		return ""
	}
	s, ok := v.AsString()
	if !ok {
		logger.Debug("Info.plist key %s has type %s, expected string", key, v.Kind())
		return ""
	}
	return s
}

func boolField(d Dictionary, key string, logger utils.Logger) bool {
	v, ok := d.Get(key)
	if !ok {
		return false
	}
	b, ok := v.AsBool()
	if !ok {
		logger.Debug("Info.plist key %s has type %s, expected boolean", key, v.Kind())
		return false
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// deviceFamily accepts an integer array, or a bare integer as written by some build tools
func deviceFamily(d Dictionary, logger utils.Logger) []int64 {
	v, ok := d.Get(keyDeviceFamily)
	if !ok {
		return nil
	}
	if n, ok := v.AsInt(); ok {
		return []int64{n}
	}
	items, ok := v.AsArray()
	if !ok {
		logger.Debug("Info.plist key %s has type %s, expected array", keyDeviceFamily, v.Kind())
		return nil
	}
	var families []int64
	for _, item := range items {
		if n, ok := item.AsInt(); ok {
			families = append(families, n)
		}
	}
	return families
}

// allowsInsecureTransport reports whether the ATS policy permits cleartext HTTP,
// either globally or for any exception domain.
func allowsInsecureTransport(root Dictionary, logger utils.Logger) bool {
	v, ok := root.Get(keyTransportSecurity)
	if !ok {
		return false
	}
	ats, ok := v.AsDict()
	if !ok {
		logger.Debug("Info.plist key %s has type %s, expected dictionary", keyTransportSecurity, v.Kind())
		return false
	}

	if boolField(ats, keyAllowsArbitrary, logger) {
		return true
	}

	domains, ok := ats.Dict(keyExceptionDomains)
	if !ok {
		return false
	}
	for _, name := range domains.Keys() {
		cfg, ok := domains.Dict(name)
		if !ok {
			continue
		}
		if boolField(cfg, keyExceptionInsecure, logger) || boolField(cfg, keyThirdPartyInsecure, logger) {
			return true
		}
	}
	return false
}

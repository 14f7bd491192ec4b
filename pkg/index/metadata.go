package index

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

var ErrUnknownMetadataVersion = errors.New("unknown metadata version")

// metadataFields whitelists the package_info fields each metadata version
// recognizes. Note the singular "classifier": the upload form submits
// "classifiers" and the handler renames it before filtering.
var metadataFields = map[string][]string{
	MetadataV10: {
		"platform", "summary", "description", "keywords", "home_page",
		"author", "author_email", "license",
	},
	MetadataV11: {
		"platform", "supported_platform", "summary", "description",
		"keywords", "home_page", "download_url", "author", "author_email",
		"license", "classifier", "requires", "provides", "obsoletes",
	},
	MetadataV12: {
		"platform", "supported_platform", "summary", "description",
		"keywords", "home_page", "download_url", "author", "author_email",
		"maintainer", "maintainer_email", "license", "classifier",
		"requires_dist", "provides_dist", "obsoletes_dist",
		"requires_python", "requires_external", "project_url",
	},
}

const (
	MetadataV10 = "1.0"
	MetadataV11 = "1.1"
	MetadataV12 = "1.2"
)

// UnknownValueSentinel is what some clients send for a field they left
// blank; it is stripped before storage.
const UnknownValueSentinel = "UNKNOWN"

// MetadataFields returns the legal package_info field names for a metadata
// version. An unrecognized version is a hard error - callers reject the
// request rather than guess a default.
func MetadataFields(version string) ([]string, error) {
	fields, ok := metadataFields[version]
	if !ok {
		return nil, ErrUnknownMetadataVersion
	}
	return fields, nil
}

// KnownMetadataVersions returns the recognized versions, sorted, for error
// messages.
func KnownMetadataVersions() []string {
	versions := make([]string, 0, len(metadataFields))
	for v := range metadataFields {
		versions = append(versions, v)
	}
	sort.Strings(versions)
	return versions
}

func KnownMetadataVersionsString() string {
	return strings.Join(KnownMetadataVersions(), ", ")
}

// distFileTypes are the distribution archive types distutils produces.
var distFileTypes = map[string]string{
	"sdist":         "Source",
	"bdist_dumb":    `"dumb" binary`,
	"bdist_rpm":     "RPM",
	"bdist_wininst": "MS Windows installer",
	"bdist_egg":     "Python Egg",
	"bdist_dmg":     "OS X Disk Image",
}

func IsValidFileType(filetype string) bool {
	_, ok := distFileTypes[filetype]
	return ok
}

// DefaultFileType is assumed when a client uploads without declaring one.
const DefaultFileType = "sdist"

// pyVersionRE matches the target Python version a binary distribution
// declares, e.g. "2.7" or "3.10". Source distributions send an empty one.
var pyVersionRE = regexp.MustCompile(`^\d+\.\d+$`)

func IsValidPyVersion(pyversion string) bool {
	return pyversion == "" || pyversion == "any" || pyVersionRE.MatchString(pyversion)
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"path"
	"time"
)

// Permission is a maintainer's access level on a package.
type Permission int64

const (
	PermissionReadOnly  Permission = 1
	PermissionReadWrite Permission = 2
)

type Package struct {
	ID        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	OwnerID   int       `db:"owner_id"`
	Name      string    `db:"name"`
	Private   bool      `db:"private"`
	AutoHide  bool      `db:"auto_hide"`
}

type Maintainer struct {
	PackageID  int        `db:"package_id"`
	UserID     int        `db:"user_id"`
	Permission Permission `db:"permission"`
}

type Release struct {
	ID              int         `db:"id"`
	CreatedAt       time.Time   `db:"created_at"`
	PackageID       int         `db:"package_id"`
	Version         string      `db:"version"`
	MetadataVersion string      `db:"metadata_version"`
	PackageInfo     PackageInfo `db:"package_info"`
	Hidden          bool        `db:"hidden"`
}

type Distribution struct {
	ID         int       `db:"id"`
	CreatedAt  time.Time `db:"created_at"`
	ReleaseID  int       `db:"release_id"`
	Filetype   string    `db:"filetype"`
	Pyversion  string    `db:"pyversion"`
	Path       string    `db:"path"`
	MD5Digest  string    `db:"md5_digest"`
	Signature  string    `db:"signature"`
	Comment    string    `db:"comment"`
	UploaderID *int      `db:"uploader_id"`
}

// Filename is the base name a client uploaded this distribution under.
// Duplicate-upload detection compares on it.
func (d *Distribution) Filename() string {
	return path.Base(d.Path)
}

type Classifier struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

// PackageInfo is the release's multi-valued metadata mapping: a field name
// maps to an ordered list of string values (a release may carry several
// classifier entries, for example). Stored as jsonb.
type PackageInfo map[string][]string

func (m PackageInfo) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(PackageInfo{})
	}
	return json.Marshal(m)
}

func (m *PackageInfo) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		s, ok := src.(string)
		if !ok {
			return ErrInvalidPackageInfoSrcFormat
		}
		data = []byte(s)
	}
	return json.Unmarshal(data, m)
}

var ErrInvalidPackageInfoSrcFormat = errors.New("invalid package_info source format")

// Get returns the first value of a field, or an empty string.
func (m PackageInfo) Get(key string) string {
	values := m[key]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// GetList returns all values of a field.
func (m PackageInfo) GetList(key string) []string {
	return m[key]
}

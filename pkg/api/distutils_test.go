package api

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/pydist/pydist/pkg/index"
	"github.com/stretchr/testify/require"
)

func postForm(t *testing.T, form url.Values) *uploadRequest {
	t.Helper()
	r := httptest.NewRequest("POST", "/alice/pypi", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())
	req, err := decodeUploadRequest(r)
	require.NoError(t, err)
	return req
}

func postFormErr(t *testing.T, form url.Values) error {
	t.Helper()
	r := httptest.NewRequest("POST", "/alice/pypi", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, r.ParseForm())
	_, err := decodeUploadRequest(r)
	require.Error(t, err)
	return err
}

func TestDecodeUploadRequest_Defaults(t *testing.T) {
	req := postForm(t, url.Values{
		":action":          {"submit"},
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
	})
	require.Equal(t, index.MetadataV10, req.metadataVersion)
	require.Equal(t, index.DefaultFileType, req.filetype)
	require.Equal(t, "", req.pyversion)
}

func TestDecodeUploadRequest_MissingRequiredFields(t *testing.T) {
	err := postFormErr(t, url.Values{":action": {"submit"}, "version": {"0.1"}, "metadata_version": {"1.0"}})
	require.ErrorIs(t, err, index.ErrValidation)
	require.EqualError(t, err, "No package name specified")

	err = postFormErr(t, url.Values{":action": {"submit"}, "name": {"foo"}, "metadata_version": {"1.0"}})
	require.ErrorIs(t, err, index.ErrValidation)
	require.EqualError(t, err, "Release version and metadata version must be specified")

	// metadata_version is required; it is never defaulted
	err = postFormErr(t, url.Values{":action": {"submit"}, "name": {"foo"}, "version": {"0.1"}})
	require.ErrorIs(t, err, index.ErrValidation)
	require.EqualError(t, err, "Release version and metadata version must be specified")
}

func TestDecodeUploadRequest_TrimsRequiredFields(t *testing.T) {
	req := postForm(t, url.Values{
		"name":             {"  foo "},
		"version":          {" 0.1\t"},
		"metadata_version": {" 1.0 "},
	})
	require.Equal(t, "foo", req.name)
	require.Equal(t, "0.1", req.version)
	require.Equal(t, index.MetadataV10, req.metadataVersion)

	// all-whitespace is as good as absent
	err := postFormErr(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"   "},
	})
	require.ErrorIs(t, err, index.ErrValidation)
}

func TestDecodeUploadRequest_MetadataUpgrade(t *testing.T) {
	req := postForm(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
		"classifiers":      {"Programming Language :: Python"},
	})
	require.Equal(t, index.MetadataV11, req.metadataVersion)

	req = postForm(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
		"download_url":     {"http://example.com/foo-0.1.tar.gz"},
	})
	require.Equal(t, index.MetadataV11, req.metadataVersion)

	// presence of the field is enough, even when its values get stripped
	req = postForm(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
		"classifiers":      {"UNKNOWN"},
	})
	require.Equal(t, index.MetadataV11, req.metadataVersion)
	require.Empty(t, req.classifiers)

	// an explicit 1.2 is left alone
	req = postForm(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.2"},
	})
	require.Equal(t, index.MetadataV12, req.metadataVersion)
}

func TestDecodeUploadRequest_SingularClassifierField(t *testing.T) {
	req := postForm(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
		"classifier":       {"Programming Language :: Python"},
	})
	require.Equal(t, []string{"Programming Language :: Python"}, req.classifiers)
	require.Equal(t, index.MetadataV11, req.metadataVersion)
}

func TestDecodeUploadRequest_UnknownMetadataVersion(t *testing.T) {
	err := postFormErr(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"9.9"},
	})
	require.ErrorIs(t, err, index.ErrValidation)
	require.Contains(t, err.Error(), "9.9")
}

func TestDecodeUploadRequest_InvalidFiletype(t *testing.T) {
	err := postFormErr(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
		"filetype":         {"wheel"},
	})
	require.ErrorIs(t, err, index.ErrValidation)
}

func TestBuildPackageInfo(t *testing.T) {
	req := postForm(t, url.Values{
		"name":             {"foo"},
		"version":          {"0.1"},
		"metadata_version": {"1.0"},
		"summary":          {"a package"},
		"author":           {"UNKNOWN"},
		"license":          {""},
		"classifiers":      {"Development Status :: 3 - Alpha", "Programming Language :: Python"},
		"requires_python":  {">=2.6"},
	})
	require.Equal(t, index.MetadataV11, req.metadataVersion)

	info, err := buildPackageInfo(req)
	require.NoError(t, err)
	require.Equal(t, "a package", info.Get("summary"))
	// UNKNOWN and empty values are stripped
	require.Empty(t, info.GetList("author"))
	require.Empty(t, info.GetList("license"))
	// the form's plural "classifiers" lands under the singular field name
	require.Equal(t, []string{
		"Development Status :: 3 - Alpha",
		"Programming Language :: Python",
	}, info.GetList("classifier"))
	require.Empty(t, info.GetList("classifiers"))
	// 1.2-only fields do not leak into a 1.1 submission
	require.Empty(t, info.GetList("requires_python"))
}

func TestCleanValues(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, cleanValues([]string{"a", "", "UNKNOWN", "b"}))
	require.Empty(t, cleanValues([]string{"", "UNKNOWN"}))
}

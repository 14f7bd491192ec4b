package index_test

import (
	"testing"

	"github.com/pydist/pydist/pkg/index"
	"github.com/stretchr/testify/require"
)

func TestMetadataFields(t *testing.T) {
	fields, err := index.MetadataFields(index.MetadataV10)
	require.NoError(t, err)
	require.Contains(t, fields, "summary")
	require.NotContains(t, fields, "classifier")
	require.NotContains(t, fields, "download_url")

	fields, err = index.MetadataFields(index.MetadataV11)
	require.NoError(t, err)
	require.Contains(t, fields, "classifier")
	require.Contains(t, fields, "download_url")
	require.NotContains(t, fields, "requires_python")

	fields, err = index.MetadataFields(index.MetadataV12)
	require.NoError(t, err)
	require.Contains(t, fields, "requires_python")
	require.Contains(t, fields, "project_url")

	_, err = index.MetadataFields("2.0")
	require.ErrorIs(t, err, index.ErrUnknownMetadataVersion)
}

func TestKnownMetadataVersions(t *testing.T) {
	require.Equal(t, []string{"1.0", "1.1", "1.2"}, index.KnownMetadataVersions())
	require.Equal(t, "1.0, 1.1, 1.2", index.KnownMetadataVersionsString())
}

func TestIsValidFileType(t *testing.T) {
	for _, filetype := range []string{"sdist", "bdist_egg", "bdist_wininst", "bdist_rpm", "bdist_dumb", "bdist_dmg"} {
		require.True(t, index.IsValidFileType(filetype), filetype)
	}
	require.False(t, index.IsValidFileType("wheel"))
	require.False(t, index.IsValidFileType(""))
}

func TestIsValidPyVersion(t *testing.T) {
	for _, pyversion := range []string{"", "any", "2.7", "3.10"} {
		require.True(t, index.IsValidPyVersion(pyversion), pyversion)
	}
	for _, pyversion := range []string{"2", "2.7.1", "python2.7", "latest"} {
		require.False(t, index.IsValidPyVersion(pyversion), pyversion)
	}
}

func TestDistributionKey(t *testing.T) {
	key := index.DistributionKey("alice", "foo", "0.1", "foo-0.1.tar.gz")
	require.Equal(t, "dists/alice/foo/0.1/foo-0.1.tar.gz", key)
}

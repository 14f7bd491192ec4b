package index_test

import (
	"context"
	"testing"

	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/index"
	"github.com/pydist/pydist/pkg/index/model"
	"github.com/pydist/pydist/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) (db.Database, *auth.User) {
	t.Helper()
	database, _ := testutil.GetDB(t, databaseURI)
	authService := auth.NewDBAuthService(database)
	user, err := authService.CreateUser(context.Background(), "alice", "alice@example.com", "secret")
	require.NoError(t, err)
	return database, user
}

func TestGetOrCreatePackage(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	res, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		if err != nil {
			return nil, err
		}
		again, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		if err != nil {
			return nil, err
		}
		require.Equal(t, pkg.ID, again.ID)
		return pkg, nil
	})
	require.NoError(t, err)

	pkg := res.(*model.Package)
	require.Equal(t, "foo", pkg.Name)
	require.Equal(t, user.ID, pkg.OwnerID)
	// new packages start private with auto-hide on
	require.True(t, pkg.Private)
	require.True(t, pkg.AutoHide)
}

func TestGetPackageAbsent(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetPackage(tx, user.ID, "nope")
		require.NoError(t, err)
		require.Nil(t, pkg)
		return nil, nil
	})
	require.NoError(t, err)
}

func TestGetOrCreateRelease(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		require.NoError(t, err)

		release, created, err := index.GetOrCreateRelease(tx, pkg.ID, "0.1")
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, "0.1", release.Version)
		require.Equal(t, index.MetadataV10, release.MetadataVersion)
		require.False(t, release.Hidden)

		same, created, err := index.GetOrCreateRelease(tx, pkg.ID, "0.1")
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, release.ID, same.ID)
		return nil, nil
	})
	require.NoError(t, err)
}

func TestReplacePackageInfo(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		require.NoError(t, err)
		release, _, err := index.GetOrCreateRelease(tx, pkg.ID, "0.1")
		require.NoError(t, err)

		err = index.ReplacePackageInfo(tx, release.ID, index.MetadataV11, model.PackageInfo{
			"summary":    {"a package"},
			"classifier": {"Programming Language :: Python"},
		})
		require.NoError(t, err)

		// replace is whole, not a merge
		err = index.ReplacePackageInfo(tx, release.ID, index.MetadataV11, model.PackageInfo{
			"summary": {"new summary"},
		})
		require.NoError(t, err)
		return nil, nil
	})
	require.NoError(t, err)

	releases, err := index.ListReleases(ctx, database, mustPackageID(t, database, user.ID, "foo"), true)
	require.NoError(t, err)
	require.Len(t, releases, 1)
	require.Equal(t, index.MetadataV11, releases[0].MetadataVersion)
	require.Equal(t, "new summary", releases[0].PackageInfo.Get("summary"))
	require.Empty(t, releases[0].PackageInfo.GetList("classifier"))
}

func TestHideOtherReleases(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		require.NoError(t, err)
		first, _, err := index.GetOrCreateRelease(tx, pkg.ID, "0.1")
		require.NoError(t, err)
		second, _, err := index.GetOrCreateRelease(tx, pkg.ID, "0.2")
		require.NoError(t, err)
		require.NotEqual(t, first.ID, second.ID)
		return nil, index.HideOtherReleases(tx, pkg.ID, second.ID)
	})
	require.NoError(t, err)

	packageID := mustPackageID(t, database, user.ID, "foo")
	visible, err := index.ListReleases(ctx, database, packageID, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "0.2", visible[0].Version)

	all, err := index.ListReleases(ctx, database, packageID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)

	latest, err := index.LatestRelease(ctx, database, packageID)
	require.NoError(t, err)
	require.Equal(t, "0.2", latest.Version)
}

func TestClassifiers(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	names := []string{
		"Development Status :: 3 - Alpha",
		"Programming Language :: Python",
	}
	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		require.NoError(t, err)
		classifiers, err := index.AddClassifiers(tx, names)
		require.NoError(t, err)
		require.Len(t, classifiers, 2)
		require.NoError(t, index.LinkPackageClassifiers(tx, pkg.ID, classifiers))

		// resubmitting the same names reuses the rows and links
		again, err := index.AddClassifiers(tx, names)
		require.NoError(t, err)
		require.Equal(t, classifiers, again)
		require.NoError(t, index.LinkPackageClassifiers(tx, pkg.ID, again))
		return nil, nil
	})
	require.NoError(t, err)

	classifiers, err := index.ListClassifiers(ctx, database)
	require.NoError(t, err)
	require.Len(t, classifiers, 2)
	require.Equal(t, names[0], classifiers[0].Name)
}

func TestCreateDistributionUniqueness(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		require.NoError(t, err)
		release, _, err := index.GetOrCreateRelease(tx, pkg.ID, "0.1")
		require.NoError(t, err)

		uploaderID := user.ID
		dist := &model.Distribution{
			ReleaseID:  release.ID,
			Filetype:   "sdist",
			Pyversion:  "",
			Path:       index.DistributionKey("alice", "foo", "0.1", "foo-0.1.tar.gz"),
			MD5Digest:  "d41d8cd98f00b204e9800998ecf8427e",
			UploaderID: &uploaderID,
		}
		created, err := index.CreateDistribution(tx, dist)
		require.NoError(t, err)
		require.Equal(t, "foo-0.1.tar.gz", created.Filename())

		// same (release, filetype, pyversion) is rejected by the schema
		dist.Path = index.DistributionKey("alice", "foo", "0.1", "foo-0.1.zip")
		_, err = index.CreateDistribution(tx, dist)
		return nil, err
	})
	require.ErrorIs(t, err, db.ErrAlreadyExists)
}

func TestDistributionsRoundtrip(t *testing.T) {
	database, user := setupStore(t)
	ctx := context.Background()

	key := index.DistributionKey("alice", "foo", "0.1", "foo-0.1.tar.gz")
	_, err := database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, user.ID, "foo")
		require.NoError(t, err)
		release, _, err := index.GetOrCreateRelease(tx, pkg.ID, "0.1")
		require.NoError(t, err)

		uploaderID := user.ID
		_, err = index.CreateDistribution(tx, &model.Distribution{
			ReleaseID:  release.ID,
			Filetype:   "sdist",
			Path:       key,
			MD5Digest:  "d41d8cd98f00b204e9800998ecf8427e",
			UploaderID: &uploaderID,
		})
		require.NoError(t, err)

		distributions, err := index.ListDistributions(tx, release.ID)
		require.NoError(t, err)
		require.Len(t, distributions, 1)
		return nil, nil
	})
	require.NoError(t, err)

	dist, err := index.GetDistributionByPath(ctx, database, key)
	require.NoError(t, err)
	require.Equal(t, "foo-0.1.tar.gz", dist.Filename())
	require.Equal(t, "sdist", dist.Filetype)
}

func TestMaintainers(t *testing.T) {
	database, owner := setupStore(t)
	ctx := context.Background()

	authService := auth.NewDBAuthService(database)
	bob, err := authService.CreateUser(ctx, "bob", "bob@example.com", "secret")
	require.NoError(t, err)

	_, err = database.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		pkg, err := index.GetOrCreatePackage(tx, owner.ID, "foo")
		require.NoError(t, err)
		require.NoError(t, index.AddMaintainer(tx, pkg.ID, bob.ID, model.PermissionReadOnly))

		maintainers, err := index.ListMaintainers(tx, pkg.ID)
		require.NoError(t, err)
		require.Len(t, maintainers, 1)
		require.Equal(t, model.PermissionReadOnly, maintainers[0].Permission)

		// adding again upgrades the permission in place
		require.NoError(t, index.AddMaintainer(tx, pkg.ID, bob.ID, model.PermissionReadWrite))
		maintainers, err = index.ListMaintainers(tx, pkg.ID)
		require.NoError(t, err)
		require.Len(t, maintainers, 1)
		require.Equal(t, model.PermissionReadWrite, maintainers[0].Permission)

		require.NoError(t, index.RemoveMaintainer(tx, pkg.ID, bob.ID))
		maintainers, err = index.ListMaintainers(tx, pkg.ID)
		require.NoError(t, err)
		require.Empty(t, maintainers)
		return nil, nil
	})
	require.NoError(t, err)
}

func mustPackageID(t *testing.T, database db.Database, ownerID int, name string) int {
	t.Helper()
	pkg, err := index.GetPackageDB(context.Background(), database, ownerID, name)
	require.NoError(t, err)
	return pkg.ID
}

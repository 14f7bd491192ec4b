package index

import (
	"context"
	"errors"

	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/index/model"
)

const packageColumns = `id, created_at, owner_id, name, private, auto_hide`
const releaseColumns = `id, created_at, package_id, version, metadata_version, package_info, hidden`
const distributionColumns = `id, created_at, release_id, filetype, pyversion, path, md5_digest, signature, comment, uploader_id`

// GetPackage fetches the package named name under ownerID, or nil when no
// such package exists.
func GetPackage(tx db.Tx, ownerID int, name string) (*model.Package, error) {
	pkg := &model.Package{}
	err := tx.Get(pkg,
		`SELECT `+packageColumns+` FROM packages WHERE owner_id = $1 AND name = $2`,
		ownerID, name)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func CreatePackage(tx db.Tx, ownerID int, name string) (*model.Package, error) {
	pkg := &model.Package{}
	err := tx.Get(pkg,
		`INSERT INTO packages (owner_id, name) VALUES ($1, $2)
		 RETURNING `+packageColumns,
		ownerID, name)
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// GetOrCreatePackage creates the package if it is absent. Conflicts are
// resolved with ON CONFLICT DO NOTHING rather than by catching the unique
// violation, which would abort the surrounding transaction.
func GetOrCreatePackage(tx db.Tx, ownerID int, name string) (*model.Package, error) {
	pkg, err := GetPackage(tx, ownerID, name)
	if err != nil || pkg != nil {
		return pkg, err
	}
	pkg = &model.Package{}
	err = tx.Get(pkg,
		`INSERT INTO packages (owner_id, name) VALUES ($1, $2)
		 ON CONFLICT (owner_id, name) DO NOTHING
		 RETURNING `+packageColumns,
		ownerID, name)
	if errors.Is(err, db.ErrNotFound) {
		// lost a creation race, the row is there now
		return GetPackage(tx, ownerID, name)
	}
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func ListMaintainers(tx db.Tx, packageID int) ([]model.Maintainer, error) {
	var maintainers []model.Maintainer
	err := tx.Select(&maintainers,
		`SELECT package_id, user_id, permission FROM maintainers WHERE package_id = $1`,
		packageID)
	if err != nil {
		return nil, err
	}
	return maintainers, nil
}

// AddMaintainer grants userID access to the package. Only the owner calls
// this; the API layer enforces that.
func AddMaintainer(tx db.Tx, packageID, userID int, permission model.Permission) error {
	_, err := tx.Exec(
		`INSERT INTO maintainers (package_id, user_id, permission) VALUES ($1, $2, $3)
		 ON CONFLICT (package_id, user_id) DO UPDATE SET permission = EXCLUDED.permission`,
		packageID, userID, permission)
	return err
}

func RemoveMaintainer(tx db.Tx, packageID, userID int) error {
	_, err := tx.Exec(
		`DELETE FROM maintainers WHERE package_id = $1 AND user_id = $2`,
		packageID, userID)
	return err
}

// GetOrCreateRelease returns the release for (package, version), creating it
// when absent. The second return value reports whether this call created it.
func GetOrCreateRelease(tx db.Tx, packageID int, version string) (*model.Release, bool, error) {
	release := &model.Release{}
	err := tx.Get(release,
		`SELECT `+releaseColumns+` FROM releases WHERE package_id = $1 AND version = $2`,
		packageID, version)
	if err == nil {
		return release, false, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, false, err
	}
	err = tx.Get(release,
		`INSERT INTO releases (package_id, version) VALUES ($1, $2)
		 ON CONFLICT (package_id, version) DO NOTHING
		 RETURNING `+releaseColumns,
		packageID, version)
	if errors.Is(err, db.ErrNotFound) {
		// lost a creation race - the other transaction's row is the release
		err = tx.Get(release,
			`SELECT `+releaseColumns+` FROM releases WHERE package_id = $1 AND version = $2`,
			packageID, version)
		if err != nil {
			return nil, false, err
		}
		return release, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return release, true, nil
}

// ReplacePackageInfo overwrites the release's metadata mapping and metadata
// version. Replace, not merge: the caller already filtered info through the
// metadata version's field whitelist and stripped sentinel values.
func ReplacePackageInfo(tx db.Tx, releaseID int, metadataVersion string, info model.PackageInfo) error {
	_, err := tx.Exec(
		`UPDATE releases SET metadata_version = $2, package_info = $3 WHERE id = $1`,
		releaseID, metadataVersion, info)
	return err
}

// HideOtherReleases marks every release of the package except exceptID as
// hidden. Used by packages with auto_hide when a new release shows up.
func HideOtherReleases(tx db.Tx, packageID, exceptID int) error {
	_, err := tx.Exec(
		`UPDATE releases SET hidden = true WHERE package_id = $1 AND id <> $2`,
		packageID, exceptID)
	return err
}

// AddClassifiers resolves names to classifier rows with get-or-create
// semantics. A racing creation of the same name is resolved by re-reading,
// never by failing the request.
func AddClassifiers(tx db.Tx, names []string) ([]model.Classifier, error) {
	classifiers := make([]model.Classifier, 0, len(names))
	for _, name := range names {
		classifier := model.Classifier{}
		err := tx.Get(&classifier,
			`INSERT INTO classifiers (name) VALUES ($1)
			 ON CONFLICT (name) DO NOTHING
			 RETURNING id, name`, name)
		if errors.Is(err, db.ErrNotFound) {
			err = tx.Get(&classifier,
				`SELECT id, name FROM classifiers WHERE name = $1`, name)
		}
		if err != nil {
			return nil, err
		}
		classifiers = append(classifiers, classifier)
	}
	return classifiers, nil
}

// LinkPackageClassifiers associates classifiers with a package; existing
// associations are kept.
func LinkPackageClassifiers(tx db.Tx, packageID int, classifiers []model.Classifier) error {
	for _, classifier := range classifiers {
		_, err := tx.Exec(
			`INSERT INTO package_classifiers (package_id, classifier_id) VALUES ($1, $2)
			 ON CONFLICT (package_id, classifier_id) DO NOTHING`,
			packageID, classifier.ID)
		if err != nil {
			return err
		}
	}
	return nil
}

func ListDistributions(tx db.Tx, releaseID int) ([]model.Distribution, error) {
	var distributions []model.Distribution
	err := tx.Select(&distributions,
		`SELECT `+distributionColumns+` FROM distributions WHERE release_id = $1 ORDER BY created_at`,
		releaseID)
	if err != nil {
		return nil, err
	}
	return distributions, nil
}

// CreateDistribution records an uploaded artifact. db.ErrAlreadyExists means
// a distribution with the same (release, filetype, pyversion) exists.
func CreateDistribution(tx db.Tx, dist *model.Distribution) (*model.Distribution, error) {
	created := &model.Distribution{}
	err := tx.Get(created,
		`INSERT INTO distributions (release_id, filetype, pyversion, path, md5_digest, signature, comment, uploader_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+distributionColumns,
		dist.ReleaseID, dist.Filetype, dist.Pyversion, dist.Path,
		dist.MD5Digest, dist.Signature, dist.Comment, dist.UploaderID)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func DeleteDistribution(tx db.Tx, id int) error {
	_, err := tx.Exec(`DELETE FROM distributions WHERE id = $1`, id)
	return err
}

// Read-side queries below run outside the upload transaction; the browsing
// views are read-only consumers of the same data model.

func GetPackageDB(ctx context.Context, d db.Database, ownerID int, name string) (*model.Package, error) {
	pkg := &model.Package{}
	err := d.Get(ctx, pkg,
		`SELECT `+packageColumns+` FROM packages WHERE owner_id = $1 AND name = $2`,
		ownerID, name)
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

func ListPackages(ctx context.Context, d db.Database, ownerID int) ([]model.Package, error) {
	var packages []model.Package
	err := d.Select(ctx, &packages,
		`SELECT `+packageColumns+` FROM packages WHERE owner_id = $1 ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, err
	}
	return packages, nil
}

func ListMaintainersDB(ctx context.Context, d db.Database, packageID int) ([]model.Maintainer, error) {
	var maintainers []model.Maintainer
	err := d.Select(ctx, &maintainers,
		`SELECT package_id, user_id, permission FROM maintainers WHERE package_id = $1`,
		packageID)
	if err != nil {
		return nil, err
	}
	return maintainers, nil
}

func ListReleases(ctx context.Context, d db.Database, packageID int, includeHidden bool) ([]model.Release, error) {
	var releases []model.Release
	err := d.Select(ctx, &releases,
		`SELECT `+releaseColumns+` FROM releases
		 WHERE package_id = $1 AND (NOT hidden OR $2)
		 ORDER BY created_at DESC`,
		packageID, includeHidden)
	if err != nil {
		return nil, err
	}
	return releases, nil
}

// LatestRelease returns the most recently created visible release of a
// package, or db.ErrNotFound.
func LatestRelease(ctx context.Context, d db.Database, packageID int) (*model.Release, error) {
	release := &model.Release{}
	err := d.Get(ctx, release,
		`SELECT `+releaseColumns+` FROM releases
		 WHERE package_id = $1 AND NOT hidden
		 ORDER BY created_at DESC LIMIT 1`,
		packageID)
	if err != nil {
		return nil, err
	}
	return release, nil
}

func ListReleaseDistributions(ctx context.Context, d db.Database, releaseID int) ([]model.Distribution, error) {
	var distributions []model.Distribution
	err := d.Select(ctx, &distributions,
		`SELECT `+distributionColumns+` FROM distributions WHERE release_id = $1 ORDER BY created_at`,
		releaseID)
	if err != nil {
		return nil, err
	}
	return distributions, nil
}

// GetDistributionByPath resolves a stored artifact key back to its row, for
// the download view.
func GetDistributionByPath(ctx context.Context, d db.Database, path string) (*model.Distribution, error) {
	dist := &model.Distribution{}
	err := d.Get(ctx, dist,
		`SELECT `+distributionColumns+` FROM distributions WHERE path = $1`,
		path)
	if err != nil {
		return nil, err
	}
	return dist, nil
}

func ListClassifiers(ctx context.Context, d db.Database) ([]model.Classifier, error) {
	var classifiers []model.Classifier
	err := d.Select(ctx, &classifiers,
		`SELECT id, name FROM classifiers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return classifiers, nil
}

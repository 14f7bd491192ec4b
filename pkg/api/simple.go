package api

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/block"
	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/index"
	"github.com/pydist/pydist/pkg/index/model"
	"github.com/pydist/pydist/pkg/logging"
)

// The simple pages follow the flat anchor-list format pip and easy_install
// crawl: one link per package on the index page, one link per uploaded file
// on the package page, with the MD5 digest in the URL fragment.

var simpleIndexTemplate = template.Must(template.New("simple-index").Parse(`<!DOCTYPE html>
<html>
<head><title>Simple index for {{.Owner}}</title></head>
<body>
{{- range .Packages}}
<a href="{{.Name}}/">{{.Name}}</a><br/>
{{- end}}
</body>
</html>
`))

var simplePackageTemplate = template.Must(template.New("simple-package").Parse(`<!DOCTYPE html>
<html>
<head><title>Links for {{.Package}}</title></head>
<body>
<h1>Links for {{.Package}}</h1>
{{- range .Links}}
<a href="{{.Href}}">{{.Filename}}</a><br/>
{{- end}}
</body>
</html>
`))

type packageLink struct {
	Href     string
	Filename string
}

// SimpleIndexHandler lists an owner's packages visible to the requester.
func (c *Controller) SimpleIndexHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := c.Auth.GetUser(ctx, chi.URLParam(r, "owner"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	packages, err := index.ListPackages(ctx, c.DB, owner.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user := auth.GetUserFromContext(ctx)
	visible := make([]model.Package, 0, len(packages))
	for i := range packages {
		pkg := &packages[i]
		var maintainers []model.Maintainer
		if pkg.Private {
			maintainers, err = index.ListMaintainersDB(ctx, c.DB, pkg.ID)
			if err != nil {
				writeError(w, r, err)
				return
			}
		}
		if index.AuthorizeRead(user, pkg, maintainers) {
			visible = append(visible, *pkg)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = simpleIndexTemplate.Execute(w, struct {
		Owner    string
		Packages []model.Package
	}{Owner: owner.Username, Packages: visible})
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("render simple index")
	}
}

// SimplePackageHandler lists the download links of a package's visible
// releases. A private package the requester may not see renders as 404, the
// same as a package that does not exist.
func (c *Controller) SimplePackageHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerName := chi.URLParam(r, "owner")
	owner, err := c.Auth.GetUser(ctx, ownerName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pkg, _, ok := c.visiblePackage(w, r, owner, chi.URLParam(r, "package"))
	if !ok {
		return
	}
	releases, err := index.ListReleases(ctx, c.DB, pkg.ID, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var links []packageLink
	for i := range releases {
		distributions, err := index.ListReleaseDistributions(ctx, c.DB, releases[i].ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for j := range distributions {
			dist := &distributions[j]
			links = append(links, packageLink{
				Href: fmt.Sprintf("/%s/dists/%s/%s/%s#md5=%s",
					ownerName, pkg.Name, releases[i].Version, dist.Filename(), dist.MD5Digest),
				Filename: dist.Filename(),
			})
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = simplePackageTemplate.Execute(w, struct {
		Package string
		Links   []packageLink
	}{Package: pkg.Name, Links: links})
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("render simple package page")
	}
}

// DownloadHandler streams a stored distribution archive.
func (c *Controller) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerName := chi.URLParam(r, "owner")
	owner, err := c.Auth.GetUser(ctx, ownerName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	pkg, _, ok := c.visiblePackage(w, r, owner, chi.URLParam(r, "package"))
	if !ok {
		return
	}
	filename := chi.URLParam(r, "filename")
	key := index.DistributionKey(ownerName, pkg.Name, chi.URLParam(r, "version"), filename)
	dist, err := index.GetDistributionByPath(ctx, c.DB, key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reader, err := c.Adapter.Get(ctx, key)
	if errors.Is(err, block.ErrDataNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = reader.Close() }()
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("ETag", `"`+dist.MD5Digest+`"`)
	if _, err := io.Copy(w, reader); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("key", key).
			Debug("download copy interrupted")
	}
}

// ListClassifiersHandler returns all known trove classifiers, one per line.
func (c *Controller) ListClassifiersHandler(w http.ResponseWriter, r *http.Request) {
	classifiers, err := index.ListClassifiers(r.Context(), c.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var b strings.Builder
	for _, classifier := range classifiers {
		b.WriteString(classifier.Name)
		b.WriteString("\n")
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, b.String())
}

// visiblePackage resolves a package and enforces read visibility, writing a
// 404 itself when the package is missing or hidden from the requester.
func (c *Controller) visiblePackage(w http.ResponseWriter, r *http.Request, owner *auth.User, name string) (*model.Package, []model.Maintainer, bool) {
	ctx := r.Context()
	pkg, err := index.GetPackageDB(ctx, c.DB, owner.ID, name)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		writeError(w, r, err)
		return nil, nil, false
	}
	var maintainers []model.Maintainer
	if pkg.Private {
		maintainers, err = index.ListMaintainersDB(ctx, c.DB, pkg.ID)
		if err != nil {
			writeError(w, r, err)
			return nil, nil, false
		}
	}
	if !index.AuthorizeRead(auth.GetUserFromContext(ctx), pkg, maintainers) {
		http.Error(w, "not found", http.StatusNotFound)
		return nil, nil, false
	}
	return pkg, maintainers, true
}

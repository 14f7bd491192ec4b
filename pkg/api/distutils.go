package api

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/block"
	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/index"
	"github.com/pydist/pydist/pkg/index/model"
	"github.com/pydist/pydist/pkg/logging"
)

const (
	// multipartMemory is how much of an upload form is held in memory before
	// spilling to disk.
	multipartMemory = 32 << 20

	// maxSignatureSize caps the gpg_signature file part; armored signatures
	// are a few KB at most.
	maxSignatureSize = 64 << 10

	actionFieldName  = ":action"
	contentFieldName = "content"
)

// uploadRequest is the distutils form decoded into one value.
type uploadRequest struct {
	owner           string
	name            string
	version         string
	metadataVersion string
	filetype        string
	pyversion       string
	md5Digest       string
	comment         string
	classifiers     []string
	signature       string
	form            map[string][]string
}

// HandleDistutils dispatches a legacy distutils POST by its :action form
// field. submit and file_upload share one code path; submit is simply an
// upload without a content part.
func (c *Controller) HandleDistutils(w http.ResponseWriter, r *http.Request) {
	user := auth.RequireUser(w, r)
	if user == nil {
		return
	}
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		http.Error(w, "bad Content-Type", http.StatusBadRequest)
		return
	}
	if contentType == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		http.Error(w, "malformed form data", http.StatusBadRequest)
		return
	}

	action := r.PostFormValue(actionFieldName)
	ctx := logging.AddFields(r.Context(), logging.Fields{logging.ActionFieldKey: action})
	r = r.WithContext(ctx)

	switch action {
	case "submit", "file_upload":
		c.registerOrUpload(w, r, user)
	case "list_classifiers":
		c.ListClassifiersHandler(w, r)
	default:
		http.Error(w, "Unknown action", http.StatusBadRequest)
	}
}

func (c *Controller) registerOrUpload(w http.ResponseWriter, r *http.Request, actor *auth.User) {
	req, err := decodeUploadRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	r = r.WithContext(logging.AddFields(r.Context(), logging.Fields{
		logging.OwnerFieldKey:   req.owner,
		logging.PackageFieldKey: req.name,
		logging.VersionFieldKey: req.version,
	}))

	var content io.Reader
	filename := ""
	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File[contentFieldName]; len(headers) > 0 {
			filename = path.Base(headers[0].Filename)
			if filename == "" || filename == "." || filename == ".." || filename == "/" {
				writeError(w, r, &index.ValidationError{Message: "invalid upload filename"})
				return
			}
			file, err := headers[0].Open()
			if err != nil {
				writeError(w, r, err)
				return
			}
			defer func() { _ = file.Close() }()
			content = file
		}
		if headers := r.MultipartForm.File["gpg_signature"]; len(headers) > 0 {
			sig, err := readSignature(headers[0])
			if err != nil {
				writeError(w, r, err)
				return
			}
			req.signature = sig
		}
	}

	body, err := c.upload(r, actor, req, filename, content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// upload runs the whole register-or-upload operation inside one serializable
// transaction. The archive is written to the blockstore from within the
// transaction, after every validation that can fail has passed; if the
// transaction still fails afterwards (including at commit) the freshly
// written object is removed so no orphan blob outlives a failed request.
func (c *Controller) upload(r *http.Request, actor *auth.User, req *uploadRequest, filename string, content io.Reader) (string, error) {
	ctx := r.Context()
	storedKey := ""
	inPlace := false
	var replacedKeys []string

	res, err := c.DB.Transact(ctx, func(tx db.Tx) (interface{}, error) {
		storedKey = ""
		inPlace = false
		replacedKeys = replacedKeys[:0]

		owner, err := auth.GetUserTx(tx, req.owner)
		if err != nil {
			return nil, err
		}
		pkg, err := index.GetPackage(tx, owner.ID, req.name)
		if err != nil {
			return nil, err
		}
		var maintainers []model.Maintainer
		if pkg != nil {
			maintainers, err = index.ListMaintainers(tx, pkg.ID)
			if err != nil {
				return nil, err
			}
		}
		if err := index.Authorize(actor, owner, pkg, maintainers); err != nil {
			return nil, err
		}
		if pkg == nil {
			pkg, err = index.CreatePackage(tx, owner.ID, req.name)
			if err != nil {
				return nil, err
			}
		}

		release, created, err := index.GetOrCreateRelease(tx, pkg.ID, req.version)
		if err != nil {
			return nil, err
		}
		if created && pkg.AutoHide {
			if err := index.HideOtherReleases(tx, pkg.ID, release.ID); err != nil {
				return nil, err
			}
		}

		info, err := buildPackageInfo(req)
		if err != nil {
			return nil, err
		}
		if err := index.ReplacePackageInfo(tx, release.ID, req.metadataVersion, info); err != nil {
			return nil, err
		}
		if len(req.classifiers) > 0 {
			classifiers, err := index.AddClassifiers(tx, req.classifiers)
			if err != nil {
				return nil, err
			}
			if err := index.LinkPackageClassifiers(tx, pkg.ID, classifiers); err != nil {
				return nil, err
			}
		}

		if content == nil {
			return "release registered", nil
		}

		key := index.DistributionKey(owner.Username, pkg.Name, release.Version, filename)
		existing, err := index.ListDistributions(tx, release.ID)
		if err != nil {
			return nil, err
		}
		for _, dist := range existing {
			if dist.Filename() != filename {
				continue
			}
			if !c.AllowOverwrite {
				return nil, index.ErrDuplicateFilename
			}
			if err := index.DeleteDistribution(tx, dist.ID); err != nil {
				return nil, err
			}
			if dist.Path == key {
				inPlace = true
			} else {
				replacedKeys = append(replacedKeys, dist.Path)
			}
		}

		// a live object at the destination with no distribution row is an
		// orphan of an earlier failed request; it gets overwritten
		if !inPlace {
			exists, err := c.Adapter.Exists(ctx, key)
			if err != nil {
				return nil, err
			}
			if exists {
				c.log.WithField("key", key).Warn("overwriting orphaned object")
			}
		}

		// the transaction may retry on serialization failure; rewind the
		// upload so the archive is hashed and written from the start again
		if seeker, ok := content.(io.Seeker); ok {
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return nil, err
			}
		}
		hashingReader := block.NewHashingReader(content, block.HashFunctionMD5, block.HashFunctionSHA256)
		if _, err := c.Adapter.Put(ctx, key, hashingReader); err != nil {
			return nil, err
		}
		storedKey = key
		digest := hex.EncodeToString(hashingReader.Md5.Sum(nil))
		if req.md5Digest != "" && !strings.EqualFold(req.md5Digest, digest) {
			return nil, &index.ValidationError{Message: "MD5 digest does not match uploaded content"}
		}

		uploaderID := actor.ID
		_, err = index.CreateDistribution(tx, &model.Distribution{
			ReleaseID:  release.ID,
			Filetype:   req.filetype,
			Pyversion:  req.pyversion,
			Path:       key,
			MD5Digest:  digest,
			Signature:  req.signature,
			Comment:    req.comment,
			UploaderID: &uploaderID,
		})
		if errors.Is(err, db.ErrAlreadyExists) {
			return nil, &index.ValidationError{
				Message: fmt.Sprintf("a %s distribution for Python %q already exists for this release", req.filetype, req.pyversion),
			}
		}
		if err != nil {
			return nil, err
		}
		return "upload accepted", nil
	})

	log := logging.FromContext(ctx)
	if err != nil {
		if storedKey != "" && !inPlace {
			if removeErr := c.Adapter.Remove(ctx, storedKey); removeErr != nil {
				log.WithError(removeErr).WithField("key", storedKey).
					Warn("could not remove orphaned upload")
			}
		}
		return "", err
	}
	for _, key := range replacedKeys {
		if removeErr := c.Adapter.Remove(ctx, key); removeErr != nil {
			log.WithError(removeErr).WithField("key", key).
				Warn("could not remove replaced distribution")
		}
	}
	return res.(string), nil
}

func decodeUploadRequest(r *http.Request) (*uploadRequest, error) {
	req := &uploadRequest{
		owner:           chi.URLParam(r, "owner"),
		name:            strings.TrimSpace(r.PostFormValue("name")),
		version:         strings.TrimSpace(r.PostFormValue("version")),
		metadataVersion: strings.TrimSpace(r.PostFormValue("metadata_version")),
		filetype:        r.PostFormValue("filetype"),
		pyversion:       r.PostFormValue("pyversion"),
		md5Digest:       r.PostFormValue("md5_digest"),
		comment:         r.PostFormValue("comment"),
		// distutils sends the plural field name; newer clients the singular
		classifiers: cleanValues(append(r.PostForm["classifiers"], r.PostForm["classifier"]...)),
		form:        r.PostForm,
	}
	if req.name == "" {
		return nil, &index.ValidationError{Message: "No package name specified"}
	}
	if req.version == "" || req.metadataVersion == "" {
		return nil, &index.ValidationError{Message: "Release version and metadata version must be specified"}
	}
	// 1.0 submissions that carry 1.1-only fields are upgraded, matching what
	// old distutils clients actually send. Mere presence of the field counts,
	// even when every value is blank or UNKNOWN.
	if req.metadataVersion == index.MetadataV10 && hasAnyField(r.PostForm, "classifiers", "classifier", "download_url") {
		req.metadataVersion = index.MetadataV11
	}
	if _, err := index.MetadataFields(req.metadataVersion); err != nil {
		return nil, &index.ValidationError{
			Message: fmt.Sprintf("unsupported metadata version %q (expected one of %s)",
				req.metadataVersion, index.KnownMetadataVersionsString()),
		}
	}
	if req.filetype == "" {
		req.filetype = index.DefaultFileType
	}
	if !index.IsValidFileType(req.filetype) {
		return nil, &index.ValidationError{Message: fmt.Sprintf("invalid filetype %q", req.filetype)}
	}
	if !index.IsValidPyVersion(req.pyversion) {
		return nil, &index.ValidationError{Message: fmt.Sprintf("invalid pyversion %q", req.pyversion)}
	}
	return req, nil
}

// buildPackageInfo filters the submitted form down to the fields the
// request's metadata version recognizes. The form's "classifiers" values are
// stored under the singular "classifier" field, and blank or UNKNOWN values
// are dropped.
func buildPackageInfo(req *uploadRequest) (model.PackageInfo, error) {
	fields, err := index.MetadataFields(req.metadataVersion)
	if err != nil {
		return nil, err
	}
	info := model.PackageInfo{}
	for _, field := range fields {
		var values []string
		if field == "classifier" {
			values = req.classifiers
		} else {
			values = cleanValues(req.form[field])
		}
		if len(values) > 0 {
			info[field] = values
		}
	}
	return info, nil
}

func hasAnyField(form url.Values, names ...string) bool {
	for _, name := range names {
		if _, ok := form[name]; ok {
			return true
		}
	}
	return false
}

func cleanValues(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || v == index.UnknownValueSentinel {
			continue
		}
		cleaned = append(cleaned, v)
	}
	return cleaned
}

func readSignature(header *multipart.FileHeader) (string, error) {
	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()
	sig, err := io.ReadAll(io.LimitReader(file, maxSignatureSize+1))
	if err != nil {
		return "", err
	}
	if len(sig) > maxSignatureSize {
		return "", &index.ValidationError{Message: "gpg_signature too large"}
	}
	return string(sig), nil
}

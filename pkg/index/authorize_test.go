package index_test

import (
	"errors"
	"testing"

	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/index"
	"github.com/pydist/pydist/pkg/index/model"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	owner := &auth.User{ID: 1, Username: "alice"}
	maintainer := &auth.User{ID: 2, Username: "bob"}
	stranger := &auth.User{ID: 3, Username: "mallory"}
	pkg := &model.Package{ID: 10, OwnerID: owner.ID, Name: "foo"}

	tests := []struct {
		name        string
		actor       *auth.User
		pkg         *model.Package
		maintainers []model.Maintainer
		wantErr     bool
		wantReason  string
	}{
		{
			name:  "owner_creates_new_package",
			actor: owner,
		},
		{
			name:       "stranger_creates_on_other_account",
			actor:      stranger,
			wantErr:    true,
			wantReason: "You can not create a package on someone else's account.",
		},
		{
			name:  "owner_updates_own_package",
			actor: owner,
			pkg:   pkg,
		},
		{
			name:       "stranger_updates_package",
			actor:      stranger,
			pkg:        pkg,
			wantErr:    true,
			wantReason: "You are not a maintainer of foo",
		},
		{
			name:  "read_write_maintainer_updates",
			actor: maintainer,
			pkg:   pkg,
			maintainers: []model.Maintainer{
				{PackageID: pkg.ID, UserID: maintainer.ID, Permission: model.PermissionReadWrite},
			},
		},
		{
			name:  "read_only_maintainer_updates",
			actor: maintainer,
			pkg:   pkg,
			maintainers: []model.Maintainer{
				{PackageID: pkg.ID, UserID: maintainer.ID, Permission: model.PermissionReadOnly},
			},
			wantErr:    true,
			wantReason: "You can not update packages",
		},
		{
			name:  "maintainer_record_for_someone_else",
			actor: stranger,
			pkg:   pkg,
			maintainers: []model.Maintainer{
				{PackageID: pkg.ID, UserID: maintainer.ID, Permission: model.PermissionReadWrite},
			},
			wantErr:    true,
			wantReason: "You are not a maintainer of foo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := index.Authorize(tt.actor, owner, tt.pkg, tt.maintainers)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.Is(err, index.ErrNotAuthorized))
			var notAuthorized *index.NotAuthorizedError
			require.True(t, errors.As(err, &notAuthorized))
			require.Equal(t, tt.wantReason, notAuthorized.Reason)
		})
	}
}

func TestAuthorizeRead(t *testing.T) {
	owner := &auth.User{ID: 1, Username: "alice"}
	maintainer := &auth.User{ID: 2, Username: "bob"}
	stranger := &auth.User{ID: 3, Username: "mallory"}
	maintainers := []model.Maintainer{
		{PackageID: 10, UserID: maintainer.ID, Permission: model.PermissionReadOnly},
	}

	public := &model.Package{ID: 10, OwnerID: owner.ID, Name: "foo", Private: false}
	private := &model.Package{ID: 10, OwnerID: owner.ID, Name: "foo", Private: true}

	require.True(t, index.AuthorizeRead(nil, public, nil))
	require.True(t, index.AuthorizeRead(stranger, public, nil))

	require.False(t, index.AuthorizeRead(nil, private, maintainers))
	require.False(t, index.AuthorizeRead(stranger, private, maintainers))
	require.True(t, index.AuthorizeRead(owner, private, maintainers))
	require.True(t, index.AuthorizeRead(maintainer, private, maintainers))
}

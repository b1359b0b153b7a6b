package gogit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/vcs/gitexec"
	"github.com/matzehuels/gitdag/pkg/vcs/gogit"
	"github.com/matzehuels/gitdag/pkg/vcs/vcstest"
)

func TestResolve(t *testing.T) {
	f := vcstest.NewFork(t)
	b, err := gogit.Open(f.Dir)
	require.NoError(t, err)
	ctx := context.Background()

	tests := []struct {
		ref  string
		want string
	}{
		{"main", f.Merge},
		{"feature-b", f.B1},
		{"refs/heads/feature-a", f.A2},
		{"v1.0", f.Base},
		{f.A1, f.A1},
		{"main~1", f.Main1},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			id, err := b.Resolve(ctx, tt.ref)
			require.NoError(t, err)
			assert.Equal(t, ancestry.CommitID(tt.want), id)
		})
	}

	_, err = b.Resolve(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ancestry.ErrUnknownReference)
}

func TestOpenRejectsNonRepository(t *testing.T) {
	_, err := gogit.Open(t.TempDir())
	assert.Error(t, err)
}

// TestAgreesWithGit checks every pairwise answer against the git binary.
func TestAgreesWithGit(t *testing.T) {
	f := vcstest.NewFork(t)
	ctx := context.Background()
	native, err := gogit.Open(f.Dir)
	require.NoError(t, err)
	exe, err := gitexec.Open(ctx, f.Dir)
	require.NoError(t, err)

	ids := []ancestry.CommitID{
		ancestry.CommitID(f.Base), ancestry.CommitID(f.Main1), ancestry.CommitID(f.A1),
		ancestry.CommitID(f.A2), ancestry.CommitID(f.B1), ancestry.CommitID(f.Merge),
	}
	for _, a := range ids {
		for _, b := range ids {
			want, err := exe.CommonAncestor(ctx, a, b)
			require.NoError(t, err)
			got, err := native.CommonAncestor(ctx, a, b)
			require.NoError(t, err)
			assert.Equal(t, want, got, "merge base of %s and %s", a.Short(), b.Short())

			wantN, err := exe.Distance(ctx, a, b)
			require.NoError(t, err)
			gotN, err := native.Distance(ctx, a, b)
			require.NoError(t, err)
			assert.Equal(t, wantN, gotN, "distance %s..%s", a.Short(), b.Short())
		}
	}
}

func TestBuildGraph(t *testing.T) {
	f := vcstest.NewFork(t)
	b, err := gogit.Open(f.Dir)
	require.NoError(t, err)
	ctx := context.Background()

	g := ancestry.New(b)
	for _, ref := range []string{"feature-b", "main", "feature-a"} {
		_, err := g.Add(ctx, ref)
		require.NoError(t, err, "Add(%s)", ref)
	}
	require.NoError(t, g.Validate())

	preds, err := g.DirectPredecessors(ancestry.CommitID(f.Merge))
	require.NoError(t, err)
	assert.Equal(t, []ancestry.CommitID{ancestry.CommitID(f.A2)}, preds)

	preds, err = g.DirectPredecessors(ancestry.CommitID(f.B1))
	require.NoError(t, err)
	assert.Equal(t, []ancestry.CommitID{ancestry.CommitID(f.A1)}, preds)
}

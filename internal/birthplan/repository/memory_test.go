package repository

import (
	"context"
	"testing"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoCRUD(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	d := &birthplan.Document{OwnerID: "u1", Fields: birthplan.Fields{CompanionName: "Ana", CompanionRelationship: "Irmã"}}
	created, err := r.Create(ctx, d)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana", got.CompanionName)

	byOwner, err := r.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, created.ID, byOwner.ID)

	replaced, err := r.Replace(ctx, created.ID, birthplan.Fields{BirthPosition: birthplan.BirthPositionFree})
	require.NoError(t, err)
	require.Empty(t, replaced.CompanionName, "replace must not merge old fields")
	require.Equal(t, birthplan.BirthPositionFree, replaced.BirthPosition)
	require.Equal(t, "u1", replaced.OwnerID)

	require.NoError(t, r.Delete(ctx, created.ID))
	_, err = r.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.GetByOwner(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, r.Delete(ctx, created.ID), ErrNotFound)
}

func TestMemoryRepo_OnePerOwner(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	_, err := r.Create(ctx, &birthplan.Document{OwnerID: "u1"})
	require.NoError(t, err)
	_, err = r.Create(ctx, &birthplan.Document{OwnerID: "u1"})
	require.ErrorIs(t, err, ErrOwnerExists)

	_, err = r.Create(ctx, &birthplan.Document{OwnerID: "u2"})
	require.NoError(t, err)
}

func TestMemoryRepo_ReturnsCopies(t *testing.T) {
	r := NewMemoryRepo()
	ctx := context.Background()
	created, err := r.Create(ctx, &birthplan.Document{OwnerID: "u1", Fields: birthplan.Fields{
		PainReliefMethods: birthplan.PainReliefSet{birthplan.PainReliefMassage},
	}})
	require.NoError(t, err)

	created.CompanionName = "mutated"
	created.PainReliefMethods[0] = birthplan.PainReliefSwissBall

	got, err := r.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Empty(t, got.CompanionName)
	require.Equal(t, birthplan.PainReliefMassage, got.PainReliefMethods[0])
}

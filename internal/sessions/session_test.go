package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSession_SignInOut(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := Open(ctx, store)
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())
	require.Nil(t, s.CurrentUser())

	u := &models.User{ID: "u1", Name: "Maria Silva", Username: "maria", PasswordHash: "secret"}
	require.NoError(t, s.SignIn(ctx, u, "tok"))
	require.True(t, s.IsAuthenticated())
	require.Equal(t, "tok", s.Token())
	require.Equal(t, "Maria Silva", s.CurrentUser().Name)

	// the hash never reaches storage
	raw, ok, _ := store.Get(ctx, KeyUser)
	require.True(t, ok)
	require.NotContains(t, raw, "secret")

	// a second Open sees the persisted session
	again, err := Open(ctx, store)
	require.NoError(t, err)
	require.True(t, again.IsAuthenticated())
	require.Equal(t, "u1", again.CurrentUser().ID)

	require.NoError(t, s.SignOut(ctx))
	require.False(t, s.IsAuthenticated())
	for _, k := range []string{KeyUser, KeyAuthToken} {
		_, ok, _ := store.Get(ctx, k)
		require.False(t, ok, k)
	}
}

func TestSession_CurrentUserIsACopy(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, s.SignIn(ctx, &models.User{ID: "u1", Name: "Ana"}, "tok"))

	s.CurrentUser().Name = "mutated"
	require.Equal(t, "Ana", s.CurrentUser().Name)
}

func TestOpen_DiscardsBrokenState(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyUser, "{not json"))
	require.NoError(t, store.Set(ctx, KeyAuthToken, "tok"))
	s, err := Open(ctx, store)
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())

	// profile without the auth marker
	store = NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyUser, `{"id":"u1","name":"Ana"}`))
	s, err = Open(ctx, store)
	require.NoError(t, err)
	require.False(t, s.IsAuthenticated())
}

func TestSession_SignInRequiresToken(t *testing.T) {
	s, err := Open(context.Background(), NewMemoryStore())
	require.NoError(t, err)
	require.Error(t, s.SignIn(context.Background(), &models.User{ID: "u1"}, ""))
	require.Error(t, s.SignIn(context.Background(), nil, "tok"))
}

type failingStore struct{ *MemoryStore }

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func TestOpen_StoreError(t *testing.T) {
	_, err := Open(context.Background(), failingStore{NewMemoryStore()})
	require.Error(t, err)
}

func TestSession_Close(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, s.SignIn(ctx, &models.User{ID: "u1"}, "tok"))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.SignIn(ctx, &models.User{ID: "u2"}, "tok2"), ErrClosed)
	require.Equal(t, "u1", s.CurrentUser().ID)
	require.ErrorIs(t, s.SignOut(ctx), ErrClosed)
	require.False(t, s.IsAuthenticated())
}

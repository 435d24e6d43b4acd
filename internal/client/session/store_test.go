package session

import (
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophfeed/internal/client/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestNewStore_StartsUnauthenticated(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()

	assert.False(t, snap.Authenticated())
	assert.Zero(t, snap.Identity)
	assert.Empty(t, snap.Credential)
	assert.Zero(t, snap.Generation)
}

func TestSetThenClear_ReturnsToUnauthenticated(t *testing.T) {
	s := NewStore()

	s.Set(5, "tok")
	snap := s.Snapshot()
	assert.True(t, snap.Authenticated())
	assert.Equal(t, models.UserID(5), snap.Identity)
	assert.Equal(t, "tok", snap.Credential)

	s.Clear()
	snap = s.Snapshot()
	assert.False(t, snap.Authenticated())
	assert.Zero(t, snap.Identity)
	assert.Empty(t, snap.Credential)
}

func TestSet_IncompleteSessionClears(t *testing.T) {
	s := NewStore()
	s.Set(5, "tok")

	s.Set(0, "orphan")
	assert.False(t, s.Snapshot().Authenticated())

	s.Set(5, "tok")
	s.Set(5, "")
	assert.False(t, s.Snapshot().Authenticated())
	assert.Zero(t, s.Snapshot().Identity)
}

func TestUpdateCredential_KeepsIdentity(t *testing.T) {
	s := NewStore()
	s.Set(5, "old")

	s.UpdateCredential("new")

	snap := s.Snapshot()
	assert.Equal(t, models.UserID(5), snap.Identity)
	assert.Equal(t, "new", snap.Credential)
}

func TestUpdateCredential_NoopWhileUnauthenticated(t *testing.T) {
	s := NewStore()

	s.UpdateCredential("tok")

	assert.False(t, s.Snapshot().Authenticated())
	assert.Zero(t, s.Snapshot().Generation)
}

func TestGeneration_BumpsOnlyOnChange(t *testing.T) {
	s := NewStore()

	s.Clear()
	assert.Zero(t, s.Snapshot().Generation, "clearing an empty store changes nothing")

	s.Set(5, "tok")
	g1 := s.Snapshot().Generation
	assert.Equal(t, uint64(1), g1)

	s.Set(5, "tok")
	assert.Equal(t, g1, s.Snapshot().Generation, "equivalent overwrite keeps generation")

	s.UpdateCredential("tok2")
	assert.Equal(t, g1+1, s.Snapshot().Generation)
}

func TestSet_ReadsJWTExpiry(t *testing.T) {
	s := NewStore()
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)

	s.Set(5, signedToken(t, exp))

	snap := s.Snapshot()
	assert.True(t, exp.Equal(snap.ExpiresAt))
	assert.False(t, snap.Expired(time.Now()))
	assert.True(t, snap.Expired(exp.Add(time.Second)))
}

func TestSet_OpaqueTokenHasNoExpiry(t *testing.T) {
	s := NewStore()
	s.Set(5, "not-a-jwt")

	snap := s.Snapshot()
	assert.True(t, snap.ExpiresAt.IsZero())
	assert.False(t, snap.Expired(time.Now().Add(100*time.Hour)))
}

func TestSubscribe_ReceivesSnapshotsUntilUnsubscribed(t *testing.T) {
	s := NewStore()

	var got []Session
	unsubscribe := s.Subscribe(func(snap Session) { got = append(got, snap) })

	s.Set(5, "tok")
	s.Clear()
	unsubscribe()
	s.Set(6, "tok6")

	require.Len(t, got, 2)
	assert.Equal(t, models.UserID(5), got[0].Identity)
	assert.False(t, got[1].Authenticated())
}

func TestConcurrentReadersNeverSeeTornState(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				s.Set(models.UserID(i+1), "tok")
			} else {
				s.Clear()
			}
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				if (snap.Identity == 0) != (snap.Credential == "") {
					t.Errorf("torn snapshot: %+v", snap)
					return
				}
			}
		}()
	}

	wg.Wait()
}

package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

func TestAuth_ExampleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.subs.add("Marie Ngo", "+237651987468", nil, nil)

	check, err := f.auth.Check(ctx, "6 51 98 74 68")
	require.NoError(t, err)
	assert.False(t, check.HasPIN)
	assert.Equal(t, "Marie Ngo", check.SubscriberName)

	enrolled, err := f.auth.Enroll(ctx, "+237651987468", "1234")
	require.NoError(t, err)
	require.NotEmpty(t, enrolled.Token)

	_, err = f.auth.Login(ctx, "+237651987468", "9999")
	assert.True(t, IsKind(err, KindInvalidCredential))

	loggedIn, err := f.auth.Login(ctx, "+237651987468", "1234")
	require.NoError(t, err)
	assert.NotEqual(t, enrolled.Token, loggedIn.Token)

	id, err := f.auth.Validate(ctx, loggedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, id)

	check, err = f.auth.Check(ctx, "237651987468")
	require.NoError(t, err)
	assert.True(t, check.HasPIN)

	stored := f.subs.get(sub.ID)
	require.NotNil(t, stored.LastLoginAt)
	require.NotNil(t, stored.PINSetAt)
}

func TestAuth_CheckErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Check(ctx, "699000000")
	assert.True(t, IsKind(err, KindNotFound))

	_, err = f.auth.Check(ctx, "  ")
	assert.True(t, IsKind(err, KindValidation))

	f.subs.findErr = errors.New("connection reset")
	_, err = f.auth.Check(ctx, "699000000")
	assert.Equal(t, KindInternal, KindOf(err))
	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, MsgServerError, se.Message)
}

func TestAuth_EnrollTwiceKeepsOriginalHash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.subs.add("Paul", "+237677000111", nil, nil)

	_, err := f.auth.Enroll(ctx, "677000111", "1111")
	require.NoError(t, err)
	original := *f.subs.get(sub.ID).PINHash

	_, err = f.auth.Enroll(ctx, "677000111", "2222")
	assert.True(t, IsKind(err, KindAlreadyEnrolled))
	assert.Equal(t, original, *f.subs.get(sub.ID).PINHash)
	assert.Equal(t, utils.HashPIN("1111", testSecret), original)

	_, err = f.auth.Login(ctx, "677000111", "2222")
	assert.True(t, IsKind(err, KindInvalidCredential))
}

func TestAuth_EnrollValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.subs.add("Paul", "+237677000111", nil, nil)

	for _, pin := range []string{"", "123", "12345", "12a4", "１２３４"} {
		_, err := f.auth.Enroll(ctx, "677000111", pin)
		assert.True(t, IsKind(err, KindValidation), "pin %q", pin)
	}

	_, err := f.auth.Enroll(ctx, "699999999", "1234")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestAuth_LoginErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.subs.add("Paul", "+237677000111", nil, nil)

	_, err := f.auth.Login(ctx, "677000111", "12")
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.auth.Login(ctx, "677000111", "1234")
	assert.True(t, IsKind(err, KindInvalidCredential), "login before enrollment")

	_, err = f.auth.Login(ctx, "699999999", "1234")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestAuth_EnrollThenLoginWithOtherPINsFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.subs.add("Paul", "+237677000111", nil, nil)

	_, err := f.auth.Enroll(ctx, "677000111", "0420")
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "677000111", "0420")
	require.NoError(t, err)

	for _, pin := range []string{"0000", "0421", "4200", "9999"} {
		_, err := f.auth.Login(ctx, "677000111", pin)
		assert.True(t, IsKind(err, KindInvalidCredential), "pin %s", pin)
	}
}

func TestAuth_ConcurrentEnrollExactlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sub := f.subs.add("Paul", "+237677000111", nil, nil)

	const n = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		enrolled int
		tokens   []string
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.auth.Enroll(ctx, "677000111", "5678")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
				tokens = append(tokens, res.Token)
			case IsKind(err, KindAlreadyEnrolled):
				enrolled++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, enrolled)
	require.Len(t, tokens, 1)
	id, err := f.auth.Validate(ctx, tokens[0])
	require.NoError(t, err)
	assert.Equal(t, sub.ID, id)
}

func TestAuth_Logout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token, _ := f.login(t, nil)

	f.auth.Logout(ctx, token)
	f.auth.Logout(ctx, token)
	f.auth.Logout(ctx, "")

	_, err := f.portal.Fetch(ctx, token, ResourceProfile)
	assert.True(t, IsKind(err, KindUnauthorized))

	f.mr.Close()
	f.auth.Logout(ctx, "anything")
}

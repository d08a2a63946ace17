package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"barkpark-backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Data
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestCreateUserRejectsUnknownFields(t *testing.T) {
	env := newTestEnv()

	body := `{"data":{"username":"fido_fan","password":"pw","first_name":"A","last_name":"B","email":"a@b.com","color":"red","breed":"lab"}}`
	rec := httptest.NewRecorder()
	env.user.Create(rec, newRequest(nil, http.MethodPost, "/users", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user field(s): breed, color", decodeMessage(t, rec))
}

func TestCreateUserReportsAllMissingFields(t *testing.T) {
	env := newTestEnv()

	body := `{"data":{"username":"fido_fan"}}`
	rec := httptest.NewRecorder()
	env.user.Create(rec, newRequest(nil, http.MethodPost, "/users", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required user field(s): password, first_name, last_name, email", decodeMessage(t, rec))
}

func TestCreateUserShortUsername(t *testing.T) {
	env := newTestEnv()

	body := `{"data":{"username":"ab","password":"pw","first_name":"A","last_name":"B","email":"a@b.com"}}`
	rec := httptest.NewRecorder()
	env.user.Create(rec, newRequest(nil, http.MethodPost, "/users", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username 'ab' is too short. Username must be at least 3 characters.", decodeMessage(t, rec))
}

func TestCreateUser(t *testing.T) {
	env := newTestEnv()

	body := `{"data":{"username":"fido_fan","password":"pw","first_name":"A","last_name":"B","email":"a@b.com"}}`
	rec := httptest.NewRecorder()
	env.user.Create(rec, newRequest(nil, http.MethodPost, "/users", strings.NewReader(body), nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "fido_fan", data["username"])
	assert.NotContains(t, data, "password")
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "pw")

	body := `{"data":{"username":"fido_fan","password":"pw","first_name":"A","last_name":"B","email":"other@b.com"}}`
	rec := httptest.NewRecorder()
	env.user.Create(rec, newRequest(nil, http.MethodPost, "/users", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Username 'fido_fan' is already in use. Please choose a different username.", decodeMessage(t, rec))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "pw")

	body := `{"data":{"username":"other_fan","password":"pw","first_name":"A","last_name":"B","email":"fido_fan@example.com"}}`
	rec := httptest.NewRecorder()
	env.user.Create(rec, newRequest(nil, http.MethodPost, "/users", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An account already exists for fido_fan@example.com.", decodeMessage(t, rec))
}

func TestLoginSetsCookie(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "woof")

	body := `{"data":{"username":"fido_fan","password":"woof"}}`
	rec := httptest.NewRecorder()
	env.user.Login(rec, newRequest(nil, http.MethodPost, "/users/login", strings.NewReader(body), nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			found = c
		}
	}
	require.NotNil(t, found)
	assert.NotEmpty(t, found.Value)
	assert.True(t, found.HttpOnly)

	data := decodeData(t, rec)
	assert.Equal(t, "fido_fan", data["username"])
	assert.NotContains(t, data, "password")
}

func TestLoginCookieExpiryTracksStoreTTL(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "woof")

	body := `{"data":{"username":"fido_fan","password":"woof"}}`
	rec := httptest.NewRecorder()
	env.user.Login(rec, newRequest(nil, http.MethodPost, "/users/login", strings.NewReader(body), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var found *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			found = c
		}
	}
	require.NotNil(t, found)
	// The test store lives for a minute; the cookie must not outlive it.
	assert.WithinDuration(t, time.Now().Add(env.sessions.TTL()), found.Expires, 5*time.Second)
}

func TestLoginByEmail(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "woof")

	body := `{"data":{"username":"fido_fan@example.com","password":"woof"}}`
	rec := httptest.NewRecorder()
	env.user.Login(rec, newRequest(nil, http.MethodPost, "/users/login", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv()

	body := `{"data":{"username":"ghost","password":"x"}}`
	rec := httptest.NewRecorder()
	env.user.Login(rec, newRequest(nil, http.MethodPost, "/users/login", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Username/email 'ghost' cannot be found.", decodeMessage(t, rec))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "woof")

	body := `{"data":{"username":"fido_fan","password":"meow"}}`
	rec := httptest.NewRecorder()
	env.user.Login(rec, newRequest(nil, http.MethodPost, "/users/login", strings.NewReader(body), nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Incorrect password.", decodeMessage(t, rec))
}

func TestReadUserRequiresLogin(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.Read(rec, newRequest(nil, http.MethodGet, "/users/1", nil, map[string]string{"user_id": "1"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not logged in.", decodeMessage(t, rec))

	rec = httptest.NewRecorder()
	env.user.Read(rec, newRequest(env.login(u), http.MethodGet, "/users/1", nil, map[string]string{"user_id": "1"}))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadUserNotFound(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.Read(rec, newRequest(env.login(u), http.MethodGet, "/users/99", nil, map[string]string{"user_id": "99"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User ID '99' cannot be found.", decodeMessage(t, rec))
}

func TestReadUserBadID(t *testing.T) {
	env := newTestEnv()

	rec := httptest.NewRecorder()
	env.user.Read(rec, newRequest(nil, http.MethodGet, "/users/abc", nil, map[string]string{"user_id": "abc"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "'abc' is not a valid id.", decodeMessage(t, rec))
}

func TestUpdateOtherUserForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "pw")
	intruder := env.seedUser("other_fan", "pw")

	body := `{"data":{"username":"hijacked","first_name":"A","last_name":"B","email":"a@b.com"}}`
	rec := httptest.NewRecorder()
	env.user.Update(rec, newRequest(env.login(intruder), http.MethodPut, "/users/1", strings.NewReader(body), map[string]string{"user_id": "1"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid attempt to access user.", decodeMessage(t, rec))
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")

	body := `{"data":{"username":"fido_fan","first_name":"New","last_name":"Name","email":"fido_fan@example.com"}}`
	rec := httptest.NewRecorder()
	env.user.Update(rec, newRequest(env.login(u), http.MethodPut, "/users/1", strings.NewReader(body), map[string]string{"user_id": "1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "New", data["first_name"])
	// Keeping your own username is not a conflict.
	assert.Equal(t, "fido_fan", data["username"])
}

func TestUpdatePasswordWrongOldPassword(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "woof")

	body := `{"data":{"old_password":"wrong","password":"newpw"}}`
	rec := httptest.NewRecorder()
	env.user.UpdatePassword(rec, newRequest(env.login(u), http.MethodPut, "/users/1/password", strings.NewReader(body), map[string]string{"user_id": "1"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Incorrect password.", decodeMessage(t, rec))
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "woof")

	body := `{"data":{"old_password":"woof","password":"newpw"}}`
	rec := httptest.NewRecorder()
	env.user.UpdatePassword(rec, newRequest(env.login(u), http.MethodPut, "/users/1/password", strings.NewReader(body), map[string]string{"user_id": "1"}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.hasher.Verify("newpw", env.users.byID[u.UserID].Password))
}

func TestDeleteUserClearsSession(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	ctx := env.login(u)

	rec := httptest.NewRecorder()
	env.user.Delete(rec, newRequest(ctx, http.MethodDelete, "/users/1", nil, map[string]string{"user_id": "1"}))

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotContains(t, env.users.byID, u.UserID)

	sess := session.FromContext(ctx)
	got, err := env.sessions.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLogout(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	ctx := env.login(u)

	rec := httptest.NewRecorder()
	env.user.Logout(rec, newRequest(ctx, http.MethodGet, "/users/1/logout", nil, map[string]string{"user_id": "1"}))

	require.Equal(t, http.StatusNoContent, rec.Code)

	sess := session.FromContext(ctx)
	got, err := env.sessions.Get(ctx, sess.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSearchRequiresLogin(t *testing.T) {
	env := newTestEnv()

	rec := httptest.NewRecorder()
	env.user.Search(rec, newRequest(nil, http.MethodGet, "/users?username=fido", nil, nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.Search(rec, newRequest(env.login(u), http.MethodGet, "/users", nil, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchMatchesPartial(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	env.seedUser("fidorocks", "pw")
	env.seedUser("cat_person", "pw")

	rec := httptest.NewRecorder()
	env.user.Search(rec, newRequest(env.login(u), http.MethodGet, "/users?username=FIDO", nil, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestAddFriend(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	env.seedUser("other_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.AddFriend(rec, newRequest(env.login(u), http.MethodPost, "/users/1/friends/2", nil, map[string]string{"user_id": "1", "friend_id": "2"}))

	require.Equal(t, http.StatusCreated, rec.Code)
	exists, _ := env.friends.Exists(nil, 1, 2)
	assert.True(t, exists)
}

func TestAddFriendTwiceConflicts(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	env.seedUser("other_fan", "pw")
	require.NoError(t, env.friends.Add(nil, 1, 2))

	rec := httptest.NewRecorder()
	env.user.AddFriend(rec, newRequest(env.login(u), http.MethodPost, "/users/1/friends/2", nil, map[string]string{"user_id": "1", "friend_id": "2"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Users are already friends.", decodeMessage(t, rec))
}

func TestAddFriendSelf(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.AddFriend(rec, newRequest(env.login(u), http.MethodPost, "/users/1/friends/1", nil, map[string]string{"user_id": "1", "friend_id": "1"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Users cannot befriend themselves.", decodeMessage(t, rec))
}

func TestRemoveFriendNotFriends(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	env.seedUser("other_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.RemoveFriend(rec, newRequest(env.login(u), http.MethodDelete, "/users/1/friends/2", nil, map[string]string{"user_id": "1", "friend_id": "2"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Users are not friends.", decodeMessage(t, rec))
}

func TestFavoriteLifecycle(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	p := env.seedPark("Central Bark")
	ctx := env.login(u)

	rec := httptest.NewRecorder()
	env.user.AddFavorite(rec, newRequest(ctx, http.MethodPost, "/users/1/favorites/1", nil, map[string]string{"user_id": "1", "park_id": "1"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	// Adding again conflicts.
	rec = httptest.NewRecorder()
	env.user.AddFavorite(rec, newRequest(ctx, http.MethodPost, "/users/1/favorites/1", nil, map[string]string{"user_id": "1", "park_id": "1"}))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	env.user.RemoveFavorite(rec, newRequest(ctx, http.MethodDelete, "/users/1/favorites/1", nil, map[string]string{"user_id": "1", "park_id": "1"}))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	exists, _ := env.favorites.Exists(nil, u.UserID, p.ParkID)
	assert.False(t, exists)
}

func TestListFavoritesOtherUserForbidden(t *testing.T) {
	env := newTestEnv()
	env.seedUser("fido_fan", "pw")
	intruder := env.seedUser("snoop", "pw")
	ctx := env.login(intruder)

	rec := httptest.NewRecorder()
	env.user.ListFavorites(rec, newRequest(ctx, http.MethodGet, "/users/1/favorites", nil, map[string]string{"user_id": "1"}))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid attempt to access user.", decodeMessage(t, rec))
}

func TestCheckInLifecycle(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	d := env.seedDog(u.UserID, "Rex")
	p := env.seedPark("Central Bark")
	ctx := env.login(u)

	body := `{"data":{"dog_id":1,"park_id":1}}`
	rec := httptest.NewRecorder()
	env.user.CheckIn(rec, newRequest(ctx, http.MethodPost, "/users/1/checkins", strings.NewReader(body), map[string]string{"user_id": "1"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.NotNil(t, env.users.byID[u.UserID].CheckedIn)
	assert.Equal(t, p.ParkID, *env.users.byID[u.UserID].CheckedIn)
	require.NotNil(t, env.dogs.byID[d.DogID].CheckedIn)

	// A second check-in while one is open conflicts.
	rec = httptest.NewRecorder()
	env.user.CheckIn(rec, newRequest(ctx, http.MethodPost, "/users/1/checkins", strings.NewReader(body), map[string]string{"user_id": "1"}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User is already checked in.", decodeMessage(t, rec))

	rec = httptest.NewRecorder()
	env.user.CheckOut(rec, newRequest(ctx, http.MethodDelete, "/users/1/checkins", nil, map[string]string{"user_id": "1"}))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.NotNil(t, data["check_out_time"])

	assert.Nil(t, env.users.byID[u.UserID].CheckedIn)
	assert.Nil(t, env.dogs.byID[d.DogID].CheckedIn)
}

func TestCheckOutWithoutOpenVisit(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")

	rec := httptest.NewRecorder()
	env.user.CheckOut(rec, newRequest(env.login(u), http.MethodDelete, "/users/1/checkins", nil, map[string]string{"user_id": "1"}))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User is not checked in.", decodeMessage(t, rec))
}

func TestCheckInSomeoneElsesDog(t *testing.T) {
	env := newTestEnv()
	u := env.seedUser("fido_fan", "pw")
	other := env.seedUser("other_fan", "pw")
	env.seedDog(other.UserID, "Rex")
	env.seedPark("Central Bark")

	body := `{"data":{"dog_id":1,"park_id":1}}`
	rec := httptest.NewRecorder()
	env.user.CheckIn(rec, newRequest(env.login(u), http.MethodPost, "/users/1/checkins", strings.NewReader(body), map[string]string{"user_id": "1"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid attempt to access dog profile.", decodeMessage(t, rec))
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"barkpark-backend/internal/models"
	"barkpark-backend/internal/pipeline"
	"barkpark-backend/internal/services"
	"barkpark-backend/internal/session"
	"barkpark-backend/internal/validation"
)

var (
	userCreateSchema = validation.Schema{
		Name:     "user",
		Allowed:  []string{"username", "password", "first_name", "last_name", "email", "checked_in"},
		Required: []string{"username", "password", "first_name", "last_name", "email"},
	}
	userUpdateSchema = validation.Schema{
		Name:     "user",
		Allowed:  []string{"username", "first_name", "last_name", "email", "checked_in"},
		Required: []string{"username", "first_name", "last_name", "email"},
	}
	loginSchema = validation.Schema{
		Name:     "login",
		Allowed:  []string{"username", "password"},
		Required: []string{"username", "password"},
	}
	passwordSchema = validation.Schema{
		Name:     "password",
		Allowed:  []string{"old_password", "password"},
		Required: []string{"old_password", "password"},
	}
	checkInSchema = validation.Schema{
		Name:     "check-in",
		Allowed:  []string{"dog_id", "park_id"},
		Required: []string{"dog_id", "park_id"},
	}
)

// UserHandler serves accounts, auth, and the per-user social resources.
type UserHandler struct {
	users    *services.UserService
	dogs     *services.DogService
	parks    *services.ParkService
	social   *services.SocialService
	sessions session.Store
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *services.UserService, dogs *services.DogService, parks *services.ParkService, social *services.SocialService, sessions session.Store) *UserHandler {
	return &UserHandler{users: users, dogs: dogs, parks: parks, social: social, sessions: sessions}
}

func setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// userExists resolves a path user id into *target. A missing row reads the
// same as a bad id.
func (h *UserHandler) userExists(r *http.Request, target **models.User) pipeline.Stage {
	return pipeline.Stage{Name: "user_exists", Run: func(ctx context.Context) *pipeline.Failure {
		id, f := pathID(r, "user_id")
		if f != nil {
			return f
		}
		user, err := h.users.GetByID(ctx, id)
		if err != nil {
			return internalFailure(err, "Failed to look up user")
		}
		if user == nil {
			return pipeline.NotFoundf("User ID '%d' cannot be found.", id)
		}
		*target = user
		return nil
	}}
}

func parseStage(r *http.Request, fields *validation.FieldSet) pipeline.Stage {
	return pipeline.Stage{Name: "parse_body", Run: func(ctx context.Context) *pipeline.Failure {
		fs, f := parseFields(r)
		if f != nil {
			return f
		}
		*fields = fs
		return nil
	}}
}

func schemaStages(schema validation.Schema, fields *validation.FieldSet) []pipeline.Stage {
	return []pipeline.Stage{
		{Name: "only_valid_fields", Run: func(ctx context.Context) *pipeline.Failure {
			return schema.CheckAllowed(*fields)
		}},
		{Name: "required_fields", Run: func(ctx context.Context) *pipeline.Failure {
			return schema.CheckRequired(*fields)
		}},
	}
}

// usernameAvailable checks length and uniqueness. excludeID scopes the
// uniqueness check for update flows.
func (h *UserHandler) usernameAvailable(fields *validation.FieldSet, excludeID *int64) pipeline.Stage {
	return pipeline.Stage{Name: "username_available", Run: func(ctx context.Context) *pipeline.Failure {
		username := fields.String("username")
		if f := validation.CheckUsername(username); f != nil {
			return f
		}
		inUse, err := h.users.UsernameInUse(ctx, username, excludeID)
		if err != nil {
			return internalFailure(err, "Failed to check username")
		}
		if inUse {
			return pipeline.Conflictf("Username '%s' is already in use. Please choose a different username.", username)
		}
		return nil
	}}
}

func (h *UserHandler) emailAvailable(fields *validation.FieldSet, excludeID *int64) pipeline.Stage {
	return pipeline.Stage{Name: "email_available", Run: func(ctx context.Context) *pipeline.Failure {
		email := fields.String("email")
		if f := validation.CheckEmail(email); f != nil {
			return f
		}
		inUse, err := h.users.EmailInUse(ctx, email, excludeID)
		if err != nil {
			return internalFailure(err, "Failed to check email")
		}
		if inUse {
			return pipeline.Conflictf("An account already exists for %s.", email)
		}
		return nil
	}}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		fields  validation.FieldSet
		created *models.User
	)

	stages := []pipeline.Stage{parseStage(r, &fields)}
	stages = append(stages, schemaStages(userCreateSchema, &fields)...)
	stages = append(stages,
		h.usernameAvailable(&fields, nil),
		h.emailAvailable(&fields, nil),
		pipeline.Stage{Name: "create_user", Run: func(ctx context.Context) *pipeline.Failure {
			user, err := h.users.Create(ctx, services.CreateUserInput{
				Username:  fields.String("username"),
				Password:  fields.String("password"),
				FirstName: fields.String("first_name"),
				LastName:  fields.String("last_name"),
				Email:     fields.String("email"),
				CheckedIn: fields.NullableID("checked_in"),
			})
			if err != nil {
				return internalFailure(err, "Failed to create user")
			}
			created = user
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Login handles POST /users/login. The identifier may be a username or an
// email; both failure modes read as a credential problem.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		fields validation.FieldSet
		user   *models.User
	)

	stages := []pipeline.Stage{parseStage(r, &fields)}
	stages = append(stages, schemaStages(loginSchema, &fields)...)
	stages = append(stages,
		pipeline.Stage{Name: "user_lookup", Run: func(ctx context.Context) *pipeline.Failure {
			identifier := fields.String("username")
			found, err := h.users.Lookup(ctx, identifier)
			if err != nil {
				return internalFailure(err, "Failed to look up user")
			}
			if found == nil {
				return pipeline.Unauthenticatedf("Username/email '%s' cannot be found.", identifier)
			}
			user = found
			return nil
		}},
		pipeline.Stage{Name: "password_check", Run: func(ctx context.Context) *pipeline.Failure {
			if !h.users.VerifyPassword(user, fields.String("password")) {
				return pipeline.Unauthenticatedf("Incorrect password.")
			}
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	sess, err := h.sessions.Create(ctx, user)
	if err != nil {
		respondFailure(w, internalFailure(err, "Failed to create session"))
		return
	}
	setSessionCookie(w, sess.Token, h.sessions.TTL())
	respondData(w, http.StatusOK, sess.User)
}

// Logout handles GET /users/{user_id}/logout.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var target *models.User

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	if err := h.sessions.Delete(ctx, sess.Token); err != nil {
		respondFailure(w, internalFailure(err, "Failed to delete session"))
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Read handles GET /users/{user_id}.
func (h *UserHandler) Read(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var target *models.User

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "logged_in", Run: func(ctx context.Context) *pipeline.Failure {
			return requireSession(sess)
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, target)
}

// Update handles PUT /users/{user_id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  *models.User
		fields  validation.FieldSet
		updated *models.User
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		parseStage(r, &fields),
	}
	stages = append(stages, schemaStages(userUpdateSchema, &fields)...)
	stages = append(stages,
		pipeline.Stage{Name: "username_available", Run: func(ctx context.Context) *pipeline.Failure {
			return h.usernameAvailable(&fields, &target.UserID).Run(ctx)
		}},
		pipeline.Stage{Name: "email_available", Run: func(ctx context.Context) *pipeline.Failure {
			return h.emailAvailable(&fields, &target.UserID).Run(ctx)
		}},
		pipeline.Stage{Name: "update_user", Run: func(ctx context.Context) *pipeline.Failure {
			user, err := h.users.Update(ctx, target, services.UpdateUserInput{
				Username:     fields.String("username"),
				FirstName:    fields.String("first_name"),
				LastName:     fields.String("last_name"),
				Email:        fields.String("email"),
				CheckedIn:    fields.NullableID("checked_in"),
				CheckedInSet: fields.Has("checked_in"),
			})
			if err != nil {
				return internalFailure(err, "Failed to update user")
			}
			updated = user
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /users/{user_id}. The account's session dies with it.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var target *models.User

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	if err := h.users.Delete(ctx, target.UserID); err != nil {
		respondFailure(w, internalFailure(err, "Failed to delete user"))
		return
	}
	if err := h.sessions.Delete(ctx, sess.Token); err != nil {
		respondFailure(w, internalFailure(err, "Failed to delete session"))
		return
	}
	clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePassword handles PUT /users/{user_id}/password.
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  *models.User
		fields  validation.FieldSet
		updated *models.User
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		parseStage(r, &fields),
	}
	stages = append(stages, schemaStages(passwordSchema, &fields)...)
	stages = append(stages,
		pipeline.Stage{Name: "password_check", Run: func(ctx context.Context) *pipeline.Failure {
			if !h.users.VerifyPassword(target, fields.String("old_password")) {
				return pipeline.Invalidf("Incorrect password.")
			}
			return nil
		}},
		pipeline.Stage{Name: "update_password", Run: func(ctx context.Context) *pipeline.Failure {
			user, err := h.users.UpdatePassword(ctx, target.UserID, fields.String("password"))
			if err != nil {
				return internalFailure(err, "Failed to update password")
			}
			updated = user
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Search handles GET /users?username=. Partial, case-insensitive.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var found []*models.User

	stages := []pipeline.Stage{
		{Name: "logged_in", Run: func(ctx context.Context) *pipeline.Failure {
			return requireSession(sess)
		}},
		{Name: "search_users", Run: func(ctx context.Context) *pipeline.Failure {
			partial := r.URL.Query().Get("username")
			if partial == "" {
				return pipeline.Invalidf("Missing required query parameter: username.")
			}
			users, err := h.users.Search(ctx, partial)
			if err != nil {
				return internalFailure(err, "Failed to search users")
			}
			found = users
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, found)
}

// ListFriends handles GET /users/{user_id}/friends. Friend lists are private
// to their owner.
func (h *UserHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  *models.User
		friends []*models.User
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "list_friends", Run: func(ctx context.Context) *pipeline.Failure {
			list, err := h.social.ListFriends(ctx, target.UserID)
			if err != nil {
				return internalFailure(err, "Failed to list friends")
			}
			friends = list
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, friends)
}

// AddFriend handles POST /users/{user_id}/friends/{friend_id}.
func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target   *models.User
		friendID int64
		created  *models.Friendship
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "friend_exists", Run: func(ctx context.Context) *pipeline.Failure {
			id, f := pathID(r, "friend_id")
			if f != nil {
				return f
			}
			if id == target.UserID {
				return pipeline.Invalidf("Users cannot befriend themselves.")
			}
			friend, err := h.users.GetByID(ctx, id)
			if err != nil {
				return internalFailure(err, "Failed to look up user")
			}
			if friend == nil {
				return pipeline.NotFoundf("User ID '%d' cannot be found.", id)
			}
			friendID = id
			return nil
		}},
		{Name: "not_already_friends", Run: func(ctx context.Context) *pipeline.Failure {
			exists, err := h.social.AreFriends(ctx, target.UserID, friendID)
			if err != nil {
				return internalFailure(err, "Failed to check friendship")
			}
			if exists {
				return pipeline.Conflictf("Users are already friends.")
			}
			return nil
		}},
		{Name: "add_friend", Run: func(ctx context.Context) *pipeline.Failure {
			friendship, err := h.social.AddFriend(ctx, target.UserID, friendID)
			if err != nil {
				return internalFailure(err, "Failed to add friend")
			}
			created = friendship
			return nil
		}},
	}

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// RemoveFriend handles DELETE /users/{user_id}/friends/{friend_id}.
func (h *UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target   *models.User
		friendID int64
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "friendship_exists", Run: func(ctx context.Context) *pipeline.Failure {
			id, f := pathID(r, "friend_id")
			if f != nil {
				return f
			}
			exists, err := h.social.AreFriends(ctx, target.UserID, id)
			if err != nil {
				return internalFailure(err, "Failed to check friendship")
			}
			if !exists {
				return pipeline.NotFoundf("Users are not friends.")
			}
			friendID = id
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	if err := h.social.RemoveFriend(ctx, target.UserID, friendID); err != nil {
		respondFailure(w, internalFailure(err, "Failed to remove friend"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListFavorites handles GET /users/{user_id}/favorites.
func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target *models.User
		parks  []*models.Park
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "list_favorites", Run: func(ctx context.Context) *pipeline.Failure {
			list, err := h.social.ListFavorites(ctx, target.UserID)
			if err != nil {
				return internalFailure(err, "Failed to list favorite parks")
			}
			parks = list
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, parks)
}

// AddFavorite handles POST /users/{user_id}/favorites/{park_id}.
func (h *UserHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  *models.User
		parkID  int64
		created *models.Favorite
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "park_exists", Run: func(ctx context.Context) *pipeline.Failure {
			id, f := pathID(r, "park_id")
			if f != nil {
				return f
			}
			park, err := h.parks.GetByID(ctx, id)
			if err != nil {
				return internalFailure(err, "Failed to look up park")
			}
			if park == nil {
				return pipeline.NotFoundf("Park ID '%d' cannot be found.", id)
			}
			parkID = id
			return nil
		}},
		{Name: "not_already_favorite", Run: func(ctx context.Context) *pipeline.Failure {
			exists, err := h.social.IsFavorite(ctx, target.UserID, parkID)
			if err != nil {
				return internalFailure(err, "Failed to check favorite")
			}
			if exists {
				return pipeline.Conflictf("Park is already a favorite.")
			}
			return nil
		}},
		{Name: "add_favorite", Run: func(ctx context.Context) *pipeline.Failure {
			favorite, err := h.social.AddFavorite(ctx, target.UserID, parkID)
			if err != nil {
				return internalFailure(err, "Failed to add favorite")
			}
			created = favorite
			return nil
		}},
	}

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// RemoveFavorite handles DELETE /users/{user_id}/favorites/{park_id}.
func (h *UserHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target *models.User
		parkID int64
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "favorite_exists", Run: func(ctx context.Context) *pipeline.Failure {
			id, f := pathID(r, "park_id")
			if f != nil {
				return f
			}
			exists, err := h.social.IsFavorite(ctx, target.UserID, id)
			if err != nil {
				return internalFailure(err, "Failed to check favorite")
			}
			if !exists {
				return pipeline.NotFoundf("Park is not a favorite.")
			}
			parkID = id
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	if err := h.social.RemoveFavorite(ctx, target.UserID, parkID); err != nil {
		respondFailure(w, internalFailure(err, "Failed to remove favorite"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListCheckIns handles GET /users/{user_id}/checkins.
func (h *UserHandler) ListCheckIns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target *models.User
		visits []*models.CheckIn
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "list_check_ins", Run: func(ctx context.Context) *pipeline.Failure {
			list, err := h.social.ListCheckIns(ctx, target.UserID)
			if err != nil {
				return internalFailure(err, "Failed to list check-ins")
			}
			visits = list
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusOK, visits)
}

// CheckIn handles POST /users/{user_id}/checkins. One open visit per user.
func (h *UserHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target  *models.User
		fields  validation.FieldSet
		created *models.CheckIn
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		parseStage(r, &fields),
	}
	stages = append(stages, schemaStages(checkInSchema, &fields)...)
	stages = append(stages,
		pipeline.Stage{Name: "dog_exists", Run: func(ctx context.Context) *pipeline.Failure {
			dogID := fields.ID("dog_id")
			dog, err := h.dogs.GetByID(ctx, dogID)
			if err != nil {
				return internalFailure(err, "Failed to look up dog")
			}
			if dog == nil {
				return pipeline.NotFoundf("Dog ID '%d' cannot be found.", dogID)
			}
			if dog.Owner != target.UserID {
				return pipeline.Forbiddenf("Invalid attempt to access dog profile.")
			}
			return nil
		}},
		pipeline.Stage{Name: "park_exists", Run: func(ctx context.Context) *pipeline.Failure {
			parkID := fields.ID("park_id")
			park, err := h.parks.GetByID(ctx, parkID)
			if err != nil {
				return internalFailure(err, "Failed to look up park")
			}
			if park == nil {
				return pipeline.NotFoundf("Park ID '%d' cannot be found.", parkID)
			}
			return nil
		}},
		pipeline.Stage{Name: "not_checked_in", Run: func(ctx context.Context) *pipeline.Failure {
			open, err := h.social.OpenCheckIn(ctx, target.UserID)
			if err != nil {
				return internalFailure(err, "Failed to check open visits")
			}
			if open != nil {
				return pipeline.Conflictf("User is already checked in.")
			}
			return nil
		}},
		pipeline.Stage{Name: "check_in", Run: func(ctx context.Context) *pipeline.Failure {
			visit, err := h.social.CheckIn(ctx, target.UserID, fields.ID("dog_id"), fields.ID("park_id"))
			if err != nil {
				return internalFailure(err, "Failed to check in")
			}
			created = visit
			return nil
		}},
	)

	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// CheckOut handles DELETE /users/{user_id}/checkins. Closes the open visit.
func (h *UserHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := session.FromContext(ctx)
	var (
		target *models.User
		open   *models.CheckIn
	)

	stages := []pipeline.Stage{
		h.userExists(r, &target),
		{Name: "session_match", Run: func(ctx context.Context) *pipeline.Failure {
			return requireOwner(sess, target.UserID, "user")
		}},
		{Name: "checked_in", Run: func(ctx context.Context) *pipeline.Failure {
			visit, err := h.social.OpenCheckIn(ctx, target.UserID)
			if err != nil {
				return internalFailure(err, "Failed to check open visits")
			}
			if visit == nil {
				return pipeline.NotFoundf("User is not checked in.")
			}
			open = visit
			return nil
		}},
	}
	if f := pipeline.Run(ctx, stages); f != nil {
		respondFailure(w, f)
		return
	}

	closed, err := h.social.CheckOut(ctx, open)
	if err != nil {
		respondFailure(w, internalFailure(err, "Failed to check out"))
		return
	}
	respondData(w, http.StatusOK, closed)
}

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"barkpark-backend/internal/auth"
	"barkpark-backend/internal/models"
	"barkpark-backend/internal/repository"
	"barkpark-backend/internal/services"
	"barkpark-backend/internal/session"
	"barkpark-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type fakeUserStore struct {
	byID   map[int64]*models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[int64]*models.User), nextID: 1}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	u := *user
	u.UserID = s.nextID
	s.nextID++
	s.byID[u.UserID] = &u
	return &u, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	return s.byID[id], nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.byID {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) UsernameInUse(_ context.Context, username string, excludeID *int64) (bool, error) {
	for _, u := range s.byID {
		if u.Username == username && (excludeID == nil || u.UserID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) EmailInUse(_ context.Context, email string, excludeID *int64) (bool, error) {
	for _, u := range s.byID {
		if u.Email == email && (excludeID == nil || u.UserID != *excludeID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeUserStore) Update(_ context.Context, user *models.User) (*models.User, error) {
	u := *user
	s.byID[u.UserID] = &u
	return &u, nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id int64, digest string) (*models.User, error) {
	u := s.byID[id]
	u.Password = digest
	return u, nil
}

func (s *fakeUserStore) Delete(_ context.Context, id int64) error {
	delete(s.byID, id)
	return nil
}

func (s *fakeUserStore) SearchByUsername(_ context.Context, partial string) ([]*models.User, error) {
	var found []*models.User
	for _, u := range s.byID {
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(partial)) {
			found = append(found, u)
		}
	}
	return found, nil
}

func (s *fakeUserStore) SetCheckedIn(_ context.Context, id int64, parkID *int64) error {
	if u, ok := s.byID[id]; ok {
		u.CheckedIn = parkID
	}
	return nil
}

type fakeDogStore struct {
	byID   map[int64]*models.Dog
	nextID int64
}

func newFakeDogStore() *fakeDogStore {
	return &fakeDogStore{byID: make(map[int64]*models.Dog), nextID: 1}
}

func (s *fakeDogStore) Create(_ context.Context, dog *models.Dog) (*models.Dog, error) {
	d := *dog
	d.DogID = s.nextID
	s.nextID++
	s.byID[d.DogID] = &d
	return &d, nil
}

func (s *fakeDogStore) GetByID(_ context.Context, id int64) (*models.Dog, error) {
	return s.byID[id], nil
}

func (s *fakeDogStore) Update(_ context.Context, dog *models.Dog) (*models.Dog, error) {
	d := *dog
	s.byID[d.DogID] = &d
	return &d, nil
}

func (s *fakeDogStore) Delete(_ context.Context, id int64) error {
	delete(s.byID, id)
	return nil
}

func (s *fakeDogStore) SetCheckedIn(_ context.Context, id int64, parkID *int64) error {
	if d, ok := s.byID[id]; ok {
		d.CheckedIn = parkID
	}
	return nil
}

type fakeParkStore struct {
	byID map[int64]*models.Park
}

func newFakeParkStore() *fakeParkStore {
	return &fakeParkStore{byID: make(map[int64]*models.Park)}
}

func (s *fakeParkStore) List(_ context.Context) ([]*models.Park, error) {
	var parks []*models.Park
	for _, p := range s.byID {
		parks = append(parks, p)
	}
	return parks, nil
}

func (s *fakeParkStore) GetByID(_ context.Context, id int64) (*models.Park, error) {
	return s.byID[id], nil
}

type fakeFriendStore struct {
	users *fakeUserStore
	pairs map[[2]int64]bool
}

func newFakeFriendStore(users *fakeUserStore) *fakeFriendStore {
	return &fakeFriendStore{users: users, pairs: make(map[[2]int64]bool)}
}

func (s *fakeFriendStore) Exists(_ context.Context, userID, friendID int64) (bool, error) {
	return s.pairs[[2]int64{userID, friendID}], nil
}

func (s *fakeFriendStore) Add(_ context.Context, userID, friendID int64) error {
	s.pairs[[2]int64{userID, friendID}] = true
	return nil
}

func (s *fakeFriendStore) Remove(_ context.Context, userID, friendID int64) error {
	delete(s.pairs, [2]int64{userID, friendID})
	return nil
}

func (s *fakeFriendStore) ListForUser(_ context.Context, userID int64) ([]*models.User, error) {
	var friends []*models.User
	for pair := range s.pairs {
		if pair[0] == userID {
			friends = append(friends, s.users.byID[pair[1]])
		}
	}
	return friends, nil
}

type fakeFavoriteStore struct {
	parks *fakeParkStore
	pairs map[[2]int64]bool
}

func newFakeFavoriteStore(parks *fakeParkStore) *fakeFavoriteStore {
	return &fakeFavoriteStore{parks: parks, pairs: make(map[[2]int64]bool)}
}

func (s *fakeFavoriteStore) Exists(_ context.Context, userID, parkID int64) (bool, error) {
	return s.pairs[[2]int64{userID, parkID}], nil
}

func (s *fakeFavoriteStore) Add(_ context.Context, userID, parkID int64) error {
	s.pairs[[2]int64{userID, parkID}] = true
	return nil
}

func (s *fakeFavoriteStore) Remove(_ context.Context, userID, parkID int64) error {
	delete(s.pairs, [2]int64{userID, parkID})
	return nil
}

func (s *fakeFavoriteStore) ListForUser(_ context.Context, userID int64) ([]*models.Park, error) {
	var parks []*models.Park
	for pair := range s.pairs {
		if pair[0] == userID {
			parks = append(parks, s.parks.byID[pair[1]])
		}
	}
	return parks, nil
}

type fakeCheckInStore struct {
	visits []*models.CheckIn
}

func (s *fakeCheckInStore) Create(_ context.Context, c *models.CheckIn) error {
	visit := *c
	s.visits = append(s.visits, &visit)
	return nil
}

func (s *fakeCheckInStore) GetOpenForUser(_ context.Context, userID int64) (*models.CheckIn, error) {
	for _, v := range s.visits {
		if v.User == userID && v.CheckOutTime == nil {
			return v, nil
		}
	}
	return nil, nil
}

func (s *fakeCheckInStore) CloseOpenForUser(_ context.Context, userID int64, checkOutTime string) (bool, error) {
	for _, v := range s.visits {
		if v.User == userID && v.CheckOutTime == nil {
			v.CheckOutTime = &checkOutTime
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeCheckInStore) ListForUser(_ context.Context, userID int64) ([]*models.CheckIn, error) {
	var visits []*models.CheckIn
	for _, v := range s.visits {
		if v.User == userID {
			visits = append(visits, v)
		}
	}
	return visits, nil
}

// fakeImageStore mirrors the conditional-link semantics of the real
// repository against the in-memory user and dog stores.
type fakeImageStore struct {
	users  *fakeUserStore
	dogs   *fakeDogStore
	byID   map[int64]*models.Image
	nextID int64
}

func newFakeImageStore(users *fakeUserStore, dogs *fakeDogStore) *fakeImageStore {
	return &fakeImageStore{users: users, dogs: dogs, byID: make(map[int64]*models.Image), nextID: 1}
}

func (s *fakeImageStore) ref(owner repository.ImageOwner, ownerID int64) **int64 {
	switch owner.Table {
	case "users":
		if u, ok := s.users.byID[ownerID]; ok {
			return &u.ProfileImage
		}
	case "dogs":
		if d, ok := s.dogs.byID[ownerID]; ok {
			return &d.DogImage
		}
	}
	return nil
}

func (s *fakeImageStore) insert(img *models.Image) *models.Image {
	created := *img
	created.ImageID = s.nextID
	s.nextID++
	s.byID[created.ImageID] = &created
	return &created
}

func (s *fakeImageStore) GetByID(_ context.Context, id int64) (*models.Image, error) {
	return s.byID[id], nil
}

func (s *fakeImageStore) CreateAndLink(_ context.Context, owner repository.ImageOwner, ownerID int64, img *models.Image) (*models.Image, error) {
	ref := s.ref(owner, ownerID)
	if ref == nil || *ref != nil {
		return nil, repository.ErrImageLinkChanged
	}
	created := s.insert(img)
	*ref = &created.ImageID
	return created, nil
}

func (s *fakeImageStore) Replace(_ context.Context, owner repository.ImageOwner, ownerID, oldID int64, img *models.Image) (*models.Image, error) {
	ref := s.ref(owner, ownerID)
	if ref == nil || *ref == nil || **ref != oldID {
		return nil, repository.ErrImageLinkChanged
	}
	created := s.insert(img)
	delete(s.byID, oldID)
	*ref = &created.ImageID
	return created, nil
}

func (s *fakeImageStore) Unlink(_ context.Context, owner repository.ImageOwner, ownerID, imageID int64) error {
	ref := s.ref(owner, ownerID)
	if ref == nil || *ref == nil || **ref != imageID {
		return repository.ErrImageLinkChanged
	}
	*ref = nil
	delete(s.byID, imageID)
	return nil
}

type fakeBlobStore struct {
	blobs  map[string][]byte
	nextID int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Save(_ context.Context, originalName string, r io.Reader) (*storage.Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s.nextID++
	name := fmt.Sprintf("blob-%d%s", s.nextID, extOf(originalName))
	s.blobs[name] = data
	return &storage.Object{Filename: name, Path: name}, nil
}

func (s *fakeBlobStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := s.blobs[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *fakeBlobStore) Remove(_ context.Context, path string) error {
	if _, ok := s.blobs[path]; !ok {
		return fmt.Errorf("remove %s: %w", path, fs.ErrNotExist)
	}
	delete(s.blobs, path)
	return nil
}

func extOf(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}

// testEnv wires the handlers against in-memory fakes.
type testEnv struct {
	users     *fakeUserStore
	dogs      *fakeDogStore
	parks     *fakeParkStore
	friends   *fakeFriendStore
	favorites *fakeFavoriteStore
	checkIns  *fakeCheckInStore
	images    *fakeImageStore
	blobs     *fakeBlobStore
	sessions  session.Store
	hasher    *auth.Hasher

	user  *UserHandler
	dog   *DogHandler
	park  *ParkHandler
	image *ImageHandler
}

func newTestEnv() *testEnv {
	users := newFakeUserStore()
	dogs := newFakeDogStore()
	parks := newFakeParkStore()
	friends := newFakeFriendStore(users)
	favorites := newFakeFavoriteStore(parks)
	checkIns := &fakeCheckInStore{}
	images := newFakeImageStore(users, dogs)
	blobs := newFakeBlobStore()
	sessions := session.NewMemoryStore(time.Minute)
	hasher := auth.NewHasher(bcrypt.MinCost)

	userService := services.NewUserService(users, hasher)
	dogService := services.NewDogService(dogs)
	parkService := services.NewParkService(parks)
	socialService := services.NewSocialService(friends, favorites, checkIns, users, dogs)
	imageService := services.NewImageService(images, blobs)

	return &testEnv{
		users:     users,
		dogs:      dogs,
		parks:     parks,
		friends:   friends,
		favorites: favorites,
		checkIns:  checkIns,
		images:    images,
		blobs:     blobs,
		sessions:  sessions,
		hasher:    hasher,
		user:      NewUserHandler(userService, dogService, parkService, socialService, sessions),
		dog:       NewDogHandler(dogService),
		park:      NewParkHandler(parkService),
		image:     NewImageHandler(userService, dogService, imageService),
	}
}

// seedUser inserts a user with a hashed password and returns the stored row.
func (e *testEnv) seedUser(username, password string) *models.User {
	digest, err := e.hasher.Hash(password)
	if err != nil {
		panic(err)
	}
	u, err := e.users.Create(context.Background(), &models.User{
		Username:  username,
		Password:  digest,
		FirstName: "Test",
		LastName:  "User",
		Email:     username + "@example.com",
	})
	if err != nil {
		panic(err)
	}
	return u
}

func (e *testEnv) seedDog(owner int64, name string) *models.Dog {
	d, err := e.dogs.Create(context.Background(), &models.Dog{
		Name:         name,
		PrimaryBreed: "Labrador",
		Age:          "Adult",
		Size:         "Large",
		Temperament:  "friendly",
		Owner:        owner,
	})
	if err != nil {
		panic(err)
	}
	return d
}

func (e *testEnv) seedPark(name string) *models.Park {
	p := &models.Park{
		ParkID:        int64(len(e.parks.byID) + 1),
		Name:          name,
		StreetAddress: "1 Bark St",
		City:          "Dogtown",
		State:         "CO",
		Zip:           "80000",
		SmallDogs:     true,
		MediumDogs:    true,
	}
	e.parks.byID[p.ParkID] = p
	return p
}

// login opens a session for the user and returns a context carrying it.
func (e *testEnv) login(u *models.User) context.Context {
	sess, err := e.sessions.Create(context.Background(), u)
	if err != nil {
		panic(err)
	}
	return session.NewContext(context.Background(), sess)
}

// newRequest builds a request with chi URL params and an optional session
// context already attached.
func newRequest(ctx context.Context, method, target string, body io.Reader, params map[string]string) *http.Request {
	if ctx == nil {
		ctx = context.Background()
	}
	r := httptest.NewRequest(method, target, body).WithContext(ctx)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

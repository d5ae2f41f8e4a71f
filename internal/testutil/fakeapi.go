// Package testutil provides an in-memory implementation of the task API
// for tests of the client side packages.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/adanyl0v/go-todo-client/internal/models"
)

// RecordedRequest is a request the fake API received.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

type fakeClaims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// FakeAPI serves the task API from memory over a real HTTP listener.
type FakeAPI struct {
	Server     *httptest.Server
	SigningKey []byte
	TokenTTL   time.Duration

	mu          sync.Mutex
	users       map[string]*models.User
	passwords   map[string]string
	tasks       []*models.Task
	requests    []RecordedRequest
	failures    map[string][]int
	completions map[string]bool
	listDelay   time.Duration
}

var ginMode sync.Once

func NewFakeAPI(t testing.TB) *FakeAPI {
	t.Helper()
	ginMode.Do(func() { gin.SetMode(gin.TestMode) })

	f := &FakeAPI{
		SigningKey:  []byte("fake-api-signing-key-for-tests-only"),
		TokenTTL:    time.Hour,
		users:       make(map[string]*models.User),
		passwords:   make(map[string]string),
		failures:    make(map[string][]int),
		completions: make(map[string]bool),
	}

	router := gin.New()
	router.Use(f.record, f.injectFailures)
	router.POST("/auth/signup", f.handleSignUp)
	router.POST("/auth/login", f.handleLogin)
	router.GET("/auth/me", f.authenticate, f.handleMe)
	router.GET("/tasks", f.authenticate, f.handleList)
	router.POST("/tasks", f.authenticate, f.handleCreate)
	router.GET("/tasks/:id", f.authenticate, f.handleGet)
	router.PUT("/tasks/:id", f.authenticate, f.handleUpdate)
	router.DELETE("/tasks/:id", f.authenticate, f.handleDelete)

	f.Server = httptest.NewServer(router)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeAPI) URL() string {
	return f.Server.URL
}

// AddUser registers a user directly, bypassing signup.
func (f *FakeAPI) AddUser(name, email, password string, role models.Role) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.users[user.ID] = user
	f.passwords[user.ID] = password
	return *user
}

// AddTask stores a task owned by userID.
func (f *FakeAPI) AddTask(userID, title string, completed bool) models.Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.NewString(),
		Title:       title,
		IsCompleted: completed,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if completed {
		task.CompletedAt = &now
	}
	f.tasks = append(f.tasks, task)
	return *task
}

// Token issues a token for userID that expires after ttl. A negative ttl
// yields an already expired token.
func (f *FakeAPI) Token(userID string, ttl time.Duration) string {
	f.mu.Lock()
	role := models.RoleUser
	if user, ok := f.users[userID]; ok {
		role = user.Role
	}
	f.mu.Unlock()

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, fakeClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(f.SigningKey)
	if err != nil {
		panic(err)
	}
	return signed
}

// Fail makes the next requests to method and path answer with the given
// statuses, one per request, before normal handling resumes.
func (f *FakeAPI) Fail(method, path string, statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := method + " " + path
	f.failures[key] = append(f.failures[key], statuses...)
}

// OverrideCompletion makes updates of taskID report isCompleted no matter
// what was requested.
func (f *FakeAPI) OverrideCompletion(taskID string, isCompleted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completions[taskID] = isCompleted
}

// DelayList slows down GET /tasks.
func (f *FakeAPI) DelayList(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listDelay = d
}

func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Count returns how many requests matched method and path.
func (f *FakeAPI) Count(method, path string) int {
	n := 0
	for _, req := range f.Requests() {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// CountPrefix counts requests whose path starts with prefix.
func (f *FakeAPI) CountPrefix(method, prefix string) int {
	n := 0
	for _, req := range f.Requests() {
		if req.Method == method && strings.HasPrefix(req.Path, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeAPI) Task(id string) (models.Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.ID == id {
			return *task, true
		}
	}
	return models.Task{}, false
}

func (f *FakeAPI) record(c *gin.Context) {
	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method:        c.Request.Method,
		Path:          c.Request.URL.Path,
		Authorization: c.GetHeader("Authorization"),
		RequestID:     c.GetHeader("X-Request-ID"),
	})
	f.mu.Unlock()
	c.Next()
}

func (f *FakeAPI) injectFailures(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path

	f.mu.Lock()
	queue := f.failures[key]
	status := 0
	if len(queue) > 0 {
		status = queue[0]
		f.failures[key] = queue[1:]
	}
	f.mu.Unlock()

	if status != 0 {
		fail(c, status, fmt.Sprintf("injected failure %d", status))
		return
	}
	c.Next()
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Message:    message,
		StatusCode: status,
		Error:      http.StatusText(status),
	})
}

func (f *FakeAPI) authenticate(c *gin.Context) {
	token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	if !ok || token == "" {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	claims := new(fakeClaims)
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return f.SigningKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		fail(c, http.StatusUnauthorized, "Invalid token")
		return
	}

	f.mu.Lock()
	user, exists := f.users[claims.Subject]
	f.mu.Unlock()
	if !exists {
		fail(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.Set("user", *user)
	c.Next()
}

func currentUser(c *gin.Context) models.User {
	return c.MustGet("user").(models.User)
}

func (f *FakeAPI) handleSignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password != req.ConfirmPassword {
		fail(c, http.StatusBadRequest, "Passwords do not match")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}

	f.mu.Lock()
	for _, user := range f.users {
		if user.Email == req.Email {
			f.mu.Unlock()
			fail(c, http.StatusConflict, "Email already registered")
			return
		}
	}
	f.mu.Unlock()

	user := f.AddUser(req.Name, req.Email, req.Password, req.Role)
	c.JSON(http.StatusCreated, user)
}

func (f *FakeAPI) handleLogin(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	var found *models.User
	for id, user := range f.users {
		if user.Email == req.Email && f.passwords[id] == req.Password {
			found = user
			break
		}
	}
	f.mu.Unlock()

	if found == nil {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		AccessToken: f.Token(found.ID, f.TokenTTL),
		User:        *found,
	})
}

func (f *FakeAPI) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (f *FakeAPI) handleList(c *gin.Context) {
	user := currentUser(c)

	f.mu.Lock()
	delay := f.listDelay
	visible := make([]models.Task, 0, len(f.tasks))
	for _, task := range f.tasks {
		if user.IsAdmin() || task.UserID == user.ID {
			t := *task
			if owner, ok := f.users[task.UserID]; ok && user.IsAdmin() {
				t.User = &models.TaskOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email}
			}
			visible = append(visible, t)
		}
	}
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	c.JSON(http.StatusOK, visible)
}

// lookup returns the task the current user may access, or nil after
// aborting with 404.
func (f *FakeAPI) lookup(c *gin.Context) *models.Task {
	user := currentUser(c)
	id := c.Param("id")
	for _, task := range f.tasks {
		if task.ID == id && (user.IsAdmin() || task.UserID == user.ID) {
			return task
		}
	}
	fail(c, http.StatusNotFound, "Task not found")
	return nil
}

func (f *FakeAPI) handleGet(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	task := f.lookup(c)
	if task == nil {
		return
	}
	c.JSON(http.StatusOK, task)
}

func (f *FakeAPI) handleCreate(c *gin.Context) {
	var req models.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(strings.TrimSpace(req.Title)) < 3 {
		fail(c, http.StatusBadRequest, "Title must be at least 3 characters")
		return
	}

	user := currentUser(c)
	task := f.AddTask(user.ID, req.Title, false)

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, stored := range f.tasks {
		if stored.ID == task.ID {
			stored.Description = req.Description
			c.JSON(http.StatusCreated, stored)
			return
		}
	}
}

func (f *FakeAPI) handleUpdate(c *gin.Context) {
	var req models.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	task := f.lookup(c)
	if task == nil {
		return
	}

	now := time.Now().UTC()
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if forced, ok := f.completions[task.ID]; ok {
		req.IsCompleted = &forced
	}
	if req.IsCompleted != nil {
		switch {
		case *req.IsCompleted && !task.IsCompleted:
			task.CompletedAt = &now
		case !*req.IsCompleted:
			task.CompletedAt = nil
		}
		task.IsCompleted = *req.IsCompleted
	}
	task.UpdatedAt = now
	c.JSON(http.StatusOK, task)
}

func (f *FakeAPI) handleDelete(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	task := f.lookup(c)
	if task == nil {
		return
	}
	for i, stored := range f.tasks {
		if stored == task {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

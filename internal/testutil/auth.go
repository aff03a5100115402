package testutil

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/types"
)

// AddUser creates an account directly and returns its user record.
func (b *Backend) AddUser(name, email, password string, role types.UserRole) types.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password, role)
}

func (b *Backend) addUserLocked(name, email, password string, role types.UserRole) types.User {
	u := types.User{
		ID:        b.nextID("user"),
		Name:      name,
		Email:     strings.ToLower(email),
		Role:      role,
		CreatedAt: now(),
	}
	b.accounts[u.ID] = &account{user: u, password: password}
	b.byEmail[u.Email] = u.ID
	return u
}

func (b *Backend) userLocked(id string) (types.User, bool) {
	a, ok := b.accounts[id]
	if !ok {
		return types.User{}, false
	}
	return a.user, true
}

func (b *Backend) register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	fields := required([2]string{"name", req.Name}, [2]string{"email", req.Email}, [2]string{"password", req.Password})
	if req.Password != "" && len(req.Password) < 6 {
		fields = append(fields, types.FieldError{Field: "password", Message: "Password must be at least 6 characters"})
	}
	if len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}
	if req.Role == "" {
		req.Role = types.UserRoleTenant
	}

	b.mu.Lock()
	if _, exists := b.byEmail[strings.ToLower(req.Email)]; exists {
		b.mu.Unlock()
		fail(c, http.StatusConflict, "Email already registered")
		return
	}
	u := b.addUserLocked(req.Name, req.Email, req.Password, req.Role)
	u.Phone = req.Phone
	b.accounts[u.ID].user = u
	b.mu.Unlock()

	ok(c, http.StatusCreated, "Registration successful", types.AuthResult{Token: b.IssueToken(u.ID, b.TokenTTL), User: u})
}

func (b *Backend) login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fields := required([2]string{"email", req.Email}, [2]string{"password", req.Password}); len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}

	b.mu.Lock()
	id, found := b.byEmail[strings.ToLower(req.Email)]
	var acc *account
	if found {
		acc = b.accounts[id]
	}
	b.mu.Unlock()

	if acc == nil || acc.password != req.Password {
		fail(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	ok(c, http.StatusOK, "Login successful", types.AuthResult{Token: b.IssueToken(acc.user.ID, b.TokenTTL), User: acc.user})
}

func (b *Backend) profile(c *gin.Context) {
	b.mu.Lock()
	u, _ := b.userLocked(currentUser(c))
	b.mu.Unlock()
	ok(c, http.StatusOK, "", u)
}

func (b *Backend) updateProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		fail(c, http.StatusBadRequest, "Validation failed", types.FieldError{Field: "name", Message: "Name cannot be empty"})
		return
	}

	b.mu.Lock()
	acc := b.accounts[currentUser(c)]
	if req.Name != nil {
		acc.user.Name = *req.Name
	}
	if req.Phone != nil {
		acc.user.Phone = *req.Phone
	}
	if req.ProfileImage != nil {
		acc.user.ProfileImage = *req.ProfileImage
	}
	u := acc.user
	b.mu.Unlock()

	ok(c, http.StatusOK, "Profile updated", u)
}

func (b *Backend) updatePassword(c *gin.Context) {
	var req types.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.NewPassword) < 6 {
		fail(c, http.StatusBadRequest, "Validation failed",
			types.FieldError{Field: "new_password", Message: "Password must be at least 6 characters"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accounts[currentUser(c)]
	if acc.password != req.CurrentPassword {
		fail(c, http.StatusBadRequest, "Current password is incorrect")
		return
	}
	acc.password = req.NewPassword
	ok(c, http.StatusOK, "Password updated", nil)
}

func (b *Backend) logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	b.Revoke(token)
	ok(c, http.StatusOK, "Logged out", nil)
}

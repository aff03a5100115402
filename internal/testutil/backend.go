// Package testutil runs an in-process RoomSync backend for tests: the REST
// API on gin plus the realtime channel, backed by in-memory state.
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
	"github.com/roomsync/roomsync-client/types"
)

var signingKey = []byte("roomsync-test-secret")

type account struct {
	user     types.User
	password string
}

type failure struct {
	status  int
	message string
	fields  []types.FieldError
}

// Backend is a fake RoomSync server. All state is guarded by mu.
type Backend struct {
	Server *httptest.Server
	Hub    *Hub

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	mu            sync.Mutex
	seq           int
	accounts      map[string]*account
	byEmail       map[string]string
	revoked       map[string]bool
	properties    []*types.Property
	ads           []*types.PropertyAd
	joinRequests  []*types.PropertyJoinRequest
	groups        []*types.Group
	expenses      []*types.Expense
	splits        []*types.Split
	tasks         []*types.Task
	notifications []*types.Notification
	failures      map[string]failure
	hits          map[string]int
}

// NewBackend starts a backend that is shut down when t ends.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := &Backend{
		TokenTTL: time.Hour,
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		revoked:  make(map[string]bool),
		failures: make(map[string]failure),
		hits:     make(map[string]int),
	}
	b.Hub = NewHub(b)
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(func() {
		b.Hub.Shutdown()
		b.Server.Close()
	})
	return b
}

// URL is the REST base URL.
func (b *Backend) URL() string {
	return b.Server.URL
}

// RealtimeURL is the notification channel endpoint.
func (b *Backend) RealtimeURL() string {
	return "ws" + strings.TrimPrefix(b.Server.URL, "http") + "/ws"
}

func (b *Backend) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), b.record)

	r.POST("/auth/register", b.register)
	r.POST("/auth/login", b.login)
	r.GET("/ws", b.Hub.HandleWebSocket)

	authed := r.Group("/", b.requireAuth)
	authed.GET("/auth/profile", b.profile)
	authed.PUT("/auth/profile", b.updateProfile)
	authed.PUT("/auth/password", b.updatePassword)
	authed.POST("/auth/logout", b.logout)

	authed.GET("/properties/my", b.myProperties)
	authed.GET("/properties/:id", b.getProperty)
	authed.POST("/properties", b.createProperty)
	authed.PUT("/properties/:id", b.updateProperty)
	authed.DELETE("/properties/:id", b.deleteProperty)

	authed.GET("/property-ads", b.listAds)
	authed.GET("/property-ads/my", b.myAds)
	authed.GET("/property-ads/:id", b.getAd)
	authed.POST("/property-ads", b.createAd)
	authed.PATCH("/property-ads/:id", b.updateAd)
	authed.DELETE("/property-ads/:id", b.deleteAd)

	authed.POST("/join-requests", b.createJoinRequest)
	authed.GET("/join-requests/my", b.myJoinRequests)
	authed.GET("/join-requests/ad/:id", b.adJoinRequests)
	authed.PATCH("/join-requests/:id/respond", b.respondJoinRequest)
	authed.DELETE("/join-requests/:id", b.cancelJoinRequest)

	authed.GET("/groups/my", b.myGroups)
	authed.GET("/groups/property/:id", b.propertyGroups)
	authed.GET("/groups/:id", b.getGroup)
	authed.POST("/groups", b.createGroup)
	authed.PUT("/groups/:id", b.updateGroup)
	authed.POST("/groups/:id/join", b.joinGroup)
	authed.POST("/groups/:id/leave", b.leaveGroup)
	authed.POST("/groups/:id/image", b.uploadGroupImage)

	authed.GET("/expenses/group/:id", b.groupExpenses)
	authed.GET("/expenses/:id", b.getExpense)
	authed.POST("/expenses", b.createExpense)
	authed.PUT("/expenses/:id", b.updateExpense)
	authed.DELETE("/expenses/:id", b.deleteExpense)

	authed.GET("/splits/to-pay", b.splitsToPay)
	authed.GET("/splits/to-receive", b.splitsToReceive)
	authed.GET("/splits/history", b.splitHistory)
	authed.PATCH("/splits/:id/mark-paid", b.markSplitPaid)
	authed.PATCH("/splits/:id/confirm", b.confirmSplit)

	authed.GET("/tasks/group/:id", b.groupTasks)
	authed.GET("/tasks/my", b.myTasks)
	authed.POST("/tasks", b.createTask)
	authed.PUT("/tasks/:id", b.updateTask)
	authed.PATCH("/tasks/:id/complete", b.toggleTask)
	authed.DELETE("/tasks/:id", b.deleteTask)

	authed.GET("/notifications", b.listNotifications)
	authed.GET("/notifications/unread-count", b.unreadCount)
	authed.PATCH("/notifications/read-all", b.markAllRead)
	authed.PATCH("/notifications/:id/read", b.markRead)
	authed.DELETE("/notifications/:id", b.deleteNotification)

	return r
}

// FailNext makes the next request to method path answer with status. With
// fields the response carries a structured errors array.
func (b *Backend) FailNext(method, path string, status int, message string, fields ...types.FieldError) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message, fields: fields}
}

// Hits counts requests served for method path.
func (b *Backend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

func (b *Backend) record(c *gin.Context) {
	key := c.Request.Method + " " + c.Request.URL.Path
	b.mu.Lock()
	b.hits[key]++
	f, ok := b.failures[key]
	delete(b.failures, key)
	b.mu.Unlock()

	if ok {
		fail(c, f.status, f.message, f.fields...)
		return
	}
	c.Next()
}

// requireAuth resolves the bearer token to a user id.
func (b *Backend) requireAuth(c *gin.Context) {
	userID, ok := b.authenticate(c.GetHeader("Authorization"))
	if !ok {
		fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	c.Set("userID", userID)
	c.Next()
}

func (b *Backend) authenticate(header string) (string, bool) {
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return "", false
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.revoked[token] {
		return "", false
	}
	if _, ok := b.accounts[sub]; !ok {
		return "", false
	}
	return sub, true
}

// IssueToken signs a token for userID that expires after ttl.
func (b *Backend) IssueToken(userID string, ttl time.Duration) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	})
	signed, err := token.SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("sign token: %v", err))
	}
	return signed
}

// Revoke invalidates token as if the server expired it.
func (b *Backend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

func (b *Backend) nextID(prefix string) string {
	b.seq++
	return fmt.Sprintf("%s-%d", prefix, b.seq)
}

func currentUser(c *gin.Context) string {
	return c.GetString("userID")
}

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{"success": true, "message": message, "data": data})
}

func fail(c *gin.Context, status int, message string, fields ...types.FieldError) {
	body := gin.H{"success": false, "message": message}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

func required(fields ...[2]string) []types.FieldError {
	var out []types.FieldError
	for _, f := range fields {
		if strings.TrimSpace(f[1]) == "" {
			label := strings.ReplaceAll(f[0], "_", " ")
			out = append(out, types.FieldError{Field: f[0], Message: strings.ToUpper(label[:1]) + label[1:] + " is required"})
		}
	}
	return out
}

func now() time.Time {
	return time.Now().UTC()
}

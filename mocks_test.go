package blogify_test

import (
	"context"
	"io"
	"mime/multipart"
	"sync"

	blogify "github.com/HiravPansuriya/blogify-client"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
)

// MockIssuer implements blogify.CredentialIssuer
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) Signup(ctx context.Context, payload blogify.SignupPayload) (string, error) {
	args := m.Called(ctx, payload)
	return args.String(0), args.Error(1)
}

func (m *MockIssuer) VerifyOTP(ctx context.Context, email, code string) (*blogify.Session, error) {
	args := m.Called(ctx, email, code)
	session, _ := args.Get(0).(*blogify.Session)
	return session, args.Error(1)
}

func (m *MockIssuer) Login(ctx context.Context, email, password string) (*blogify.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*blogify.Session)
	return session, args.Error(1)
}

func (m *MockIssuer) Notifications(ctx context.Context, token string) ([]blogify.Notification, error) {
	args := m.Called(ctx, token)
	items, _ := args.Get(0).([]blogify.Notification)
	return items, args.Error(1)
}

func (m *MockIssuer) MarkNotificationRead(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

// funcIssuer is a function-backed CredentialIssuer for concurrency tests,
// where testify's call bookkeeping gets in the way.
type funcIssuer struct {
	signup    func(ctx context.Context, payload blogify.SignupPayload) (string, error)
	verifyOTP func(ctx context.Context, email, code string) (*blogify.Session, error)
	login     func(ctx context.Context, email, password string) (*blogify.Session, error)
	notifs    func(ctx context.Context, token string) ([]blogify.Notification, error)
	markRead  func(ctx context.Context, token, id string) error
}

func (f *funcIssuer) Signup(ctx context.Context, payload blogify.SignupPayload) (string, error) {
	if f.signup == nil {
		return "", nil
	}
	return f.signup(ctx, payload)
}

func (f *funcIssuer) VerifyOTP(ctx context.Context, email, code string) (*blogify.Session, error) {
	if f.verifyOTP == nil {
		return nil, nil
	}
	return f.verifyOTP(ctx, email, code)
}

func (f *funcIssuer) Login(ctx context.Context, email, password string) (*blogify.Session, error) {
	if f.login == nil {
		return nil, nil
	}
	return f.login(ctx, email, password)
}

func (f *funcIssuer) Notifications(ctx context.Context, token string) ([]blogify.Notification, error) {
	if f.notifs == nil {
		return nil, nil
	}
	return f.notifs(ctx, token)
}

func (f *funcIssuer) MarkNotificationRead(ctx context.Context, token, id string) error {
	if f.markRead == nil {
		return nil
	}
	return f.markRead(ctx, token, id)
}

// MockAdminAPI implements blogify.AdminAPI
type MockAdminAPI struct {
	mock.Mock
}

func (m *MockAdminAPI) AdminDashboard(ctx context.Context, token string) (*blogify.AdminDashboard, error) {
	args := m.Called(ctx, token)
	dashboard, _ := args.Get(0).(*blogify.AdminDashboard)
	return dashboard, args.Error(1)
}

// MockSessionStore implements blogify.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Load(ctx context.Context) (*blogify.Session, error) {
	args := m.Called(ctx)
	session, _ := args.Get(0).(*blogify.Session)
	return session, args.Error(1)
}

func (m *MockSessionStore) Save(ctx context.Context, session *blogify.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// captureSink records every event it sees, safely across goroutines.
type captureSink struct {
	mu     sync.Mutex
	events []blogify.ActivityEvent
}

func (s *captureSink) Record(_ context.Context, event blogify.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Types() []blogify.ActivityEventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]blogify.ActivityEventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.EventType
	}
	return out
}

func (s *captureSink) Has(t blogify.ActivityEventType) bool {
	for _, got := range s.Types() {
		if got == t {
			return true
		}
	}
	return false
}

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	file, _ := args.Get(0).(*multipart.FileHeader)
	return file, args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	values, _ := args.Get(0).([]string)
	return values
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	merged, _ := args.Get(0).(map[string]any)
	return merged
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	params, _ := args.Get(0).(map[string]string)
	return params
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}

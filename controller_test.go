package blogify

import (
	"context"
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubIssuer struct {
	signup    func(ctx context.Context, payload SignupPayload) (string, error)
	verifyOTP func(ctx context.Context, email, code string) (*Session, error)
	login     func(ctx context.Context, email, password string) (*Session, error)
	notifs    func(ctx context.Context, token string) ([]Notification, error)
	markRead  func(ctx context.Context, token, id string) error
}

func (s *stubIssuer) Signup(ctx context.Context, payload SignupPayload) (string, error) {
	if s.signup == nil {
		return "", nil
	}
	return s.signup(ctx, payload)
}

func (s *stubIssuer) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	if s.verifyOTP == nil {
		return nil, nil
	}
	return s.verifyOTP(ctx, email, code)
}

func (s *stubIssuer) Login(ctx context.Context, email, password string) (*Session, error) {
	if s.login == nil {
		return nil, nil
	}
	return s.login(ctx, email, password)
}

func (s *stubIssuer) Notifications(ctx context.Context, token string) ([]Notification, error) {
	if s.notifs == nil {
		return nil, nil
	}
	return s.notifs(ctx, token)
}

func (s *stubIssuer) MarkNotificationRead(ctx context.Context, token, id string) error {
	if s.markRead == nil {
		return nil
	}
	return s.markRead(ctx, token, id)
}

type stubStore struct {
	session *Session
}

func (s *stubStore) Load(context.Context) (*Session, error) {
	return s.session, nil
}

func (s *stubStore) Save(_ context.Context, session *Session) error {
	s.session = session
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.session = nil
	return nil
}

type stubAdminAPI struct {
	dashboard *AdminDashboard
	err       error
}

func (s *stubAdminAPI) AdminDashboard(context.Context, string) (*AdminDashboard, error) {
	return s.dashboard, s.err
}

func testSession() *Session {
	return &Session{
		Token: "tok-ann",
		User: &Identity{
			ID:    "u1",
			Email: "a@x.com",
			Role:  RoleUser,
		},
	}
}

func loggedInManager(t *testing.T, issuer CredentialIssuer, opts ...SessionManagerOption) *SessionManager {
	t.Helper()
	sm := NewSessionManager(issuer, &stubStore{}, opts...)
	require.NoError(t, sm.Login(context.Background(), LoginPayload{
		Email:    "a@x.com",
		Password: "secret-pass",
	}))
	return sm
}

func newTestController(manager *SessionManager, opts ...AuthControllerOption) *AuthController {
	all := append([]AuthControllerOption{
		WithControllerManager(manager),
		WithControllerLogger(NoopLogger{}),
	}, opts...)
	return NewAuthController(all...)
}

func TestLoginShowRendersForm(t *testing.T) {
	ctrl := newTestController(NewSessionManager(&stubIssuer{}, &stubStore{}))

	ctx := router.NewMockContext()
	ctx.On("Render", ctrl.Views.Login, mock.Anything).Return(nil)

	require.NoError(t, ctrl.LoginShow(ctx))
	ctx.AssertExpectations(t)
}

func TestLoginPostFailureReRendersForm(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			return nil, ErrInvalidCredentials
		},
	}
	ctrl := newTestController(NewSessionManager(issuer, &stubStore{}))

	ctx := router.NewMockContext()
	ctx.On("Bind", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*LoginPayload)
		payload.Email = "a@x.com"
		payload.Password = "wrong-pass"
	})
	ctx.On("Context").Return(context.Background())
	ctx.On("Render", ctrl.Views.Login, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind, ok := args.Get(1).(router.ViewContext)
		require.True(t, ok, "expected router.ViewContext")
		errors, ok := bind["errors"].(map[string]string)
		require.True(t, ok)
		require.NotEmpty(t, errors["authentication"])
	})

	require.NoError(t, ctrl.LoginPost(ctx))
	require.Equal(t, StateAnonymous, ctrl.Manager.State())
	ctx.AssertExpectations(t)
}

func TestLoginPostInvalidPayloadShowsValidation(t *testing.T) {
	ctrl := newTestController(NewSessionManager(&stubIssuer{}, &stubStore{}))

	ctx := router.NewMockContext()
	ctx.On("Bind", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*LoginPayload)
		payload.Email = "not-an-email"
	})
	ctx.On("Render", ctrl.Views.Login, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind := args.Get(1).(router.ViewContext)
		fields, ok := bind["validation"].(map[string]string)
		require.True(t, ok)
		require.NotEmpty(t, fields["email"])
		require.NotEmpty(t, fields["password"])
	})

	require.NoError(t, ctrl.LoginPost(ctx))
	ctx.AssertExpectations(t)
}

func TestLoginPostSuccessRedirectsHome(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			return testSession(), nil
		},
	}
	ctrl := newTestController(NewSessionManager(issuer, &stubStore{}))

	ctx := router.NewMockContext()
	ctx.On("Bind", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*LoginPayload)
		payload.Email = "a@x.com"
		payload.Password = "secret-pass"
	})
	ctx.On("Context").Return(context.Background())
	ctx.On("Cookie", mock.Anything).Return().Maybe()
	ctx.On("Locals", mock.Anything, mock.Anything).Return(nil).Maybe()
	ctx.On("Redirect", "/", mock.Anything).Return(nil)

	require.NoError(t, ctrl.LoginPost(ctx))
	require.Equal(t, StateAuthenticated, ctrl.Manager.State())
	ctx.AssertExpectations(t)
}

func TestLogOutReturnsHome(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			return testSession(), nil
		},
	}
	ctrl := newTestController(loggedInManager(t, issuer))

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Redirect", "/", mock.Anything).Return(nil)

	require.NoError(t, ctrl.LogOut(ctx))
	require.Equal(t, StateAnonymous, ctrl.Manager.State())
	ctx.AssertExpectations(t)
}

func TestVerifyOTPShowRedirectsWithoutPendingSignup(t *testing.T) {
	ctrl := newTestController(NewSessionManager(&stubIssuer{}, &stubStore{}))

	ctx := router.NewMockContext()
	ctx.On("Redirect", ctrl.Routes.Signup, mock.Anything).Return(nil)

	require.NoError(t, ctrl.VerifyOTPShow(ctx))
	ctx.AssertExpectations(t)
}

func TestVerifyOTPPostBadCodeAllowsRetry(t *testing.T) {
	issuer := &stubIssuer{
		signup: func(context.Context, SignupPayload) (string, error) {
			return "check your email", nil
		},
		verifyOTP: func(context.Context, string, string) (*Session, error) {
			return nil, ErrInvalidOTP
		},
	}

	sm := NewSessionManager(issuer, &stubStore{})
	_, err := sm.Signup(context.Background(), SignupPayload{
		FullName: "Ann",
		Email:    "a@x.com",
		Password: "secret-pass",
	})
	require.NoError(t, err)

	ctrl := newTestController(sm)

	ctx := router.NewMockContext()
	ctx.On("Bind", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		payload := args.Get(0).(*VerifyOTPRequest)
		payload.Code = "000000"
	})
	ctx.On("Context").Return(context.Background())
	ctx.On("Render", ctrl.Views.VerifyOTP, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind := args.Get(1).(router.ViewContext)
		require.Equal(t, "a@x.com", bind["email"])
	})

	require.NoError(t, ctrl.VerifyOTPPost(ctx))
	require.Equal(t, StatePendingVerification, sm.State())
	ctx.AssertExpectations(t)
}

func TestNotificationsIndexServesProjection(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			return testSession(), nil
		},
		notifs: func(context.Context, string) ([]Notification, error) {
			return []Notification{
				{ID: "n1", Message: "one"},
				{ID: "n2", Message: "two", IsRead: true},
			}, nil
		},
	}

	ledger := NewLedger(issuer)
	sm := loggedInManager(t, issuer, WithLedger(ledger))
	ctrl := newTestController(sm, WithControllerLedger(ledger))

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("JSON", router.StatusOK, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		body := args.Get(1).(map[string]any)
		require.Equal(t, 1, body["unread"])
		require.Len(t, body["notifications"], 2)
	})

	require.NoError(t, ctrl.NotificationsIndex(ctx))
	ctx.AssertExpectations(t)
}

func TestNotificationsMarkReadReportsNewCount(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			return testSession(), nil
		},
		notifs: func(context.Context, string) ([]Notification, error) {
			return []Notification{
				{ID: "n1", Message: "one"},
				{ID: "n2", Message: "two"},
			}, nil
		},
	}

	ledger := NewLedger(issuer)
	sm := loggedInManager(t, issuer, WithLedger(ledger))
	ctrl := newTestController(sm, WithControllerLedger(ledger))

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Param", "id", "").Return("n1")
	ctx.On("JSON", router.StatusOK, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		body := args.Get(1).(map[string]any)
		require.Equal(t, true, body["ok"])
		require.Equal(t, 1, body["unread"])
	})

	require.NoError(t, ctrl.NotificationsMarkRead(ctx))
	ctx.AssertExpectations(t)
}

func TestAdminShowForbiddenForNonAdmin(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			return testSession(), nil
		},
	}

	admin := &stubAdminAPI{err: ErrForbidden}
	ctrl := newTestController(loggedInManager(t, issuer), WithControllerAdminAPI(admin))

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Status", router.StatusForbidden).Return(ctx)
	ctx.On("Render", ctrl.Views.Admin, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind := args.Get(1).(router.ViewContext)
		errors, ok := bind["errors"].(map[string]string)
		require.True(t, ok)
		require.NotEmpty(t, errors["admin"])
	})

	require.NoError(t, ctrl.AdminShow(ctx))
	ctx.AssertExpectations(t)
}

func TestAdminShowRendersDashboard(t *testing.T) {
	issuer := &stubIssuer{
		login: func(context.Context, string, string) (*Session, error) {
			session := testSession()
			session.User.Role = RoleAdmin
			return session, nil
		},
	}

	admin := &stubAdminAPI{
		dashboard: &AdminDashboard{
			Users: []Identity{{ID: "u1", Email: "a@x.com"}},
			Blogs: []Blog{{ID: "b1", Title: "hello"}},
		},
	}
	ctrl := newTestController(loggedInManager(t, issuer), WithControllerAdminAPI(admin))

	ctx := router.NewMockContext()
	ctx.On("Context").Return(context.Background())
	ctx.On("Render", ctrl.Views.Admin, mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		bind := args.Get(1).(router.ViewContext)
		require.Len(t, bind["users"], 1)
		require.Len(t, bind["blogs"], 1)
	})

	require.NoError(t, ctrl.AdminShow(ctx))
	ctx.AssertExpectations(t)
}

func TestFormatValidationErrorToMap(t *testing.T) {
	err := SignupPayload{}.Validate()
	require.Error(t, err)

	fields := FormatValidationErrorToMap(err)
	require.NotEmpty(t, fields["fullName"])
	require.NotEmpty(t, fields["email"])
	require.NotEmpty(t, fields["password"])

	require.Empty(t, FormatValidationErrorToMap(nil))
}

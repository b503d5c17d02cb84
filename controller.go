package blogify

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

type AuthControllerRoutes struct {
	Login         string
	Logout        string
	Signup        string
	VerifyOTP     string
	Notifications string
	Admin         string
}

type AuthControllerViews struct {
	Login     string
	Signup    string
	VerifyOTP string
	Admin     string
}

// AuthController binds the session lifecycle, the notification ledger, and
// the admin surface to HTTP routes. It is form-to-API plumbing: every
// decision it relays comes from the session manager or the issuer.
type AuthController struct {
	Debug        bool
	Logger       Logger
	Manager      *SessionManager
	Ledger       *Ledger
	Admin        AdminAPI
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerManager(manager *SessionManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Manager = manager
		return c
	}
}

func WithControllerLedger(ledger *Ledger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Ledger = ledger
		return c
	}
}

func WithControllerAdminAPI(admin AdminAPI) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Admin = admin
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:         "/login",
			Logout:        "/logout",
			Signup:        "/signup",
			VerifyOTP:     "/verify-otp",
			Notifications: "/notifications",
			Admin:         "/admin",
		},
		Views: &AuthControllerViews{
			Login:     "login",
			Signup:    "signup",
			VerifyOTP: "verify_otp",
			Admin:     "admin",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Manager == nil {
		panic("Missing SessionManager in auth controller...")
	}

	return c
}

// RegisterClientRoutes mounts the controller on the router, applying the
// guard per route: auth forms are public, notifications require an
// authenticated identity, and the admin surface stays navigable for any
// authenticated identity (the issuer rejects non-admin data requests).
func RegisterClientRoutes[T any](app router.Router[T], guard *Guard, opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Get(controller.Routes.Login, controller.LoginShow).
		SetName("sign-in.get")

	app.
		Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Signup, controller.SignupShow).
		SetName("sign-up.get")
	app.Post(controller.Routes.Signup, controller.SignupPost).
		SetName("sign-up.post")

	app.Get(controller.Routes.VerifyOTP, controller.VerifyOTPShow).
		SetName("verify-otp.get")
	app.Post(controller.Routes.VerifyOTP, controller.VerifyOTPPost).
		SetName("verify-otp.post")

	app.Get(controller.Routes.Notifications, controller.NotificationsIndex,
		guard.Middleware(RequireAuthenticated)).
		SetName("notifications.get")
	app.Post(controller.Routes.Notifications+"/:id/read", controller.NotificationsMarkRead,
		guard.Middleware(RequireAuthenticated)).
		SetName("notifications.read.post")

	app.Get(controller.Routes.Admin, controller.AdminShow,
		guard.Middleware(RequireAdmin)).
		SetName("admin.get")
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)
	errors := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Manager.Login(ctx.Context(), *payload); err != nil {
		a.Logger.Error("login error: %v", err)
		errors["authentication"] = "Authentication Error"
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors":  errors,
			"payload": payload,
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Logged in successfully",
	}).Redirect("/", router.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Manager.Logout(ctx.Context())
	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *AuthController) SignupShow(ctx router.Context) error {
	return ctx.Render(a.Views.Signup, router.ViewContext{
		"errors": map[string]string{},
		"record": SignupPayload{},
	})
}

func (a *AuthController) SignupPost(ctx router.Context) error {
	payload := new(SignupPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("signup parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(router.StatusBadRequest).Render(a.Views.Signup, router.ViewContext{
			"record": payload,
		})
	}

	message, err := a.Manager.Signup(ctx.Context(), *payload)
	if err != nil {
		a.Logger.Error("signup error: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Signup failed",
		}).Render(a.Views.Signup, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": message,
	}).Redirect(a.Routes.VerifyOTP, router.StatusSeeOther)
}

func (a *AuthController) VerifyOTPShow(ctx router.Context) error {
	email := a.Manager.PendingEmail()
	if email == "" {
		// Restart landed here without a pending signup; the OTP window is
		// memory-only by design.
		return ctx.Redirect(a.Routes.Signup, router.StatusSeeOther)
	}

	return ctx.Render(a.Views.VerifyOTP, router.ViewContext{
		"errors": map[string]string{},
		"email":  email,
	})
}

// VerifyOTPRequest is the verification form payload.
type VerifyOTPRequest struct {
	Code string `form:"code" json:"code"`
}

// Validate will run validation rules
func (r VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(6, 6)),
	)
}

func (a *AuthController) VerifyOTPPost(ctx router.Context) error {
	payload := new(VerifyOTPRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.VerifyOTP, router.ViewContext{
			"email":      a.Manager.PendingEmail(),
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Manager.VerifyOTP(ctx.Context(), payload.Code); err != nil {
		if IsOTPError(err) {
			// Recoverable: the signup stays pending and the code can be
			// retried.
			return ctx.Render(a.Views.VerifyOTP, router.ViewContext{
				"email":  a.Manager.PendingEmail(),
				"errors": map[string]string{"code": "Invalid or expired code"},
			})
		}
		return a.ErrorHandler(ctx, err)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account verified",
	}).Redirect("/", router.StatusSeeOther)
}

func (a *AuthController) NotificationsIndex(ctx router.Context) error {
	if a.Ledger == nil {
		return ctx.JSON(router.StatusOK, map[string]any{
			"notifications": []Notification{},
			"unread":        0,
		})
	}

	if err := a.Ledger.Refresh(ctx.Context()); err != nil {
		// Keep serving the previous projection; refresh failures are
		// recoverable and must not blank the list.
		a.Logger.Warn("notification refresh failed: %v", err)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"notifications": a.Ledger.All(),
		"unread":        a.Ledger.UnreadCount(),
	})
}

func (a *AuthController) NotificationsMarkRead(ctx router.Context) error {
	if a.Ledger == nil {
		return ctx.JSON(router.StatusNotFound, map[string]string{
			"error": "notifications unavailable",
		})
	}

	id := ctx.Param("id", "")
	if err := a.Ledger.MarkRead(ctx.Context(), id); err != nil {
		a.Logger.Error("mark notification read: %v", err)
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"ok":     true,
		"unread": a.Ledger.UnreadCount(),
	})
}

func (a *AuthController) AdminShow(ctx router.Context) error {
	if a.Admin == nil {
		return a.ErrorHandler(ctx, ErrForbidden)
	}

	session := a.Manager.Current()
	if !session.Valid() {
		return ctx.Redirect("/login", router.StatusSeeOther)
	}

	dashboard, err := a.Admin.AdminDashboard(ctx.Context(), session.Token)
	if err != nil {
		if IsForbidden(err) {
			// Navigation was advisory; the issuer is the authority and said
			// no.
			return ctx.Status(router.StatusForbidden).Render(a.Views.Admin, router.ViewContext{
				"errors": map[string]string{"admin": "Insufficient privileges"},
			})
		}
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Admin, router.ViewContext{
		"users":    dashboard.Users,
		"blogs":    dashboard.Blogs,
		"comments": dashboard.Comments,
	})
}

// FormatValidationErrorToMap flattens an ozzo validation error into
// field-to-message pairs for template rendering.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var fields validation.Errors
	ok := false
	if fields, ok = err.(validation.Errors); !ok {
		out["form"] = err.Error()
		return out
	}

	for name, ferr := range fields {
		if ferr != nil {
			out[name] = ferr.Error()
		}
	}
	return out
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}

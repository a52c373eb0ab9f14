package service

// Error kinds mirror how callers are allowed to react: authentication
// failures are safe to show verbatim, authorization failures map to a
// forbidden response, the rest follow the usual REST conventions.
type ErrorKind int

const (
	KindAuthentication ErrorKind = iota
	KindAuthorization
	KindNotFound
	KindConflict
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func authError(msg string) *Error     { return &Error{Kind: KindAuthentication, Message: msg} }
func forbidden(msg string) *Error     { return &Error{Kind: KindAuthorization, Message: msg} }
func notFound(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func conflictError(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Unknown-email and wrong-password logins must be indistinguishable, so
// they share one value.
var (
	ErrInvalidCredentials     = authError("invalid email or password")
	ErrAccountDeactivated     = authError("account is deactivated")
	ErrEmailTaken             = conflictError("user with this email already exists")
	ErrRegistrationInProgress = conflictError("registration already in progress, check your email for the OTP")
	ErrNoPendingRegistration  = notFound("no pending registration found, please register first")
	ErrNoResetRequest         = notFound("no password reset request found, please request a new one")
	ErrOTPExpired             = authError("OTP has expired, please start over")
	ErrOTPInvalid             = authError("invalid OTP")
	ErrOTPAttemptsExceeded    = authError("too many incorrect OTP attempts, please start over")
	ErrInvalidRefreshToken    = authError("invalid refresh token")
	ErrRefreshTokenExpired    = authError("refresh token expired")
	ErrEmailDelivery          = authError("failed to send verification email, please try again")
	ErrUserMissing            = notFound("user not found")
	ErrWrongPassword          = authError("current password is incorrect")
	ErrAdminRequired          = forbidden("admin access required")
	ErrAdminSelfDelete        = forbidden("cannot delete your own account as admin")
)

// Package users implements account registration, login and admin user management.
//
// The Service sits between the HTTP handlers and the credential store. It owns
// input validation, email normalization, password hashing and token issuance;
// handlers only translate its errors into HTTP responses:
//
//	svc, err := users.NewService(store, hasher, issuer, users.Config{
//		TokenTTL:         24 * time.Hour,
//		RegisterTokenTTL: 720 * time.Hour,
//		AllowAdminSignup: true,
//	}, users.WithRecorder(metrics))
//
//	session, err := svc.Register(ctx, users.RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
//	var verr *users.ValidationError
//	switch {
//	case errors.As(err, &verr):
//		// 400 with verr.Message
//	case errors.Is(err, users.ErrUserExists):
//		// 400 "User already exists"
//	}
//
// Login failures are always ErrInvalidCredentials, whether the email is unknown
// or the password is wrong.
package users

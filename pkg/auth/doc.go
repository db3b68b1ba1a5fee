// Package auth provides password hashing, bearer token issuance and the
// user/role types shared by the rest of the service.
//
// # Overview
//
// Passwords are stored as bcrypt digests and never serialized back to
// clients. Bearer tokens are HS256 JWTs signed with a server secret that is
// loaded once at startup and injected into a TokenIssuer.
//
// # Key Components
//
// Password hashing:
//
//	hasher := auth.NewPasswordHasher(auth.DefaultBcryptCost)
//	digest, err := hasher.Hash("secret1")
//	ok := hasher.Verify("secret1", digest)
//
// Token issuance and verification:
//
//	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.JWTSecret))
//	token, err := issuer.Issue(user.ID, user.Role, 24*time.Hour)
//	claims, err := issuer.Verify(token)
//	// err is auth.ErrTokenExpired or auth.ErrTokenInvalid
//
// Roles:
//
//	RoleUser  - Standard account, can read its own profile
//	RoleAdmin - Can list, update and delete any user
//
// Authorization is an explicit capability check on the closed role set:
//
//	if !authCtx.Can(auth.CapabilityManageUsers) {
//		// reject
//	}
//
// # Related Packages
//
//   - pkg/middleware: Bearer token authentication and role gating
//   - pkg/users: Registration and login built on this package
package auth

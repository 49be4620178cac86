// Package auth define lo que el HTTP necesita de la identidad del usuario,
// sin atarse a un proveedor de tokens.
package auth

import "context"

// Claims: UserID es el dueño de todos los datos (sustancias, protocolos, dosis, logs).
type Claims struct {
	UserID string
	Email  string
}

// AuthVerifier valida un bearer token. Implementación: adapters/auth/jwt.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

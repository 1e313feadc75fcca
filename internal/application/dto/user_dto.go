package dto

// RegisterUserRequest alta de usuario.
type RegisterUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse token de sesión emitido tras un login exitoso.
type TokenResponse struct {
	Token string `json:"token"`
}

// UserResponse representación pública del usuario.
type UserResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"asha"`
	Password string `json:"password" binding:"required" example:"s3cret-pass"`
}

// TokenResponse represents the session token handed to the client. The same
// token is also set as an HttpOnly cookie.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType" example:"Bearer"`
	ExpiresIn   int    `json:"expiresIn" example:"43200"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token   TokenResponse   `json:"token"`
	Student StudentResponse `json:"student"`
}

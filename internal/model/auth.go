package model

// TokenResponse is the payload returned on successful login or
// registration.
type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

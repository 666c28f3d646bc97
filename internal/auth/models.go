package auth

// DevAuthRequest: необязательный user_id для dev-токена
type DevAuthRequest struct {
	UserID string `json:"user_id" validate:"omitempty,max=128,printascii"`
}

// DevAuthResponse: ответ на dev-авторизацию
type DevAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	UserID      string `json:"user_id"`
}

type MeResponse struct {
	UserID   string `json:"user_id"`
	AuthMode string `json:"auth_mode"`
}

// ErrorResponse: формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

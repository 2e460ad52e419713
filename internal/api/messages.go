package api

// Validate tags are checked by the server before a request reaches the
// account service.

type AccountInfo struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	Name              string `json:"name,omitempty"`
	AvatarURL         string `json:"avatarURL"`
	Verified          bool   `json:"verified"`
	VerificationToken string `json:"verificationToken,omitempty"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	Name     string `json:"name,omitempty" validate:"max=100"`
}

type RegisterResponse struct {
	Account AccountInfo `json:"user"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type LoginResponse struct {
	Token   string      `json:"token"`
	Account AccountInfo `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type CurrentRequest struct{}

type CurrentResponse struct {
	Email string `json:"email"`
}

type VerifyRequest struct {
	Token string `json:"verificationToken" validate:"required,max=256"`
}

type VerifyResponse struct {
	Message string `json:"message"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResendVerificationResponse struct {
	Message string `json:"message"`
}

type UploadAvatarRequest struct {
	Image []byte `json:"image" validate:"required,min=1"`
}

type UploadAvatarResponse struct {
	AvatarURL string `json:"avatarURL"`
}

type ListEmailsRequest struct{}

type ListEmailsResponse struct {
	Emails []string `json:"emails"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

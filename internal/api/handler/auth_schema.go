package handler

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,max=254" example:"farmer@example.com"`
	Password string `json:"password" validate:"required,max=72"  example:"pw123"`
}

type userResponse struct {
	ID    int64  `json:"id"    example:"1"`
	Email string `json:"email" example:"farmer@example.com"`
}

type authResponse struct {
	Success bool          `json:"success" example:"true"`
	User    *userResponse `json:"user"`
}

type meResponse struct {
	User *userResponse `json:"user"`
}

type successResponse struct {
	Success bool `json:"success" example:"true"`
}

type errorBody struct {
	Error string `json:"error" example:"Unauthorized"`
}

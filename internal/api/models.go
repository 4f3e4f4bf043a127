package api

// LoginRequest authenticates an admin.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

// UpdateStatusRequest moves a booking to a new lifecycle status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

package domain

// User is the signed-in user's profile as returned by the backend.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// SignInResult is the response of the backend sign-in exchange. The CSRF
// token must accompany every subsequent authenticated request.
type SignInResult struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	CSRFToken string `json:"csrf_token"`
}

// User returns the profile embedded in the sign-in result.
func (r SignInResult) User() User {
	return User{Username: r.Username, Email: r.Email}
}

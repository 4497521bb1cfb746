package chat

// User is an authenticated participant with a resolved reputation score.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

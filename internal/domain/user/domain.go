package user

type User struct {
	ID       int64   `json:"id"`
	TenantID int64   `json:"tenant_id"`
	Email    string  `json:"email"`
	Phone    *string `json:"phone,omitempty"`
	Language string  `json:"language"`
}

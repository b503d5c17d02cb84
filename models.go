package blogify

import "time"

// Identity is the issuer-confirmed profile of the signed-in user. Instances
// are only ever created from a successful login or OTP-verified signup
// response and destroyed on logout or token rejection.
type Identity struct {
	ID              string   `json:"_id"`
	FullName        string   `json:"fullName"`
	Email           string   `json:"email"`
	Role            UserRole `json:"role"`
	ProfileImageURL string   `json:"profileImageURL,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role.IsAdmin()
}

func (i *Identity) clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

// Notification is one entry of the backend's notification set, scoped to the
// current identity. Entries transition isRead false to true exactly once.
type Notification struct {
	ID        string    `json:"_id"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Blog is the display payload of a post. Opaque to the session core, used by
// the REST plumbing and the admin dashboard.
type Blog struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	CoverURL  string    `json:"coverImageURL,omitempty"`
	CreatedBy *Identity `json:"createdBy,omitempty"`
	Likes     int       `json:"likes,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Comment is a comment on a blog post.
type Comment struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	BlogID    string    `json:"blogId,omitempty"`
	CreatedBy *Identity `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// AdminDashboard is the admin-only aggregate the backend returns for
// role=admin identities.
type AdminDashboard struct {
	Users    []Identity `json:"users"`
	Blogs    []Blog     `json:"blogs"`
	Comments []Comment  `json:"comments"`
}

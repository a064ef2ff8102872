package employees

type Employee struct {
	ID         int64   `json:"id"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Department string  `json:"department,omitempty"`
	Salary     float64 `json:"salary"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// CreateInput is the raw employee form. Salary stays a string so absent or
// unparseable values can fall back to zero.
type CreateInput struct {
	FirstName  string `json:"first_name" validate:"required,max=50"`
	LastName   string `json:"last_name" validate:"required,max=50"`
	Email      string `json:"email" validate:"required,max=120"`
	Department string `json:"department" validate:"max=50"`
	Salary     string `json:"salary"`
}

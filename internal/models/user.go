package models

type LoginRequest struct {
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"`
}

func (r *LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

// FieldRequest is the body of the on-blur single-field validation endpoints.
type FieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// FieldValidation is the answer to a FieldRequest.
type FieldValidation struct {
	Field     string `json:"field"`
	ElementID string `json:"elementId"`
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
}

package models

// CreateOrderRequest is the body of POST /api/pay/create-order.
type CreateOrderRequest struct {
	Email   string `json:"email" form:"email" binding:"required"`
	Purpose string `json:"purpose,omitempty" form:"purpose"`
	Amount  *int64 `json:"amount,omitempty" form:"amount"`
	Name    string `json:"name,omitempty" form:"name"`
	DOB     string `json:"dob,omitempty" form:"dob"`
	Query   string `json:"query,omitempty" form:"query"`
}

// SavePredictionRequest is the body of POST /api/on-prediction.
type SavePredictionRequest struct {
	UserID    string `json:"userId" binding:"required"`
	Query     string `json:"query" binding:"required"`
	Reading   string `json:"prediction" binding:"required"`
	Name      string `json:"name,omitempty"`
	DOB       string `json:"dob,omitempty"`
	TOB       string `json:"tob,omitempty"`
	Place     string `json:"place,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
}

// SendLinkRequest is the body of POST /api/auth/send-link.
type SendLinkRequest struct {
	Email string `json:"email" form:"email"`
}

// VerifySessionRequest is the body of POST /api/auth/verify.
// Older clients send the cookie value as "token".
type VerifySessionRequest struct {
	SessionCookie string `json:"sessionCookie,omitempty"`
	Token         string `json:"token,omitempty"`
}

// AdminUserOpRequest is the body of POST /api/admin/users.
type AdminUserOpRequest struct {
	UID string `json:"uid" binding:"required"`
	Op  string `json:"op" binding:"required"`
}

// AdminAddCreditsRequest is the body of POST /api/admin/add-credits.
type AdminAddCreditsRequest struct {
	UID   string `json:"uid" form:"uid" binding:"required"`
	Delta *int   `json:"delta,omitempty" form:"delta"`
}

// AdminSetPlanRequest is the body of POST /api/admin/set-plan.
type AdminSetPlanRequest struct {
	UID  string `json:"uid" form:"uid" binding:"required"`
	Plan string `json:"plan,omitempty" form:"plan"`
}

// MakeAdminRequest is the body of POST /api/admin/make-admin.
type MakeAdminRequest struct {
	Email string `json:"email" binding:"required"`
}

package auth

// Known OAuth scopes used by the booking service.
const (
	ScopeRecommendationsRead = "recommendations:read"
	ScopeRegistrationsRead   = "registrations:read"
	ScopeRegistrationsWrite  = "registrations:write"
)

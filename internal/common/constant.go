package common

const (
	// AuthorizationHeaderName carries "Bearer <jwt>" on every protected request.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// MinPasswordLength applies to every account, whoever creates it.
	MinPasswordLength = 8
)

package constants

// Application Information
const (
	AppName    = "CoreConnect API"
	AppVersion = "1.0.0"
)

// Environment Types
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Default Application Settings
const (
	DefaultPort        = "8080"
	DefaultEnvironment = EnvDevelopment
)

// User Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Token Types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
	TokenTypeBearer  = "Bearer"
)

// Action Token Purposes
const (
	PurposeEmailVerification = "email_verification"
	PurposePasswordReset     = "password_reset"
)

// Cache Key Prefixes
const (
	CacheKeyPrefix    = "coreconnect:"
	CacheKeyUser      = CacheKeyPrefix + "user:"
	CacheKeyDashboard = CacheKeyPrefix + "dashboard:"
)

// Log Levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
	LogLevelFatal = "fatal"
)

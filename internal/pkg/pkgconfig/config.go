package pkgconfig

// Config is the read-only view over application configuration. Missing keys
// yield zero values.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetString(key string) string
	// GetArray splits "a,b,c"; used for CORS origins.
	GetArray(key string) []string
	// GetMap parses "k:v,k:v"; used for static remote headers.
	GetMap(key string) map[string]string
	Close() error
}

package pkguid

// StringID is satisfied by UUID; it names requests and job events.
type StringID interface {
	Generate() string
}

// NumberID is satisfied by Snowflake; it numbers compression jobs.
type NumberID interface {
	Generate() int64
}

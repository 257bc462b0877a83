package domain

// Organization is a configured bank whose mobile-app reviews are ingested.
// The set is fixed at process start and immutable during a run.
type Organization struct {
	ID          int64 // surrogate key, 0 until upserted
	Code        string
	DisplayName string
	AppID       string
}

// AppInfo is store-page metadata for an application.
type AppInfo struct {
	AppID   string
	Title   string
	Score   float64
	Ratings int64
}

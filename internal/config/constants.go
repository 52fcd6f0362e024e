package config

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./placesync.db"

	// DefaultProviderBaseURL is the business-listing API endpoint serving
	// locations and their sub-collections; overridable for tests and
	// self-hosted mirrors. Must stay in step with the provider client's
	// built-in default.
	DefaultProviderBaseURL = "https://mybusiness.googleapis.com/v4"
)

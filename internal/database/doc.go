// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, account and setting helpers
//	├── listings/        # Synced listing data (locations, reviews, Q&A, posts, media)
//	├── syncruns/        # Sync run lifecycle records
//	└── audit/           # Persisted audit events
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type around the shared *gorm.DB:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./placesync.db")
//
//	// Create domain-specific repositories
//	listingsRepo := listings.NewRepository(db.DB)
//	runsRepo := syncruns.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
//	// Use repositories
//	locations, err := listingsRepo.GetLocations(accountID, userID)
//	run, err := runsRepo.GetRun(accountID, userID)
//
// # Interface Implementations
//
// Repositories back the ports declared by consuming packages:
//
//   - Database: implements sync.AccountResolver
//   - listings.Repository: implements sync.TransactionalWriter
//   - syncruns.Repository: implements sync.RunRecorder
//   - audit.Repository: backs the audit.Service event store
//
// # Adding a New Domain
//
// To add a new domain (e.g., insights):
//
//  1. Create a new sub-package: internal/database/insights/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database

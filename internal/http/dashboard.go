package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vkarpenko/placesync/internal/cache"
	"github.com/vkarpenko/placesync/internal/database"
	"github.com/vkarpenko/placesync/internal/entities"
	syncpkg "github.com/vkarpenko/placesync/internal/sync"
)

// DashboardController serves the aggregated listing data the dashboard
// renders. Responses come from the TTL cache; committed syncs refresh the
// bucket so the next read is warm.
type DashboardController struct {
	db    *database.Database
	cache *cache.Cache
}

// DashboardData is the cached aggregate for one user.
type DashboardData struct {
	Accounts  []AccountSummary `json:"accounts"`
	Locations int              `json:"locations"`
	Reviews   int              `json:"reviews"`
}

// AccountSummary is one account's slice of the dashboard.
type AccountSummary struct {
	Account   entities.Account    `json:"account"`
	Locations []entities.Location `json:"locations"`
}

func NewDashboardController(db *database.Database, c *cache.Cache) *DashboardController {
	ctrl := &DashboardController{db: db, cache: c}
	if c != nil {
		c.RegisterLoader(syncpkg.CacheBucketDashboard, ctrl.loadDashboard)
	}
	return ctrl
}

// GetDashboard handles GET /api/dashboard
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	userID := GetUserID(c)

	if dc.cache == nil {
		data, err := dc.loadDashboard(userID)
		if err != nil {
			respondInternalError(c, err, "dashboard")
			return
		}
		c.JSON(http.StatusOK, data)
		return
	}

	data, err := dc.cache.Get(syncpkg.CacheBucketDashboard, userID)
	if err != nil {
		respondInternalError(c, err, "dashboard")
		return
	}

	c.JSON(http.StatusOK, data)
}

// GetLocations handles GET /api/accounts/:id/locations
func (dc *DashboardController) GetLocations(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Param("id")

	locations, err := dc.db.GetLocationsForUser(accountID, userID)
	if err != nil {
		respondInternalError(c, err, "locations")
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// GetLocationReviews handles GET /api/locations/:id/reviews
// :id is the location's provider resource name, URL-escaped by the client.
func (dc *DashboardController) GetLocationReviews(c *gin.Context) {
	userID := GetUserID(c)
	locationID := c.Param("id")

	reviews, err := dc.db.GetReviewsForLocation(locationID, userID)
	if err != nil {
		respondInternalError(c, err, "reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// loadDashboard assembles the dashboard aggregate straight from storage.
func (dc *DashboardController) loadDashboard(userID uint) (any, error) {
	accounts, err := dc.db.GetAccountsForUser(userID)
	if err != nil {
		return nil, err
	}

	data := DashboardData{Accounts: make([]AccountSummary, 0, len(accounts))}
	for _, account := range accounts {
		locations, err := dc.db.GetLocationsForUser(account.ExternalID, userID)
		if err != nil {
			return nil, err
		}
		data.Locations += len(locations)
		for _, loc := range locations {
			data.Reviews += loc.ReviewCount
		}
		data.Accounts = append(data.Accounts, AccountSummary{
			Account:   account,
			Locations: locations,
		})
	}

	return data, nil
}

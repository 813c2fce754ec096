package marketserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	listinghttpmapper "github.com/Apurer/go-gin-marketplace/internal/domains/listings/adapters/http/mapper"
	listingports "github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
)

// ListingAPI exposes the service catalog.
type ListingAPI struct {
	service listingports.Service
}

// NewListingAPI wires dependencies.
func NewListingAPI(service listingports.Service) ListingAPI {
	return ListingAPI{service: service}
}

// Post /api/listings
// Publishes a listing; sellers only
func (api *ListingAPI) CreateListing(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	var payload listinghttpmapper.CreateListing
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}
	listing, err := api.service.Create(c.Request.Context(), listinghttpmapper.ToCreateInput(caller, payload))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, listinghttpmapper.FromDomainListing(listing))
}

// Get /api/listings
// Lists listings, optionally by seller and category
func (api *ListingAPI) ListListings(c *gin.Context) {
	filter := listingports.ListFilter{
		SellerID: c.Query("userId"),
		Category: c.Query("cat"),
	}
	listings, err := api.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listinghttpmapper.FromDomainListings(listings))
}

// Get /api/listings/:listingId
// Finds a listing by ID
func (api *ListingAPI) GetListing(c *gin.Context) {
	id, ok := pathParam(c, "listingId")
	if !ok {
		return
	}
	listing, err := api.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listinghttpmapper.FromDomainListing(listing))
}

// Delete /api/listings/:listingId
// Removes a listing; owner or admin
func (api *ListingAPI) DeleteListing(c *gin.Context) {
	caller, ok := callerFrom(c)
	if !ok {
		return
	}
	id, ok := pathParam(c, "listingId")
	if !ok {
		return
	}
	if err := api.service.Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

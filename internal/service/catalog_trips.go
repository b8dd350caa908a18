package service

import (
	"time"

	"wanderlog/internal/models"
	"wanderlog/internal/trips"
)

func (c *Catalog) CreateTrip(in trips.NewTrip) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.Create(in)
}

func (c *Catalog) ListTrips() []models.Trip {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.List()
}

func (c *Catalog) GetTrip(id string) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.Get(id)
}

func (c *Catalog) AddPlacesToTrip(id string, keys []string) (models.Trip, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.AddPlaces(id, keys)
}

func (c *Catalog) RemovePlaceFromTrip(id, key string) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.RemovePlace(id, key)
}

func (c *Catalog) UpdateTrip(id string, u trips.TripUpdate) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.UpdateMetadata(id, u)
}

func (c *Catalog) DeleteTrip(id string) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.Delete(id)
}

func (c *Catalog) RemovePlacesEverywhere(keys []string) (trips.CascadeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.RemovePlacesEverywhere(keys)
}

func (c *Catalog) SetTripPhotos(id string, photos []models.Photo) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.SetPhotos(id, photos)
}

func (c *Catalog) RemoveTripPhoto(id string, index int) (models.Trip, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.RemovePhoto(id, index)
}

// TripMembers resolves a trip's keys against the place store; deleted
// places come back as missing members.
func (c *Catalog) TripMembers(id string) ([]trips.Member, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.Members(id, c.places)
}

func (c *Catalog) TripLatestActivity(id string) (time.Time, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trips.LatestActivityDate(id, c.places)
}

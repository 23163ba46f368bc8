package reports

import (
	"context"

	"example.com/backstage/foodshare/internal/models"
)

type CityProviders struct {
	City           string `gorm:"column:City" json:"City"`
	TotalProviders int64  `gorm:"column:total_providers" json:"total_providers"`
}

type CityReceivers struct {
	City           string `gorm:"column:City" json:"City"`
	TotalReceivers int64  `gorm:"column:total_receivers" json:"total_receivers"`
}

type ProviderTypeListings struct {
	ProviderType  string `gorm:"column:Provider_Type" json:"Provider_Type"`
	TotalListings int64  `gorm:"column:total_listings" json:"total_listings"`
}

type ProviderContact struct {
	Name    string `gorm:"column:Name" json:"Name"`
	Contact string `gorm:"column:Contact" json:"Contact"`
	Type    string `gorm:"column:Type" json:"Type"`
	Address string `gorm:"column:Address" json:"Address"`
}

type ReceiverClaims struct {
	ReceiverID  int    `gorm:"column:Receiver_ID" json:"Receiver_ID"`
	Name        string `gorm:"column:Name" json:"Name"`
	TotalClaims int64  `gorm:"column:total_claims" json:"total_claims"`
}

type CityListings struct {
	City          string `gorm:"column:City" json:"City"`
	ListingsCount int64  `gorm:"column:listings_count" json:"listings_count"`
}

type FoodTypeCount struct {
	FoodType    string `gorm:"column:Food_Type" json:"Food_Type"`
	Occurrences int64  `gorm:"column:occurrences" json:"occurrences"`
}

type FoodClaims struct {
	FoodID      int    `gorm:"column:Food_ID" json:"Food_ID"`
	FoodName    string `gorm:"column:Food_Name" json:"Food_Name"`
	TotalClaims int64  `gorm:"column:total_claims" json:"total_claims"`
}

type ProviderCompletedClaims struct {
	ProviderID      int    `gorm:"column:Provider_ID" json:"Provider_ID"`
	Name            string `gorm:"column:Name" json:"Name"`
	CompletedClaims int64  `gorm:"column:completed_claims" json:"completed_claims"`
}

type StatusShare struct {
	Status string  `gorm:"column:Status" json:"Status"`
	Count  int64   `gorm:"column:cnt" json:"cnt"`
	Pct    float64 `gorm:"column:pct" json:"pct"`
}

type ReceiverAverageQuantity struct {
	ReceiverID          int     `gorm:"column:Receiver_ID" json:"Receiver_ID"`
	Name                string  `gorm:"column:Name" json:"Name"`
	AvgQuantityPerClaim float64 `gorm:"column:avg_quantity_per_claim" json:"avg_quantity_per_claim"`
}

type MealTypeClaims struct {
	MealType    string `gorm:"column:Meal_Type" json:"Meal_Type"`
	ClaimsCount int64  `gorm:"column:claims_count" json:"claims_count"`
}

type ProviderDonation struct {
	ProviderID           int    `gorm:"column:Provider_ID" json:"Provider_ID"`
	Name                 string `gorm:"column:Name" json:"Name"`
	TotalQuantityDonated int64  `gorm:"column:total_quantity_donated" json:"total_quantity_donated"`
}

// ListingSummary is the row shape shared by the near-expiry and unclaimed reports
type ListingSummary struct {
	FoodID     int         `gorm:"column:Food_ID" json:"Food_ID"`
	FoodName   string      `gorm:"column:Food_Name" json:"Food_Name"`
	Quantity   int         `gorm:"column:Quantity" json:"Quantity"`
	ExpiryDate models.Date `gorm:"column:Expiry_Date" json:"Expiry_Date"`
	Location   string      `gorm:"column:Location" json:"Location"`
}

func (e *Engine) ProvidersPerCity(ctx context.Context) ([]CityProviders, error) {
	var out []CityProviders
	_, err := e.scan(ctx, ProvidersPerCityID, Params{}, &out)
	return out, err
}

func (e *Engine) ReceiversPerCity(ctx context.Context) ([]CityReceivers, error) {
	var out []CityReceivers
	_, err := e.scan(ctx, ReceiversPerCityID, Params{}, &out)
	return out, err
}

// ListingsPerProviderType prefers the provider's own type over the
// listing's copy when the provider exists.
func (e *Engine) ListingsPerProviderType(ctx context.Context) ([]ProviderTypeListings, error) {
	var out []ProviderTypeListings
	_, err := e.scan(ctx, ListingsPerProviderTypeID, Params{}, &out)
	return out, err
}

// ProviderContacts is empty when city is empty
func (e *Engine) ProviderContacts(ctx context.Context, city string) ([]ProviderContact, error) {
	out := []ProviderContact{}
	_, err := e.scan(ctx, ProviderContactsID, Params{City: city}, &out)
	return out, err
}

func (e *Engine) TopReceiversByClaims(ctx context.Context) ([]ReceiverClaims, error) {
	var out []ReceiverClaims
	_, err := e.scan(ctx, TopReceiversByClaimsID, Params{}, &out)
	return out, err
}

// TotalAvailableQuantity sums quantities expiring today or later
func (e *Engine) TotalAvailableQuantity(ctx context.Context) (int64, error) {
	var total int64
	_, err := e.scan(ctx, TotalAvailableQuantityID, Params{}, &total)
	return total, err
}

func (e *Engine) ListingsPerCity(ctx context.Context) ([]CityListings, error) {
	var out []CityListings
	_, err := e.scan(ctx, ListingsPerCityID, Params{}, &out)
	return out, err
}

func (e *Engine) FoodTypeDistribution(ctx context.Context) ([]FoodTypeCount, error) {
	var out []FoodTypeCount
	_, err := e.scan(ctx, FoodTypeDistributionID, Params{}, &out)
	return out, err
}

// ClaimsPerFood includes listings without claims
func (e *Engine) ClaimsPerFood(ctx context.Context) ([]FoodClaims, error) {
	var out []FoodClaims
	_, err := e.scan(ctx, ClaimsPerFoodID, Params{}, &out)
	return out, err
}

func (e *Engine) TopProvidersByCompletedClaims(ctx context.Context) ([]ProviderCompletedClaims, error) {
	var out []ProviderCompletedClaims
	_, err := e.scan(ctx, TopProvidersByCompletedClaimsID, Params{}, &out)
	return out, err
}

func (e *Engine) ClaimStatusDistribution(ctx context.Context) ([]StatusShare, error) {
	var out []StatusShare
	_, err := e.scan(ctx, ClaimStatusDistributionID, Params{}, &out)
	return out, err
}

func (e *Engine) AverageQuantityPerReceiver(ctx context.Context) ([]ReceiverAverageQuantity, error) {
	var out []ReceiverAverageQuantity
	_, err := e.scan(ctx, AverageQuantityPerReceiverID, Params{}, &out)
	return out, err
}

func (e *Engine) ClaimsByMealType(ctx context.Context) ([]MealTypeClaims, error) {
	var out []MealTypeClaims
	_, err := e.scan(ctx, ClaimsByMealTypeID, Params{}, &out)
	return out, err
}

func (e *Engine) QuantityDonatedPerProvider(ctx context.Context) ([]ProviderDonation, error) {
	var out []ProviderDonation
	_, err := e.scan(ctx, QuantityDonatedPerProviderID, Params{}, &out)
	return out, err
}

// NearExpiry lists listings expiring between today and today+days
// inclusive. Zero days means the default window.
func (e *Engine) NearExpiry(ctx context.Context, days int) ([]ListingSummary, error) {
	var out []ListingSummary
	_, err := e.scan(ctx, NearExpiryID, Params{Days: days}, &out)
	return out, err
}

// UnclaimedListings lists listings without a completed claim
func (e *Engine) UnclaimedListings(ctx context.Context) ([]ListingSummary, error) {
	var out []ListingSummary
	_, err := e.scan(ctx, UnclaimedListingsID, Params{}, &out)
	return out, err
}

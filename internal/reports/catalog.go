package reports

import (
	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
)

// Report identifiers, in catalog order
const (
	ProvidersPerCityID = iota + 1
	ReceiversPerCityID
	ListingsPerProviderTypeID
	ProviderContactsID
	TopReceiversByClaimsID
	TotalAvailableQuantityID
	ListingsPerCityID
	FoodTypeDistributionID
	ClaimsPerFoodID
	TopProvidersByCompletedClaimsID
	ClaimStatusDistributionID
	AverageQuantityPerReceiverID
	ClaimsByMealTypeID
	QuantityDonatedPerProviderID
	NearExpiryID
	UnclaimedListingsID
)

// Parameter names
const (
	ParamCity = "city"
	ParamDays = "days"
)

// Near-expiry window bounds, in days
const (
	DefaultNearExpiryDays = 2
	MinNearExpiryDays     = 1
	MaxNearExpiryDays     = 30
)

// Definition describes one fixed report
type Definition struct {
	ID      int      `json:"id"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Params  []string `json:"params,omitempty"`
	Chart   bool     `json:"chart"`
	Columns []string `json:"columns"`

	query string
	// bind returns the query arguments. skip reports that the result is
	// empty without running the query.
	bind func(today models.Date, p Params) (args []interface{}, skip bool, err error)
}

// Takes reports whether the report reads the named parameter
func (d Definition) Takes(param string) bool {
	for _, p := range d.Params {
		if p == param {
			return true
		}
	}
	return false
}

func noArgs(models.Date, Params) ([]interface{}, bool, error) { return nil, false, nil }

var definitions = []Definition{
	{
		ID:      ProvidersPerCityID,
		Slug:    "providers-per-city",
		Title:   "Providers per city",
		Chart:   true,
		Columns: []string{"City", "total_providers"},
		query: `SELECT city AS "City", COUNT(*) AS total_providers
FROM providers
GROUP BY city
ORDER BY total_providers DESC, city`,
		bind: noArgs,
	},
	{
		ID:      ReceiversPerCityID,
		Slug:    "receivers-per-city",
		Title:   "Receivers per city",
		Chart:   true,
		Columns: []string{"City", "total_receivers"},
		query: `SELECT city AS "City", COUNT(*) AS total_receivers
FROM receivers
GROUP BY city
ORDER BY total_receivers DESC, city`,
		bind: noArgs,
	},
	{
		ID:      ListingsPerProviderTypeID,
		Slug:    "listings-per-provider-type",
		Title:   "Listings per provider type",
		Chart:   true,
		Columns: []string{"Provider_Type", "total_listings"},
		query: `SELECT COALESCE(p.type, fl.provider_type) AS "Provider_Type", COUNT(*) AS total_listings
FROM food_listings fl
LEFT JOIN providers p ON p.provider_id = fl.provider_id
GROUP BY COALESCE(p.type, fl.provider_type)
ORDER BY total_listings DESC, "Provider_Type"`,
		bind: noArgs,
	},
	{
		ID:      ProviderContactsID,
		Slug:    "provider-contacts",
		Title:   "Provider contacts by city",
		Params:  []string{ParamCity},
		Columns: []string{"Name", "Contact", "Type", "Address"},
		query: `SELECT name AS "Name", contact AS "Contact", type AS "Type", address AS "Address"
FROM providers
WHERE city = ?
ORDER BY name`,
		bind: func(_ models.Date, p Params) ([]interface{}, bool, error) {
			if p.City == "" {
				return nil, true, nil
			}
			return []interface{}{p.City}, false, nil
		},
	},
	{
		ID:      TopReceiversByClaimsID,
		Slug:    "top-receivers-by-claims",
		Title:   "Top receivers by claim count",
		Columns: []string{"Receiver_ID", "Name", "total_claims"},
		query: `SELECT r.receiver_id AS "Receiver_ID", r.name AS "Name", COUNT(*) AS total_claims
FROM receivers r
JOIN claims c ON r.receiver_id = c.receiver_id
GROUP BY r.receiver_id, r.name
ORDER BY total_claims DESC, r.receiver_id`,
		bind: noArgs,
	},
	{
		ID:      TotalAvailableQuantityID,
		Slug:    "total-available-quantity",
		Title:   "Total non-expired quantity",
		Columns: []string{"total_available_quantity"},
		query: `SELECT COALESCE(SUM(quantity), 0) AS total_available_quantity
FROM food_listings
WHERE expiry_date >= ?`,
		bind: func(today models.Date, _ Params) ([]interface{}, bool, error) {
			return []interface{}{today}, false, nil
		},
	},
	{
		ID:      ListingsPerCityID,
		Slug:    "listings-per-city",
		Title:   "Listings per city",
		Chart:   true,
		Columns: []string{"City", "listings_count"},
		query: `SELECT location AS "City", COUNT(*) AS listings_count
FROM food_listings
GROUP BY location
ORDER BY listings_count DESC, location`,
		bind: noArgs,
	},
	{
		ID:      FoodTypeDistributionID,
		Slug:    "food-type-distribution",
		Title:   "Food type distribution",
		Chart:   true,
		Columns: []string{"Food_Type", "occurrences"},
		query: `SELECT food_type AS "Food_Type", COUNT(*) AS occurrences
FROM food_listings
GROUP BY food_type
ORDER BY occurrences DESC, food_type`,
		bind: noArgs,
	},
	{
		ID:      ClaimsPerFoodID,
		Slug:    "claims-per-food",
		Title:   "Claims per food item",
		Columns: []string{"Food_ID", "Food_Name", "total_claims"},
		query: `SELECT fl.food_id AS "Food_ID", fl.food_name AS "Food_Name", COUNT(c.claim_id) AS total_claims
FROM food_listings fl
LEFT JOIN claims c ON c.food_id = fl.food_id
GROUP BY fl.food_id, fl.food_name
ORDER BY total_claims DESC, fl.food_id`,
		bind: noArgs,
	},
	{
		ID:      TopProvidersByCompletedClaimsID,
		Slug:    "top-providers-by-completed-claims",
		Title:   "Top providers by completed claims",
		Columns: []string{"Provider_ID", "Name", "completed_claims"},
		query: `SELECT p.provider_id AS "Provider_ID", p.name AS "Name", COUNT(*) AS completed_claims
FROM providers p
JOIN food_listings fl ON fl.provider_id = p.provider_id
JOIN claims c ON c.food_id = fl.food_id
WHERE c.status = ?
GROUP BY p.provider_id, p.name
ORDER BY completed_claims DESC, p.provider_id`,
		bind: func(models.Date, Params) ([]interface{}, bool, error) {
			return []interface{}{models.StatusCompleted}, false, nil
		},
	},
	{
		ID:      ClaimStatusDistributionID,
		Slug:    "claim-status-distribution",
		Title:   "Claim status distribution",
		Columns: []string{"Status", "cnt", "pct"},
		query: `SELECT status AS "Status", COUNT(*) AS cnt,
	ROUND(100.0 * COUNT(*) / (SELECT COUNT(*) FROM claims), 2) AS pct
FROM claims
GROUP BY status
ORDER BY cnt DESC, status`,
		bind: noArgs,
	},
	{
		ID:      AverageQuantityPerReceiverID,
		Slug:    "average-quantity-per-receiver",
		Title:   "Average quantity per receiver",
		Columns: []string{"Receiver_ID", "Name", "avg_quantity_per_claim"},
		query: `SELECT r.receiver_id AS "Receiver_ID", r.name AS "Name",
	ROUND(CAST(AVG(fl.quantity) AS NUMERIC), 2) AS avg_quantity_per_claim
FROM receivers r
JOIN claims c ON c.receiver_id = r.receiver_id
JOIN food_listings fl ON fl.food_id = c.food_id
GROUP BY r.receiver_id, r.name
ORDER BY avg_quantity_per_claim DESC, r.receiver_id`,
		bind: noArgs,
	},
	{
		ID:      ClaimsByMealTypeID,
		Slug:    "claims-by-meal-type",
		Title:   "Claims by meal type",
		Chart:   true,
		Columns: []string{"Meal_Type", "claims_count"},
		query: `SELECT fl.meal_type AS "Meal_Type", COUNT(*) AS claims_count
FROM claims c
JOIN food_listings fl ON fl.food_id = c.food_id
GROUP BY fl.meal_type
ORDER BY claims_count DESC, fl.meal_type`,
		bind: noArgs,
	},
	{
		ID:      QuantityDonatedPerProviderID,
		Slug:    "quantity-donated-per-provider",
		Title:   "Total quantity donated per provider",
		Columns: []string{"Provider_ID", "Name", "total_quantity_donated"},
		query: `SELECT p.provider_id AS "Provider_ID", p.name AS "Name", SUM(fl.quantity) AS total_quantity_donated
FROM providers p
JOIN food_listings fl ON fl.provider_id = p.provider_id
GROUP BY p.provider_id, p.name
ORDER BY total_quantity_donated DESC, p.provider_id`,
		bind: noArgs,
	},
	{
		ID:      NearExpiryID,
		Slug:    "near-expiry",
		Title:   "Near-expiry items",
		Params:  []string{ParamDays},
		Columns: []string{"Food_ID", "Food_Name", "Quantity", "Expiry_Date", "Location"},
		query: `SELECT food_id AS "Food_ID", food_name AS "Food_Name", quantity AS "Quantity",
	expiry_date AS "Expiry_Date", location AS "Location"
FROM food_listings
WHERE expiry_date BETWEEN ? AND ?
ORDER BY expiry_date ASC, food_id`,
		bind: func(today models.Date, p Params) ([]interface{}, bool, error) {
			days, err := nearExpiryDays(p.Days)
			if err != nil {
				return nil, false, err
			}
			return []interface{}{today, today.AddDays(days)}, false, nil
		},
	},
	{
		ID:      UnclaimedListingsID,
		Slug:    "unclaimed-listings",
		Title:   "Unclaimed or not-completed items",
		Columns: []string{"Food_ID", "Food_Name", "Quantity", "Expiry_Date", "Location"},
		query: `SELECT fl.food_id AS "Food_ID", fl.food_name AS "Food_Name", fl.quantity AS "Quantity",
	fl.expiry_date AS "Expiry_Date", fl.location AS "Location"
FROM food_listings fl
LEFT JOIN claims c ON c.food_id = fl.food_id AND c.status = ?
WHERE c.claim_id IS NULL
ORDER BY fl.expiry_date, fl.food_id`,
		bind: func(models.Date, Params) ([]interface{}, bool, error) {
			return []interface{}{models.StatusCompleted}, false, nil
		},
	},
}

// Catalog returns every report definition in order
func Catalog() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition with the given id
func Lookup(id int) (Definition, error) {
	if id < 1 || id > len(definitions) {
		return Definition{}, errors.Wrapf(ErrUnknownReport, "report %d", id)
	}
	return definitions[id-1], nil
}

// LookupSlug returns the definition with the given slug
func LookupSlug(slug string) (Definition, error) {
	for _, def := range definitions {
		if def.Slug == slug {
			return def, nil
		}
	}
	return Definition{}, errors.Wrapf(ErrUnknownReport, "report %q", slug)
}

// ValidateNearExpiryDays checks an explicitly given near-expiry window
func ValidateNearExpiryDays(days int) error {
	if days < MinNearExpiryDays || days > MaxNearExpiryDays {
		return errors.Wrapf(ErrInvalidParameter, "days must be between %d and %d, got %d",
			MinNearExpiryDays, MaxNearExpiryDays, days)
	}
	return nil
}

// nearExpiryDays resolves the window of a run. Zero means not given.
func nearExpiryDays(days int) (int, error) {
	if days == 0 {
		return DefaultNearExpiryDays, nil
	}
	if err := ValidateNearExpiryDays(days); err != nil {
		return 0, err
	}
	return days, nil
}

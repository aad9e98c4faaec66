// Package domain defines the persistence models and filter schema for the
// recommendation assistant. Product and ConversationTurn are mapped with
// GORM; FilterQuery is the ephemeral per-turn filter record produced by the
// intent oracle and consumed by the catalog query builder.
package domain

import "time"

// Product is one immutable catalog record. The catalog is seeded once at
// process start and is read-only at query time; ProductID is the stable,
// globally unique key.
//
// Tag-like fields (Ingredients, DietaryTags, MoodTags, Allergens) are stored
// through the TagList codec, which writes a canonical JSON list and still
// reads legacy comma/bracket-delimited text.
type Product struct {
	ProductID       string  `json:"product_id"       gorm:"type:varchar(64);primaryKey"`
	Name            string  `json:"name"             gorm:"type:varchar(255);not null"`
	Category        string  `json:"category"         gorm:"type:varchar(64);not null;index:idx_products_category"`
	Description     string  `json:"description"      gorm:"type:text"`
	Ingredients     TagList `json:"ingredients"      gorm:"type:text"`
	Price           float64 `json:"price"            gorm:"not null;check:price >= 0"`
	Calories        int     `json:"calories"         gorm:"not null;check:calories >= 0"`
	PrepTime        int     `json:"prep_time"`
	DietaryTags     TagList `json:"dietary_tags"     gorm:"type:text"`
	MoodTags        TagList `json:"mood_tags"        gorm:"type:text"`
	Allergens       TagList `json:"allergens"        gorm:"type:text"`
	PopularityScore float64 `json:"popularity_score" gorm:"index:idx_products_popularity"`
	ChefSpecial     bool    `json:"chef_special"`
	LimitedTime     bool    `json:"limited_time"`
	SpiceLevel      int     `json:"spice_level"` // 0–10
	ImagePrompt     string  `json:"image_prompt"     gorm:"type:text"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// DefaultResultLimit is the number of products returned when a FilterQuery
// does not request an explicit limit.
const DefaultResultLimit = 3

// FilterQuery is the structured filter extracted from one user utterance.
// Every nil/empty field means "unconstrained". Set-valued inclusion filters
// (MoodTags, DietaryTags, IngredientsInclude) require a product to match ALL
// listed members; AllergensExclude requires it to contain NONE.
//
// MinSpice > MaxSpice is an unsatisfiable filter, not an error: the query
// builder resolves it to an empty result set.
type FilterQuery struct {
	Category           string   `json:"category,omitempty"`
	MaxPrice           *float64 `json:"max_price,omitempty"`
	MoodTags           []string `json:"mood_tags,omitempty"`
	DietaryTags        []string `json:"dietary_tags,omitempty"`
	AllergensExclude   []string `json:"allergens_exclude,omitempty"`
	ChefSpecial        *bool    `json:"chef_special,omitempty"`
	Popular            *bool    `json:"popular,omitempty"`
	MinPopularity      *float64 `json:"min_popularity,omitempty"`
	IngredientsInclude []string `json:"ingredients_include,omitempty"`
	MaxCalories        *int     `json:"max_calories,omitempty"`
	LimitedTime        *bool    `json:"limited_time,omitempty"`
	MinSpice           *int     `json:"min_spice,omitempty"`
	MaxSpice           *int     `json:"max_spice,omitempty"`
	ResultLimit        int      `json:"result_limit,omitempty"`
	Debug              bool     `json:"debug,omitempty"`
}

// Limit returns the effective result limit (DefaultResultLimit when unset or
// non-positive).
func (f FilterQuery) Limit() int {
	if f.ResultLimit > 0 {
		return f.ResultLimit
	}
	return DefaultResultLimit
}

// Unsatisfiable reports whether the filter can never match any product
// (inverted spice bounds).
func (f FilterQuery) Unsatisfiable() bool {
	return f.MinSpice != nil && f.MaxSpice != nil && *f.MinSpice > *f.MaxSpice
}

// ByPopularity reports whether results should be ordered by popularity_score
// descending: either the user asked for popular items or set a popularity
// threshold.
func (f FilterQuery) ByPopularity() bool {
	return (f.Popular != nil && *f.Popular) || f.MinPopularity != nil
}

// ConversationTurn is one append-only log record: a user utterance, the
// bot's reply, the validated interest score, and JSON snapshots of the
// filters and recommended products. Turns are never updated or deleted;
// analytics ordering is CreatedAt ASC (ID ASC as tiebreaker) per session.
type ConversationTurn struct {
	ID            uint      `json:"id"             gorm:"primaryKey;autoIncrement"`
	SessionID     string    `json:"session_id"     gorm:"type:varchar(64);not null;index:idx_session_turns,priority:1"`
	UserMessage   string    `json:"user_message"   gorm:"type:text;not null"`
	BotReply      string    `json:"bot_reply"      gorm:"type:text;not null"`
	InterestScore int       `json:"interest_score" gorm:"not null"`
	Filters       string    `json:"filters"        gorm:"type:text"` // serialized FilterQuery
	Products      string    `json:"products"       gorm:"type:text"` // serialized []Product snapshot
	CreatedAt     time.Time `json:"created_at"     gorm:"index:idx_session_turns,priority:2"`
}

// TableName returns the database table name for ConversationTurn.
func (ConversationTurn) TableName() string { return "conversations" }

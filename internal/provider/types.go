package provider

import (
	"encoding/json"
)

// LocationsPage is one page of the "list locations for account" endpoint.
type LocationsPage struct {
	Locations     []Location `json:"locations"`
	NextPageToken string     `json:"nextPageToken"`
}

// Location is the raw provider location payload.
type Location struct {
	// Name is the resource name, "accounts/{account}/locations/{location}".
	Name      string `json:"name"`
	Title     string `json:"title"`
	StoreCode string `json:"storeCode"`

	StorefrontAddress *Address  `json:"storefrontAddress"`
	PhoneNumbers      *Phones   `json:"phoneNumbers"`
	WebsiteURI        string    `json:"websiteUri"`
	OpenInfo          *OpenInfo `json:"openInfo"`

	// Metadata carries rating and count aggregates; some older accounts
	// deliver them under profile instead.
	Metadata *LocationStats `json:"metadata"`
	Profile  *LocationStats `json:"profile"`
}

// Address is the structured postal address of a location.
type Address struct {
	AddressLines       []string `json:"addressLines"`
	Locality           string   `json:"locality"`
	AdministrativeArea string   `json:"administrativeArea"`
	PostalCode         string   `json:"postalCode"`
	RegionCode         string   `json:"regionCode"`
}

type Phones struct {
	PrimaryPhone string `json:"primaryPhone"`
}

// OpenInfo carries the operational status of a location.
type OpenInfo struct {
	// Status is e.g. "OPEN", "CLOSED_TEMPORARILY", "CLOSED_PERMANENTLY".
	Status string `json:"status"`
}

// LocationStats holds the aggregate counters for one location.
type LocationStats struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
	FollowerCount int     `json:"followerCount"`
}

// ReviewsPage is one page of a location's review sub-collection.
type ReviewsPage struct {
	Reviews       []Review `json:"reviews"`
	NextPageToken string   `json:"nextPageToken"`
}

// Review is the raw provider review payload.
type Review struct {
	Name     string    `json:"name"`
	ReviewID string    `json:"reviewId"`
	Reviewer *Reviewer `json:"reviewer"`

	// StarRating arrives either as an enum token ("STAR_ONE".."STAR_FIVE")
	// or as a bare number, so it is decoded lazily.
	StarRating json.RawMessage `json:"starRating"`

	Comment    string       `json:"comment"`
	CreateTime string       `json:"createTime"`
	UpdateTime string       `json:"updateTime"`
	Reply      *ReviewReply `json:"reviewReply"`
}

type Reviewer struct {
	DisplayName     string `json:"displayName"`
	ProfilePhotoURL string `json:"profilePhotoUrl"`
}

type ReviewReply struct {
	Comment    string `json:"comment"`
	UpdateTime string `json:"updateTime"`
}

// QuestionsPage is one page of a location's Q&A sub-collection.
type QuestionsPage struct {
	Questions     []Question `json:"questions"`
	NextPageToken string     `json:"nextPageToken"`
}

// Question is the raw provider question payload.
type Question struct {
	Name   string    `json:"name"`
	Author *Reviewer `json:"author"`
	Text   string    `json:"text"`

	// TopAnswers is sometimes a single answer object and sometimes an
	// array, depending on API vintage.
	TopAnswers json.RawMessage `json:"topAnswers"`

	TotalAnswerCount int    `json:"totalAnswerCount"`
	CreateTime       string `json:"createTime"`
}

// Answer is one answer inside a question's topAnswers field.
type Answer struct {
	Text string `json:"text"`
}

// PostsPage is one page of a location's local-post sub-collection.
type PostsPage struct {
	LocalPosts    []Post `json:"localPosts"`
	NextPageToken string `json:"nextPageToken"`
}

// Post is the raw provider local-post payload.
type Post struct {
	Name      string `json:"name"`
	Summary   string `json:"summary"`
	TopicType string `json:"topicType"`
	State     string `json:"state"`

	CallToAction *CallToAction `json:"callToAction"`

	// Media is a single attachment object or an array of them.
	Media json.RawMessage `json:"media"`

	CreateTime string `json:"createTime"`
}

type CallToAction struct {
	ActionType string `json:"actionType"`
	URL        string `json:"url"`
}

// MediaPage is one page of a location's media sub-collection.
type MediaPage struct {
	MediaItems    []MediaItem `json:"mediaItems"`
	NextPageToken string      `json:"nextPageToken"`
}

// MediaItem is the raw provider media payload.
type MediaItem struct {
	Name         string `json:"name"`
	MediaFormat  string `json:"mediaFormat"`
	SourceURL    string `json:"sourceUrl"`
	GoogleURL    string `json:"googleUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	CreateTime   string `json:"createTime"`

	LocationAssociation *MediaCategory `json:"locationAssociation"`
}

type MediaCategory struct {
	Category string `json:"category"`
}

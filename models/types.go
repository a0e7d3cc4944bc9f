package models

// DateLayout is the calendar-day format used for vote days and token
// issue days. Dates are stored as text so both database dialects agree.
const DateLayout = "2006-01-02"

// Request types

type RegisterRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// Partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Partial update; nil fields are left unchanged. Admin transfers
// ownership to the named user.
type UpdateGroupRequest struct {
	Name  *string `json:"name"`
	Admin *string `json:"admin"`
}

type AddMembersRequest struct {
	Usernames []string `json:"usernames"`
}

type AttachPlacesRequest struct {
	Places []int64 `json:"places"`
}

type CreatePlaceRequest struct {
	Name string `json:"name"`
}

// Partial update; nil fields are left unchanged. Maintainer hands the
// place to the named user.
type UpdatePlaceRequest struct {
	Name       *string `json:"name"`
	Maintainer *string `json:"maintainer"`
}

// Choices is the ordered ballot: place ids ranked first to last.
// A nil slice means the field was missing from the request body.
type CastVoteRequest struct {
	Choices []int64 `json:"choices"`
}

// Response types

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateGroupResponse struct {
	ID int64 `json:"id"`
}

type CreatePlaceResponse struct {
	ID int64 `json:"id"`
}

type CastVoteResponse struct {
	Message string `json:"message"`
}

type GroupInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

type GroupListResponse struct {
	Groups []GroupInfo `json:"groups"`
}

type MemberInfo struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

type MemberListResponse struct {
	Users []MemberInfo `json:"users"`
}

type PlaceInfo struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Maintainer string `json:"maintainer"`
}

type PlaceListResponse struct {
	Places []PlaceInfo `json:"places"`
}

// PlaceScore is one tally row: accumulated decay-weighted points for a
// place on a given day.
type PlaceScore struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Points float64 `json:"points"`
}

// TallyResponse reports the day's standings for a group. Closed is true
// once every member has cast a ballot. Results are sorted by points
// ascending.
type TallyResponse struct {
	Closed  bool         `json:"closed"`
	Results []PlaceScore `json:"results"`
}

// Domain types

type User struct {
	Username      string  `json:"username"`
	FullName      string  `json:"full_name"`
	Passhash      string  `json:"-"` // Never expose in JSON
	Token         *string `json:"-"` // Never expose in JSON
	TokenIssuedOn *string `json:"-"`
	Verified      bool    `json:"verified"`
	CreatedAt     string  `json:"created_at"`
}

type Group struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

type Place struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner"`
}

// Vote is one user's daily ballot header; the ranked choices live in
// CastedVote rows keyed by (vote id, position).
type Vote struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	GroupID  int64  `json:"group_id"`
	CastOn   string `json:"cast_on"`
}

type CastedVote struct {
	VoteID   int64 `json:"vote_id"`
	Position int   `json:"position"`
	PlaceID  int64 `json:"place_id"`
}

// Error response

// Places, Duplicates and Required carry the offending ids or the
// expected choice count so a caller can fix a rejected ballot in one
// round-trip.
type ErrorResponse struct {
	Error      string  `json:"error"`
	Message    string  `json:"message,omitempty"`
	Places     []int64 `json:"places,omitempty"`
	Duplicates []int64 `json:"duplicates,omitempty"`
	Required   *int    `json:"required,omitempty"`
}

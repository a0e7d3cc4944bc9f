// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterRequest: username, full_name, password
  - UpdateUserRequest: full_name, password (both optional)
  - TokenRequest: username, password
  - CreateGroupRequest: name
  - UpdateGroupRequest: name, admin (both optional)
  - AddMembersRequest: usernames
  - AttachPlacesRequest: places
  - CreatePlaceRequest: name
  - UpdatePlaceRequest: name, maintainer (both optional)
  - CastVoteRequest: choices (place ids, best first)

# Response Types

Types for JSON responses:

  - TokenResponse: token
  - CreateGroupResponse / CreatePlaceResponse: id
  - GroupListResponse: groups with admin flag
  - MemberListResponse: users
  - PlaceListResponse: places
  - CastVoteResponse: message
  - TallyResponse: closed, results (worst first)
  - ErrorResponse: error, message, plus optional places/duplicates/required

# Domain Types

Internal data structures:

  - User: account row; passhash and token never serialize
  - Group: id, name, owner
  - Place: id, name, owner
  - Vote: one per user per day
  - CastedVote: ordered ballot line

# Constants

Dates are stored and compared as strings in DateLayout:

	DateLayout = "2006-01-02"
*/
package models

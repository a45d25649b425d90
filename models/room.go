package models

// Room is the unit of coordination: a bounded group voting on a shared
// content pool. The filter pair (MediaType, GenreIDs) is write-once — it is
// set at creation and never mutated afterwards.
type Room struct {
	ID                   string   `dynamodbav:"PK" json:"id"`
	SK                   string   `dynamodbav:"SK" json:"-"` // always "ROOM"
	HostID               string   `dynamodbav:"hostId" json:"hostId"`
	Name                 string   `dynamodbav:"name" json:"name"`
	Description          string   `dynamodbav:"description,omitempty" json:"description,omitempty"`
	IsPrivate            bool     `dynamodbav:"isPrivate" json:"isPrivate"`
	MaxMembers           int      `dynamodbav:"maxMembers" json:"maxMembers"`
	Status               string   `dynamodbav:"status" json:"status"`
	InviteCode           string   `dynamodbav:"inviteCode" json:"inviteCode"`
	InviteURL            string   `dynamodbav:"inviteUrl" json:"inviteUrl"`
	MediaType            string   `dynamodbav:"mediaType,omitempty" json:"mediaType,omitempty"`
	GenreIDs             []string `dynamodbav:"genreIds,omitempty" json:"genreIds,omitempty"`
	ContentIDs           []string `dynamodbav:"contentIds,omitempty" json:"contentIds,omitempty"`
	ShownContentIDs      []string `dynamodbav:"shownContentIds,omitempty" json:"shownContentIds,omitempty"`
	CurrentContentIndex  int      `dynamodbav:"currentContentIndex" json:"currentContentIndex"`
	ExcludedContentIDs   []string `dynamodbav:"excludedContentIds,omitempty" json:"excludedContentIds,omitempty"`
	MemberCount          int      `dynamodbav:"memberCount" json:"memberCount"`
	MatchCount           int      `dynamodbav:"matchCount" json:"matchCount"`
	RequiredVotes        int      `dynamodbav:"requiredVotes,omitempty" json:"requiredVotes,omitempty"` // 0 = unanimity
	LastContentRefreshAt string   `dynamodbav:"lastContentRefreshAt,omitempty" json:"lastContentRefreshAt,omitempty"`
	CreatedAt            string   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt            string   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// HasFilters reports whether a content filter was ever set on the room.
func (r *Room) HasFilters() bool {
	return r.MediaType != "" || len(r.GenreIDs) > 0
}

// ✅ Define table name for rooms
const RoomsTable = "Rooms"

// RoomSortKey is the fixed SK of the room item (single-item partition).
const RoomSortKey = "ROOM"

// ✅ Define GSI Name (Used to resolve invite codes to rooms)
const InviteCodeIndex = "inviteCode-index"

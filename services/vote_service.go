package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"trinity_server/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// VoteService records votes and detects consensus. All ordering guarantees
// come from conditional writes: the Vote row put enforces one vote per
// (room, item, user), and the RoomMatch row put guarantees the match
// trigger fires exactly once per (room, item) no matter how many concurrent
// requests cross the threshold together.
type VoteService struct {
	Dynamo   DB
	Notifier *NotificationService
}

// RecordVote casts userId's vote on movieId. A second vote for the same
// triple is a Conflict and leaves the tally untouched. When the LIKE count
// reaches the room's quorum (all currently active members, unless the room
// configured a smaller requiredVotes), the winning request increments the
// room's matchCount, marks the item shown, and publishes the match event.
// A room stays ACTIVE after a match — rooms are multi-match.
func (s *VoteService) RecordVote(ctx context.Context, roomID, userID, movieID, movieTitle, voteType string) (*models.VoteTally, error) {
	switch voteType {
	case models.VoteTypeLike, models.VoteTypeDislike, models.VoteTypeSkip:
	default:
		return nil, fmt.Errorf("%w: unknown vote type %q", ErrInvalidInput, voteType)
	}

	member, err := getRoomMember(ctx, s.Dynamo, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrNotMember
	}

	room, err := getRoomByID(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusActive {
		return nil, ErrRoomNotActive
	}

	movieID = NormalizeContentID(movieID)
	now := time.Now().UTC().Format(time.RFC3339)
	vote := models.Vote{
		RoomMovieID: models.VoteKey(roomID, movieID),
		UserID:      userID,
		RoomID:      roomID,
		MovieID:     movieID,
		VoteType:    voteType,
		CreatedAt:   now,
	}

	err = withRetries(ctx, "RecordVote:putVote", func() error {
		return s.Dynamo.PutItemConditional(ctx, models.VotesTable, vote,
			"attribute_not_exists(roomMovieId) AND attribute_not_exists(userId)")
	})
	if err != nil {
		if IsConditionalCheckFailed(err) {
			log.Printf("🔁 Duplicate vote rejected: %s on %s in room %s", userID, movieID, roomID)
			return nil, ErrDuplicateVote
		}
		return nil, err
	}

	tally, likers, err := s.tallyVotes(ctx, roomID, movieID)
	if err != nil {
		return nil, err
	}

	members, err := activeRoomMembers(ctx, s.Dynamo, roomID)
	if err != nil {
		return nil, err
	}
	allParticipants := make([]string, 0, len(members))
	for _, m := range members {
		allParticipants = append(allParticipants, m.UserID)
	}

	required := room.RequiredVotes
	if required <= 0 || required > len(members) {
		required = len(members) // unanimity among active members
	}
	if required < 1 {
		required = 1
	}
	tally.RequiredVotes = required

	if tally.Likes >= required {
		tally.Matched = s.triggerMatch(ctx, room, movieID, movieTitle, tally, likers, allParticipants, now)
	}

	s.Notifier.PublishVoteUpdate(models.VoteUpdateEvent{
		RoomID:        roomID,
		MovieID:       movieID,
		VoterID:       userID,
		Likes:         tally.Likes,
		Dislikes:      tally.Dislikes,
		Skips:         tally.Skips,
		RequiredVotes: required,
	})

	return tally, nil
}

// ListRoomVotes returns every vote cast in a room through the room GSI,
// restricted to active members.
func (s *VoteService) ListRoomVotes(ctx context.Context, roomID, userID string) ([]models.Vote, error) {
	member, err := getRoomMember(ctx, s.Dynamo, roomID, userID)
	if err != nil {
		return nil, err
	}
	if !member.IsActive {
		return nil, ErrNotMember
	}

	var items []map[string]types.AttributeValue
	err = withRetries(ctx, "ListRoomVotes", func() error {
		var queryErr error
		items, queryErr = s.Dynamo.QueryItemsWithIndex(ctx, models.VotesTable, models.VotesRoomIndex,
			"roomId = :roomId",
			map[string]types.AttributeValue{
				":roomId": &types.AttributeValueMemberS{Value: roomID},
			}, nil, 500, false)
		return queryErr
	})
	if err != nil {
		return nil, err
	}

	votes := make([]models.Vote, 0, len(items))
	for _, item := range items {
		var v models.Vote
		if umErr := attributevalue.UnmarshalMap(item, &v); umErr != nil {
			log.Printf("⚠️ Skipping unreadable vote row in room %s: %v", roomID, umErr)
			continue
		}
		votes = append(votes, v)
	}
	return votes, nil
}

// tallyVotes counts the per-item votes and returns LIKE voters in cast order.
func (s *VoteService) tallyVotes(ctx context.Context, roomID, movieID string) (*models.VoteTally, []string, error) {
	var items []map[string]types.AttributeValue
	err := withRetries(ctx, "tallyVotes", func() error {
		var queryErr error
		items, queryErr = s.Dynamo.QueryItems(ctx, models.VotesTable,
			"roomMovieId = :roomMovieId",
			map[string]types.AttributeValue{
				":roomMovieId": &types.AttributeValueMemberS{Value: models.VoteKey(roomID, movieID)},
			}, nil, 100)
		return queryErr
	})
	if err != nil {
		return nil, nil, err
	}

	tally := &models.VoteTally{RoomID: roomID, MovieID: movieID}
	var likers []string
	for _, item := range items {
		var v models.Vote
		if umErr := attributevalue.UnmarshalMap(item, &v); umErr != nil {
			log.Printf("⚠️ Skipping unreadable vote row for %s: %v", models.VoteKey(roomID, movieID), umErr)
			continue
		}
		switch v.VoteType {
		case models.VoteTypeLike:
			tally.Likes++
			likers = append(likers, v.UserID)
		case models.VoteTypeDislike:
			tally.Dislikes++
		case models.VoteTypeSkip:
			tally.Skips++
		}
	}
	return tally, likers, nil
}

// triggerMatch attempts the exactly-once consensus resolution. The
// conditional put on the RoomMatches row is the guard: only the request
// that wins it increments matchCount and publishes. Losing the condition
// means another request already resolved this match — that is success
// without the side effect, never an error to the voter.
func (s *VoteService) triggerMatch(ctx context.Context, room *models.Room, movieID, movieTitle string, tally *models.VoteTally, likers, allParticipants []string, now string) bool {
	match := models.RoomMatch{
		RoomID:        room.ID,
		MovieID:       movieID,
		MovieTitle:    movieTitle,
		VoteCount:     tally.Likes,
		RequiredVotes: tally.RequiredVotes,
		LikedBy:       likers,
		MatchedAt:     now,
	}

	err := withRetries(ctx, "triggerMatch:putMatch", func() error {
		return s.Dynamo.PutItemConditional(ctx, models.RoomMatchesTable, match,
			"attribute_not_exists(roomId) AND attribute_not_exists(movieId)")
	})
	if err != nil {
		if IsConditionalCheckFailed(err) {
			log.Printf("🔁 Match for %s in room %s already resolved by a concurrent vote", movieID, room.ID)
		} else {
			log.Printf("❌ Failed to record match for %s in room %s: %v", movieID, room.ID, err)
		}
		return false
	}

	if err := withRetries(ctx, "triggerMatch:advanceRoom", func() error {
		_, updErr := s.Dynamo.UpdateItem(ctx, models.RoomsTable,
			"SET matchCount = if_not_exists(matchCount, :zero) + :one, "+
				"shownContentIds = list_append(if_not_exists(shownContentIds, :empty), :movie), "+
				"currentContentIndex = if_not_exists(currentContentIndex, :zero) + :one, "+
				"updatedAt = :now",
			roomKey(room.ID),
			map[string]types.AttributeValue{
				":zero":  &types.AttributeValueMemberN{Value: "0"},
				":one":   &types.AttributeValueMemberN{Value: "1"},
				":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
				":movie": &types.AttributeValueMemberL{Value: []types.AttributeValue{&types.AttributeValueMemberS{Value: movieID}}},
				":now":   &types.AttributeValueMemberS{Value: now},
			}, nil)
		return updErr
	}); err != nil {
		// The RoomMatches row is the source of truth for resolved matches;
		// matchCount and shownContentIds are best-effort denormalizations
		// and may lag behind it if this write is lost.
		log.Printf("⚠️ Match recorded but room %s counters not advanced: %v", room.ID, err)
	}

	s.Notifier.PublishMatchFound(models.MatchEvent{
		RoomID:             room.ID,
		MovieID:            movieID,
		MovieTitle:         movieTitle,
		LikingParticipants: likers,
		AllParticipants:    allParticipants,
		VoteCount:          tally.Likes,
		RequiredVotes:      tally.RequiredVotes,
		Timestamp:          now,
	})
	return true
}

package services

import (
	"context"
	"sync"
	"testing"

	"trinity_server/models"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// voteFixture wires a stubDB around one ACTIVE three-member room whose
// per-item vote rows are supplied by the test.
type voteFixture struct {
	room        models.Room
	members     []models.RoomMember
	voteRows    func() []models.Vote
	votePut     func(item interface{}) error
	matchPut    func(item interface{}) error
	updateExprs []string
}

func activeRoomFixture() *voteFixture {
	return &voteFixture{
		room: models.Room{
			ID:     "room-1",
			SK:     models.RoomSortKey,
			HostID: "u1",
			Name:   "movie night",
			Status: models.RoomStatusActive,
		},
		members: []models.RoomMember{
			{RoomID: "room-1", UserID: "u1", Role: models.RoleHost, IsActive: true},
			{RoomID: "room-1", UserID: "u2", Role: models.RoleMember, IsActive: true},
			{RoomID: "room-1", UserID: "u3", Role: models.RoleMember, IsActive: true},
		},
	}
}

func (f *voteFixture) db() *stubDB {
	return &stubDB{
		GetItemFunc: func(ctx context.Context, tableName string, key map[string]types.AttributeValue) (map[string]types.AttributeValue, error) {
			switch tableName {
			case models.RoomsTable:
				return mustMarshal(f.room), nil
			case models.RoomMembersTable:
				userID := ""
				if attr, ok := key["userId"].(*types.AttributeValueMemberS); ok {
					userID = attr.Value
				}
				for _, m := range f.members {
					if m.UserID == userID {
						return mustMarshal(m), nil
					}
				}
			}
			return nil, ErrItemNotFound
		},
		QueryItemsFunc: func(ctx context.Context, tableName string, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32) ([]map[string]types.AttributeValue, error) {
			switch tableName {
			case models.VotesTable:
				var rows []map[string]types.AttributeValue
				if f.voteRows != nil {
					for _, v := range f.voteRows() {
						rows = append(rows, mustMarshal(v))
					}
				}
				return rows, nil
			case models.RoomMembersTable:
				var rows []map[string]types.AttributeValue
				for _, m := range f.members {
					rows = append(rows, mustMarshal(m))
				}
				return rows, nil
			}
			return nil, nil
		},
		PutItemConditionalFunc: func(ctx context.Context, tableName string, item interface{}, conditionExpression string) error {
			switch tableName {
			case models.VotesTable:
				if f.votePut != nil {
					return f.votePut(item)
				}
				return nil
			case models.RoomMatchesTable:
				if f.matchPut != nil {
					return f.matchPut(item)
				}
				return nil
			}
			return nil
		},
		UpdateItemFunc: func(ctx context.Context, tableName string, updateExpression string, key, values map[string]types.AttributeValue, names map[string]string) (map[string]types.AttributeValue, error) {
			f.updateExprs = append(f.updateExprs, updateExpression)
			return map[string]types.AttributeValue{}, nil
		},
	}
}

func likes(users ...string) []models.Vote {
	votes := make([]models.Vote, 0, len(users))
	for _, u := range users {
		votes = append(votes, models.Vote{
			RoomMovieID: models.VoteKey("room-1", "550"),
			UserID:      u,
			RoomID:      "room-1",
			MovieID:     "550",
			VoteType:    models.VoteTypeLike,
		})
	}
	return votes
}

func TestRecordVoteRejectsUnknownType(t *testing.T) {
	service := &VoteService{Dynamo: &stubDB{}, Notifier: &NotificationService{}}

	_, err := service.RecordVote(context.Background(), "room-1", "u1", "550", "Fight Club", "MAYBE")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordVoteRequiresMembership(t *testing.T) {
	fixture := activeRoomFixture()
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{}}

	_, err := service.RecordVote(context.Background(), "room-1", "stranger", "550", "Fight Club", models.VoteTypeLike)
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestRecordVoteRequiresActiveRoom(t *testing.T) {
	fixture := activeRoomFixture()
	fixture.room.Status = models.RoomStatusWaiting
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{}}

	_, err := service.RecordVote(context.Background(), "room-1", "u1", "550", "Fight Club", models.VoteTypeLike)
	assert.ErrorIs(t, err, ErrRoomNotActive)
}

func TestRecordVoteDuplicateLeavesTallyUntouched(t *testing.T) {
	fixture := activeRoomFixture()
	tallied := false
	fixture.votePut = func(interface{}) error {
		return &types.ConditionalCheckFailedException{}
	}
	fixture.voteRows = func() []models.Vote {
		tallied = true
		return nil
	}
	publisher := &recordingPublisher{}
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{Publisher: publisher}}

	_, err := service.RecordVote(context.Background(), "room-1", "u1", "550", "Fight Club", models.VoteTypeLike)

	assert.ErrorIs(t, err, ErrDuplicateVote)
	assert.False(t, tallied, "a rejected duplicate must not recount")
	assert.Empty(t, publisher.events, "a rejected duplicate publishes nothing")
}

func TestRecordVoteBelowThresholdPublishesUpdateOnly(t *testing.T) {
	fixture := activeRoomFixture()
	fixture.voteRows = func() []models.Vote { return likes("u1", "u2") }
	publisher := &recordingPublisher{}
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{Publisher: publisher}}

	tally, err := service.RecordVote(context.Background(), "room-1", "u2", "550", "Fight Club", models.VoteTypeLike)

	require.NoError(t, err)
	assert.Equal(t, 2, tally.Likes)
	assert.Equal(t, 3, tally.RequiredVotes, "quorum defaults to all active members")
	assert.False(t, tally.Matched)
	assert.Empty(t, publisher.eventsOf(EventMatchFound))

	updates := publisher.eventsOf(EventVoteUpdate)
	require.Len(t, updates, 1)
	update := updates[0].Payload.(models.VoteUpdateEvent)
	assert.Equal(t, "u2", update.VoterID)
	assert.Equal(t, 2, update.Likes)
	assert.Equal(t, 3, update.RequiredVotes)
}

func TestRecordVoteThirdLikeTriggersMatch(t *testing.T) {
	fixture := activeRoomFixture()
	fixture.voteRows = func() []models.Vote { return likes("u1", "u2", "u3") }
	publisher := &recordingPublisher{}
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{Publisher: publisher}}

	tally, err := service.RecordVote(context.Background(), "room-1", "u3", "tmdb_550", "Fight Club", models.VoteTypeLike)

	require.NoError(t, err)
	assert.True(t, tally.Matched)

	matches := publisher.eventsOf(EventMatchFound)
	require.Len(t, matches, 1)
	match := matches[0].Payload.(models.MatchEvent)
	assert.Equal(t, "room-1", match.RoomID)
	assert.Equal(t, "550", match.MovieID, "id is normalized before matching")
	assert.Equal(t, "Fight Club", match.MovieTitle)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, match.LikingParticipants)
	assert.ElementsMatch(t, []string{"u1", "u2", "u3"}, match.AllParticipants)
	assert.Equal(t, 3, match.VoteCount)
	assert.Equal(t, 3, match.RequiredVotes)

	// The winning request also advances the room counters.
	require.NotEmpty(t, fixture.updateExprs)
	assert.Contains(t, fixture.updateExprs[0], "matchCount")
	assert.Contains(t, fixture.updateExprs[0], "shownContentIds")
}

func TestRecordVoteHonorsConfiguredQuorum(t *testing.T) {
	fixture := activeRoomFixture()
	fixture.room.RequiredVotes = 2
	fixture.voteRows = func() []models.Vote { return likes("u1", "u2") }
	publisher := &recordingPublisher{}
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{Publisher: publisher}}

	tally, err := service.RecordVote(context.Background(), "room-1", "u2", "550", "Fight Club", models.VoteTypeLike)

	require.NoError(t, err)
	assert.Equal(t, 2, tally.RequiredVotes)
	assert.True(t, tally.Matched)
	assert.Len(t, publisher.eventsOf(EventMatchFound), 1)
}

func TestRecordVoteMatchAlreadyResolved(t *testing.T) {
	fixture := activeRoomFixture()
	fixture.voteRows = func() []models.Vote { return likes("u1", "u2", "u3") }
	fixture.matchPut = func(interface{}) error {
		return &types.ConditionalCheckFailedException{}
	}
	publisher := &recordingPublisher{}
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{Publisher: publisher}}

	tally, err := service.RecordVote(context.Background(), "room-1", "u3", "550", "Fight Club", models.VoteTypeLike)

	require.NoError(t, err, "losing the match race is not an error for the voter")
	assert.False(t, tally.Matched)
	assert.Empty(t, publisher.eventsOf(EventMatchFound), "the loser must not publish a second match")
	require.Len(t, publisher.eventsOf(EventVoteUpdate), 1)
	assert.Empty(t, fixture.updateExprs, "the loser must not advance room counters")
}

func TestListRoomVotesQueriesRoomIndex(t *testing.T) {
	fixture := activeRoomFixture()
	db := fixture.db()
	var indexUsed string
	db.QueryWithIndexFunc = func(ctx context.Context, tableName, indexName, keyCondition string, values map[string]types.AttributeValue, names map[string]string, limit int32, latestFirst bool) ([]map[string]types.AttributeValue, error) {
		indexUsed = indexName
		assert.Equal(t, models.VotesTable, tableName)
		var rows []map[string]types.AttributeValue
		for _, v := range likes("u1", "u2") {
			rows = append(rows, mustMarshal(v))
		}
		return rows, nil
	}
	service := &VoteService{Dynamo: db, Notifier: &NotificationService{}}

	votes, err := service.ListRoomVotes(context.Background(), "room-1", "u1")

	require.NoError(t, err)
	assert.Equal(t, models.VotesRoomIndex, indexUsed)
	require.Len(t, votes, 2)
	assert.Equal(t, models.VoteTypeLike, votes[0].VoteType)
}

func TestListRoomVotesRequiresMembership(t *testing.T) {
	fixture := activeRoomFixture()
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{}}

	_, err := service.ListRoomVotes(context.Background(), "room-1", "stranger")
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestRecordVoteConcurrentThresholdMatchesExactlyOnce(t *testing.T) {
	fixture := activeRoomFixture()
	fixture.voteRows = func() []models.Vote { return likes("u1", "u2", "u3") }

	// Conditional-put semantics in miniature: the first writer wins the
	// RoomMatches row, everyone after loses the condition.
	var matchMu sync.Mutex
	matchTaken := false
	fixture.matchPut = func(interface{}) error {
		matchMu.Lock()
		defer matchMu.Unlock()
		if matchTaken {
			return &types.ConditionalCheckFailedException{}
		}
		matchTaken = true
		return nil
	}

	publisher := &recordingPublisher{}
	service := &VoteService{Dynamo: fixture.db(), Notifier: &NotificationService{Publisher: publisher}}

	var wg sync.WaitGroup
	var matchedMu sync.Mutex
	matched := 0
	for _, user := range []string{"u1", "u2", "u3"} {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			tally, err := service.RecordVote(context.Background(), "room-1", userID, "550", "Fight Club", models.VoteTypeLike)
			if err != nil {
				return
			}
			if tally.Matched {
				matchedMu.Lock()
				matched++
				matchedMu.Unlock()
			}
		}(user)
	}
	wg.Wait()

	assert.Equal(t, 1, matched, "exactly one request wins the match")
	assert.Len(t, publisher.eventsOf(EventMatchFound), 1)
	assert.Len(t, publisher.eventsOf(EventVoteUpdate), 3, "every voter still gets a tally update")
}
